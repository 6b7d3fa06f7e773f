package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"typerace/internal/config"
	"typerace/internal/model"
	"typerace/internal/store"
)

// ResultsCache keeps final standings after the in-memory session is gone.
// Get returns (nil, nil) on a miss.
type ResultsCache interface {
	Set(ctx context.Context, roomID string, results []model.RaceResult) error
	Get(ctx context.Context, roomID string) ([]model.RaceResult, error)
}

// FinishNotifier tells the room coordinator a race has completed
type FinishNotifier interface {
	RaceFinished(ctx context.Context, notice model.RaceFinishedNotice) error
}

const sideEffectTimeout = 5 * time.Second

// RaceEngine owns race sessions: text assignment, progress, completion and
// ranking. Store access is serialized by mu.
type RaceEngine struct {
	mu    sync.Mutex
	races *store.RaceStore

	hub      Broadcaster
	results  ResultsCache
	notifier FinishNotifier
	cfg      config.RaceConfig
	logger   *slog.Logger
	now      func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRaceEngine creates an engine. results and notifier may be nil.
func NewRaceEngine(cfg config.RaceConfig, races *store.RaceStore, hub Broadcaster, results ResultsCache, notifier FinishNotifier, logger *slog.Logger) *RaceEngine {
	return &RaceEngine{
		races:    races,
		hub:      hub,
		results:  results,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// StartRace creates a fresh session for the room and announces it to the
// room's race subscribers
func (e *RaceEngine) StartRace(ctx context.Context, roomID string, players []model.Participant) (*model.RaceInfo, error) {
	if roomID == "" {
		return nil, model.Invalid("roomId is required")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	session := e.races.Create(roomID, players)
	info := session.Info()
	e.hub.BroadcastToGroup(roomID, model.EventRaceStarted, info)
	e.hub.BroadcastToGroup(roomID, model.EventRaceState, session.State())

	e.logger.Info("race session created", "room_id", roomID, "players", len(session.Players))
	return &info, nil
}

// JoinRace subscribes the caller to the room's race events. The subscription
// is kept even when no race exists yet.
func (e *RaceEngine) JoinRace(caller Caller, roomID string) (*model.RaceInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.hub.Join(roomID, caller.ConnID)

	session, ok := e.races.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("join race %s: %w", roomID, model.ErrRaceNotFound)
	}
	info := session.Info()
	return &info, nil
}

// UpdateProgress applies a progress report from the caller
func (e *RaceEngine) UpdateProgress(ctx context.Context, caller Caller, upd model.ProgressUpdate) error {
	if upd.UserID != "" && upd.UserID != caller.UserID {
		return fmt.Errorf("progress for %s sent by %s: %w", upd.UserID, caller.UserID, model.ErrForbidden)
	}

	e.mu.Lock()
	session, firstFinish, err := e.races.UpdateProgress(upd.RoomID, caller.UserID, upd.Progress, upd.WPM, upd.Accuracy)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	e.hub.BroadcastToGroup(upd.RoomID, model.EventRaceState, session.State())

	if firstFinish {
		p := session.Players[caller.UserID]
		e.hub.BroadcastToGroup(upd.RoomID, model.EventPlayerFinished, model.PlayerFinishedPayload{
			RoomID:     upd.RoomID,
			UserID:     p.UserID,
			Username:   p.Username,
			WPM:        p.WPM,
			Accuracy:   p.Accuracy,
			FinishedAt: *p.FinishedAt,
		})
	}

	results, finishedAt, done := e.completeLocked(session)
	e.mu.Unlock()

	if done {
		e.logger.Info("race finished", "room_id", upd.RoomID, "players", len(results))
		e.publishFinished(context.WithoutCancel(ctx), upd.RoomID, results, finishedAt)
	}
	return nil
}

// PlayerLeft marks a racer who left the room mid-race so the others can
// still complete. Unknown rooms and players are ignored.
func (e *RaceEngine) PlayerLeft(ctx context.Context, roomID, userID string) {
	e.mu.Lock()
	session, changed, err := e.races.MarkLeft(roomID, userID)
	if err != nil || !changed {
		e.mu.Unlock()
		return
	}

	e.hub.BroadcastToGroup(roomID, model.EventRaceState, session.State())
	results, finishedAt, done := e.completeLocked(session)
	e.mu.Unlock()

	e.logger.Info("racer left", "room_id", roomID, "user_id", userID)
	if done {
		e.logger.Info("race finished", "room_id", roomID, "players", len(results))
		e.publishFinished(context.WithoutCancel(ctx), roomID, results, finishedAt)
	}
}

// completeLocked closes the session once every remaining racer is done and
// announces the final standings
func (e *RaceEngine) completeLocked(session *model.RaceSession) ([]model.RaceResult, time.Time, bool) {
	if !e.races.CheckAllFinished(session.RoomID) {
		return nil, time.Time{}, false
	}
	results := store.Rank(session.Standings())
	e.hub.BroadcastToGroup(session.RoomID, model.EventRaceFinished, model.RaceFinishedPayload{
		RoomID:  session.RoomID,
		Results: results,
	})
	return results, *session.FinishedAt, true
}

func (e *RaceEngine) publishFinished(ctx context.Context, roomID string, results []model.RaceResult, finishedAt time.Time) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()

	if e.results != nil {
		if err := e.results.Set(ctx, roomID, results); err != nil {
			e.logger.Warn("failed to cache race results", "room_id", roomID, "error", err)
		}
	}
	if e.notifier != nil {
		notice := model.RaceFinishedNotice{RoomID: roomID, FinishedAt: finishedAt}
		if err := e.notifier.RaceFinished(ctx, notice); err != nil {
			e.logger.Warn("failed to publish race finished", "room_id", roomID, "error", err)
		}
	}
}

func (e *RaceEngine) GetRaceState(roomID string) (*model.RaceState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, ok := e.races.Get(roomID)
	if !ok {
		return nil, fmt.Errorf("race %s: %w", roomID, model.ErrRaceNotFound)
	}
	state := session.State()
	return &state, nil
}

// GetResults ranks a live session, falling back to cached results once the
// session has been swept
func (e *RaceEngine) GetResults(ctx context.Context, roomID string) ([]model.RaceResult, error) {
	e.mu.Lock()
	results, err := e.races.Results(roomID)
	e.mu.Unlock()
	if err == nil {
		return results, nil
	}
	if e.results == nil {
		return nil, err
	}

	cached, cacheErr := e.results.Get(ctx, roomID)
	if cacheErr != nil {
		return nil, fmt.Errorf("failed to read cached results: %w", cacheErr)
	}
	if cached == nil {
		return nil, err
	}
	return cached, nil
}

// Start launches the session sweeper
func (e *RaceEngine) Start() {
	e.wg.Add(1)
	go e.sweepLoop()
}

// Stop halts the sweeper and waits for it to exit
func (e *RaceEngine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

func (e *RaceEngine) sweepLoop() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.Sweep(e.now())
		case <-e.stopCh:
			return
		}
	}
}

// Sweep deletes finished sessions past their TTL and abandoned ones past the
// maximum age. It returns the number removed.
func (e *RaceEngine) Sweep(now time.Time) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	expired := e.races.Expired(now, e.cfg.SessionTTL, e.cfg.MaxSessionAge)
	for _, roomID := range expired {
		e.races.Delete(roomID)
		e.logger.Debug("race session expired", "room_id", roomID)
	}
	if len(expired) > 0 {
		e.logger.Info("swept race sessions", "count", len(expired), "remaining", e.races.Len())
	}
	return len(expired)
}
