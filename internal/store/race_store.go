package store

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"time"

	"typerace/internal/model"
)

// RaceStore is the in-memory race session registry, keyed by room id.
// Callers serialize access.
type RaceStore struct {
	sessions map[string]*model.RaceSession
	texts    []string
	pick     func(n int) int
	now      func() time.Time
}

type RaceStoreOption func(*RaceStore)

// WithTexts replaces the passage corpus
func WithTexts(texts []string) RaceStoreOption {
	return func(s *RaceStore) { s.texts = texts }
}

// WithPicker replaces the random index source used to choose a text
func WithPicker(pick func(n int) int) RaceStoreOption {
	return func(s *RaceStore) { s.pick = pick }
}

func WithClock(now func() time.Time) RaceStoreOption {
	return func(s *RaceStore) { s.now = now }
}

func NewRaceStore(opts ...RaceStoreOption) *RaceStore {
	s := &RaceStore{
		sessions: make(map[string]*model.RaceSession),
		texts:    defaultTexts,
		pick:     rand.IntN,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Texts returns the corpus in use
func (s *RaceStore) Texts() []string {
	return s.texts
}

// Create starts a fresh active session for the room, replacing any earlier one
func (s *RaceStore) Create(roomID string, players []model.Participant) *model.RaceSession {
	session := &model.RaceSession{
		RoomID:    roomID,
		Text:      s.texts[s.pick(len(s.texts))],
		StartedAt: s.now(),
		Status:    model.RaceActive,
		Players:   make(map[string]*model.RacePlayer, len(players)),
		Order:     make([]string, 0, len(players)),
	}
	for _, p := range players {
		if _, dup := session.Players[p.UserID]; dup {
			continue
		}
		session.Players[p.UserID] = &model.RacePlayer{
			UserID:   p.UserID,
			Username: p.Username,
			Accuracy: 100,
		}
		session.Order = append(session.Order, p.UserID)
	}
	s.sessions[roomID] = session
	return session
}

func (s *RaceStore) Get(roomID string) (*model.RaceSession, bool) {
	session, ok := s.sessions[roomID]
	return session, ok
}

// UpdateProgress records a player's typing state. Values are clamped into
// range. The returned flag is true only for the update that first reached
// 100% progress. Later updates still apply but never re-stamp the finish time.
// A completed session accepts updates without changing.
func (s *RaceStore) UpdateProgress(roomID, userID string, progress float64, wpm int, accuracy float64) (*model.RaceSession, bool, error) {
	session, ok := s.sessions[roomID]
	if !ok {
		return nil, false, fmt.Errorf("room %s: %w", roomID, model.ErrSessionNotFound)
	}
	player, ok := session.Players[userID]
	if !ok {
		return nil, false, fmt.Errorf("user %s in room %s: %w", userID, roomID, model.ErrPlayerNotInSession)
	}
	// standings are final once the session completes
	if session.Status != model.RaceActive || player.Left {
		return session, false, nil
	}

	player.Progress = clamp(progress, 0, 100)
	player.WPM = max(wpm, 0)
	player.Accuracy = clamp(accuracy, 0, 100)

	// finishedAt is stamped once
	if player.Progress >= 100 && !player.Finished {
		at := s.now()
		player.Finished = true
		player.FinishedAt = &at
		return session, true, nil
	}
	return session, false, nil
}

// MarkLeft records that a racer left mid-race. The player stays in the
// standings but no longer holds up completion. The flag is true only when
// the player was still racing.
func (s *RaceStore) MarkLeft(roomID, userID string) (*model.RaceSession, bool, error) {
	session, ok := s.sessions[roomID]
	if !ok {
		return nil, false, fmt.Errorf("room %s: %w", roomID, model.ErrSessionNotFound)
	}
	player, ok := session.Players[userID]
	if !ok {
		return nil, false, fmt.Errorf("user %s in room %s: %w", userID, roomID, model.ErrPlayerNotInSession)
	}
	if session.Status != model.RaceActive || player.Left || player.Finished {
		return session, false, nil
	}
	player.Left = true
	return session, true, nil
}

// CheckAllFinished reports true exactly once: on the call that observes every
// remaining player finished while the session is still active. The session is
// then marked finished. A session nobody finishes never completes.
func (s *RaceStore) CheckAllFinished(roomID string) bool {
	session, ok := s.sessions[roomID]
	if !ok || session.Status != model.RaceActive {
		return false
	}
	finished := 0
	for _, p := range session.Players {
		switch {
		case p.Finished:
			finished++
		case !p.Left:
			return false
		}
	}
	if finished == 0 {
		return false
	}
	at := s.now()
	session.Status = model.RaceFinished
	session.FinishedAt = &at
	return true
}

// Results ranks the session's players
func (s *RaceStore) Results(roomID string) ([]model.RaceResult, error) {
	session, ok := s.sessions[roomID]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", roomID, model.ErrRaceNotFound)
	}
	return Rank(session.Standings()), nil
}

func (s *RaceStore) Delete(roomID string) {
	delete(s.sessions, roomID)
}

// Expired lists sessions finished for longer than finishedTTL, or started
// longer than maxAge ago regardless of status.
func (s *RaceStore) Expired(now time.Time, finishedTTL, maxAge time.Duration) []string {
	var ids []string
	for id, session := range s.sessions {
		switch {
		case session.FinishedAt != nil && now.Sub(*session.FinishedAt) > finishedTTL:
			ids = append(ids, id)
		case now.Sub(session.StartedAt) > maxAge:
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *RaceStore) Len() int {
	return len(s.sessions)
}

// Rank orders players finished-first, then racers who stayed ahead of those
// who left, then by earlier finish, then by higher wpm. Ties keep the input order. Positions start at 1.
func Rank(players []model.RacePlayer) []model.RaceResult {
	sorted := make([]model.RacePlayer, len(players))
	copy(sorted, players)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Finished != b.Finished {
			return a.Finished
		}
		if a.Left != b.Left {
			return b.Left
		}
		if a.FinishedAt != nil && b.FinishedAt != nil && !a.FinishedAt.Equal(*b.FinishedAt) {
			return a.FinishedAt.Before(*b.FinishedAt)
		}
		return a.WPM > b.WPM
	})

	results := make([]model.RaceResult, len(sorted))
	for i, p := range sorted {
		results[i] = model.RaceResult{
			Position:   i + 1,
			UserID:     p.UserID,
			Username:   p.Username,
			WPM:        p.WPM,
			Accuracy:   p.Accuracy,
			Progress:   p.Progress,
			Finished:   p.Finished,
			FinishedAt: p.FinishedAt,
			Left:       p.Left,
		}
	}
	return results
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}
