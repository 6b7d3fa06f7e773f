package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"typerace/internal/logging"
	"typerace/internal/model"
	"typerace/internal/service"
	"typerace/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memResults struct {
	mu   sync.Mutex
	data map[string][]model.RaceResult
	sets int
	err  error
}

func newMemResults() *memResults {
	return &memResults{data: make(map[string][]model.RaceResult)}
}

func (m *memResults) Set(_ context.Context, roomID string, results []model.RaceResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[roomID] = results
	return nil
}

func (m *memResults) Get(_ context.Context, roomID string) ([]model.RaceResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.data[roomID], nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []model.RaceFinishedNotice
}

func (n *recordingNotifier) RaceFinished(_ context.Context, notice model.RaceFinishedNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

type engineFixture struct {
	engine   *service.RaceEngine
	hub      *fakeHub
	results  *memResults
	notifier *recordingNotifier
}

func newEngine(t *testing.T, opts ...store.RaceStoreOption) *engineFixture {
	t.Helper()
	f := &engineFixture{hub: newFakeHub(), results: newMemResults(), notifier: &recordingNotifier{}}
	f.engine = service.NewRaceEngine(testRaceConfig(), store.NewRaceStore(opts...), f.hub, f.results, f.notifier, logging.Discard())
	t.Cleanup(f.engine.Stop)
	return f
}

var racers = []model.Participant{
	{UserID: "u-alice", Username: "alice"},
	{UserID: "u-bob", Username: "bob"},
}

func progress(roomID string, pct float64, wpm int) model.ProgressUpdate {
	return model.ProgressUpdate{RoomID: roomID, Progress: pct, WPM: wpm, Accuracy: 98}
}

func TestEngine_StartRace(t *testing.T) {
	f := newEngine(t, store.WithTexts([]string{"only text"}))

	info, err := f.engine.StartRace(context.Background(), "r1", racers)
	require.NoError(t, err)
	assert.Equal(t, "only text", info.Text)
	assert.Equal(t, []string{model.EventRaceStarted, model.EventRaceState}, f.hub.types())

	state := f.hub.ofType(model.EventRaceState)[0].Payload.(model.RaceState)
	assert.Len(t, state.Players, 2)
	assert.Equal(t, model.RaceActive, state.Status)

	_, err = f.engine.StartRace(context.Background(), "", racers)
	assert.Equal(t, "invalid_request", model.CodeOf(err))
}

func TestEngine_JoinRace(t *testing.T) {
	f := newEngine(t)

	_, err := f.engine.JoinRace(alice, "r1")
	assert.ErrorIs(t, err, model.ErrRaceNotFound)
	assert.True(t, f.hub.inGroup("r1", alice.ConnID), "subscription kept without a race")

	started, err := f.engine.StartRace(context.Background(), "r1", racers)
	require.NoError(t, err)
	require.NoError(t, f.engine.UpdateProgress(context.Background(), alice, progress("r1", 40, 50)))

	info, err := f.engine.JoinRace(bob, "r1")
	require.NoError(t, err)
	assert.Equal(t, started.Text, info.Text)

	state, err := f.engine.GetRaceState("r1")
	require.NoError(t, err)
	assert.Equal(t, 40.0, state.Players[0].Progress, "join must not reset progress")
}

func TestEngine_UpdateProgressErrors(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	err := f.engine.UpdateProgress(ctx, alice, progress("r1", 10, 10))
	assert.ErrorIs(t, err, model.ErrSessionNotFound)

	_, err = f.engine.StartRace(ctx, "r1", racers[:1])
	require.NoError(t, err)

	err = f.engine.UpdateProgress(ctx, bob, progress("r1", 10, 10))
	assert.ErrorIs(t, err, model.ErrPlayerNotInSession)

	spoofed := progress("r1", 100, 200)
	spoofed.UserID = "u-alice"
	err = f.engine.UpdateProgress(ctx, bob, spoofed)
	assert.ErrorIs(t, err, model.ErrForbidden)

	own := progress("r1", 20, 30)
	own.UserID = "u-alice"
	assert.NoError(t, f.engine.UpdateProgress(ctx, alice, own))
}

func TestEngine_RaceCompletes(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	_, err := f.engine.StartRace(ctx, "r1", racers)
	require.NoError(t, err)

	require.NoError(t, f.engine.UpdateProgress(ctx, alice, progress("r1", 50, 60)))
	require.NoError(t, f.engine.UpdateProgress(ctx, bob, progress("r1", 100, 45)))
	assert.Equal(t, 1, f.hub.count(model.EventPlayerFinished))
	assert.Zero(t, f.hub.count(model.EventRaceFinished))

	bobDone := f.hub.ofType(model.EventPlayerFinished)[0].Payload.(model.PlayerFinishedPayload)
	assert.Equal(t, "u-bob", bobDone.UserID)
	assert.Equal(t, 45, bobDone.WPM)
	assert.Equal(t, 98.0, bobDone.Accuracy)
	assert.False(t, bobDone.FinishedAt.IsZero())

	require.NoError(t, f.engine.UpdateProgress(ctx, alice, progress("r1", 100, 70)))
	require.NoError(t, f.engine.UpdateProgress(ctx, alice, progress("r1", 100, 75)))

	assert.Equal(t, 2, f.hub.count(model.EventPlayerFinished))
	finished := f.hub.ofType(model.EventRaceFinished)
	require.Len(t, finished, 1)

	results := finished[0].Payload.(model.RaceFinishedPayload).Results
	require.Len(t, results, 2)
	assert.Equal(t, "u-bob", results[0].UserID)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, "u-alice", results[1].UserID)
	assert.Equal(t, 2, results[1].Position)

	assert.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "r1", f.notifier.notices[0].RoomID)
	assert.Len(t, f.results.data["r1"], 2)

	state, err := f.engine.GetRaceState("r1")
	require.NoError(t, err)
	assert.Equal(t, model.RaceFinished, state.Status)
}

func TestEngine_PlayerLeftLetsOthersFinish(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	_, err := f.engine.StartRace(ctx, "r1", racers)
	require.NoError(t, err)

	f.engine.PlayerLeft(ctx, "r1", "u-nobody")
	f.engine.PlayerLeft(ctx, "missing", "u-alice")

	require.NoError(t, f.engine.UpdateProgress(ctx, bob, progress("r1", 100, 45)))
	assert.Zero(t, f.hub.count(model.EventRaceFinished))

	f.engine.PlayerLeft(ctx, "r1", "u-alice")

	finished := f.hub.ofType(model.EventRaceFinished)
	require.Len(t, finished, 1)
	results := finished[0].Payload.(model.RaceFinishedPayload).Results
	require.Len(t, results, 2)
	assert.Equal(t, "u-bob", results[0].UserID)
	assert.Equal(t, "u-alice", results[1].UserID)
	assert.True(t, results[1].Left)
	assert.False(t, results[1].Finished)
	assert.Equal(t, 1, f.notifier.count())

	f.engine.PlayerLeft(ctx, "r1", "u-alice")
	assert.Equal(t, 1, f.hub.count(model.EventRaceFinished))
}

func TestEngine_ConcurrentFinishAnnouncedOnce(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	var players []model.Participant
	for i := 0; i < 20; i++ {
		players = append(players, model.Participant{UserID: fmt.Sprintf("u%d", i), Username: fmt.Sprintf("p%d", i)})
	}
	_, err := f.engine.StartRace(ctx, "r1", players)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, p := range players {
		wg.Add(1)
		go func(p model.Participant) {
			defer wg.Done()
			caller := service.Caller{ConnID: "c-" + p.UserID, UserID: p.UserID, Username: p.Username}
			for pct := 25.0; pct <= 100; pct += 25 {
				assert.NoError(t, f.engine.UpdateProgress(ctx, caller, progress("r1", pct, 50)))
			}
		}(p)
	}
	wg.Wait()

	assert.Equal(t, 1, f.hub.count(model.EventRaceFinished))
	assert.Equal(t, 20, f.hub.count(model.EventPlayerFinished))
	assert.Equal(t, 1, f.notifier.count())
}

func TestEngine_ResultsFallBackToCache(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	_, err := f.engine.GetResults(ctx, "r1")
	assert.ErrorIs(t, err, model.ErrRaceNotFound)

	_, err = f.engine.StartRace(ctx, "r1", racers[:1])
	require.NoError(t, err)
	require.NoError(t, f.engine.UpdateProgress(ctx, alice, progress("r1", 100, 88)))

	live, err := f.engine.GetResults(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, live, 1)

	removed := f.engine.Sweep(time.Now().Add(11 * time.Minute))
	assert.Equal(t, 1, removed)

	_, err = f.engine.GetRaceState("r1")
	assert.ErrorIs(t, err, model.ErrRaceNotFound)

	cached, err := f.engine.GetResults(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, live, cached)

	f.results.err = errors.New("redis down")
	_, err = f.engine.GetResults(ctx, "r1")
	assert.Error(t, err)
	assert.Equal(t, "internal", model.CodeOf(err))
}

func TestEngine_SweepAbandoned(t *testing.T) {
	f := newEngine(t)
	_, err := f.engine.StartRace(context.Background(), "r1", racers)
	require.NoError(t, err)

	assert.Zero(t, f.engine.Sweep(time.Now().Add(5*time.Minute)))
	assert.Equal(t, 1, f.engine.Sweep(time.Now().Add(31*time.Minute)))
}

func TestEngine_StartStop(t *testing.T) {
	hub := newFakeHub()
	cfg := testRaceConfig()
	cfg.SweepInterval = 5 * time.Millisecond
	cfg.MaxSessionAge = time.Nanosecond

	engine := service.NewRaceEngine(cfg, store.NewRaceStore(), hub, nil, nil, logging.Discard())
	engine.Start()

	_, err := engine.StartRace(context.Background(), "r1", racers)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := engine.GetRaceState("r1")
		return errors.Is(err, model.ErrRaceNotFound)
	}, time.Second, 5*time.Millisecond)

	engine.Stop()
	engine.Stop()
}
