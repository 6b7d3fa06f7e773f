package service_test

import (
	"context"
	"testing"
	"time"

	"typerace/internal/logging"
	"typerace/internal/model"
	"typerace/internal/service"
	"typerace/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// finishRelay feeds engine completions back to the coordinator in-process
type finishRelay struct {
	rooms *service.RoomCoordinator
}

func (r *finishRelay) RaceFinished(_ context.Context, notice model.RaceFinishedNotice) error {
	r.rooms.MarkFinished(notice.RoomID)
	return nil
}

func TestScenario_TwoPlayerRace(t *testing.T) {
	roomHub, raceHub := newFakeHub(), newFakeHub()
	relay := &finishRelay{}
	engine := service.NewRaceEngine(testRaceConfig(), store.NewRaceStore(), raceHub, newMemResults(), relay, logging.Discard())
	rooms := service.NewRoomCoordinator(testRoomConfig(), engine, roomHub, logging.Discard())
	relay.rooms = rooms
	t.Cleanup(rooms.Stop)
	t.Cleanup(engine.Stop)
	ctx := context.Background()

	created, err := rooms.CreateRoom(alice, 2)
	require.NoError(t, err)
	roomID := created.RoomID

	_, err = rooms.JoinRoom(bob, roomID)
	require.NoError(t, err)

	// both subscribe before the race exists
	_, err = engine.JoinRace(alice, roomID)
	assert.ErrorIs(t, err, model.ErrRaceNotFound)
	_, err = engine.JoinRace(bob, roomID)
	assert.ErrorIs(t, err, model.ErrRaceNotFound)

	assert.ErrorIs(t, rooms.StartRace(bob, roomID, 0), model.ErrOnlyHostCanStart)
	require.NoError(t, rooms.StartRace(alice, roomID, 3))

	require.Eventually(t, func() bool {
		state, err := rooms.GetRoomState(roomID)
		if err != nil || state.Status != model.RoomInProgress {
			return false
		}
		_, err = engine.GetRaceState(roomID)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, raceHub.count(model.EventRaceStarted))
	assert.Equal(t, model.RoomInProgress, roomStatus(t, rooms, roomID))

	require.NoError(t, engine.UpdateProgress(ctx, alice, progress(roomID, 60, 70)))
	require.NoError(t, engine.UpdateProgress(ctx, bob, progress(roomID, 100, 55)))
	require.NoError(t, engine.UpdateProgress(ctx, alice, progress(roomID, 100, 72)))

	finished := raceHub.ofType(model.EventRaceFinished)
	require.Len(t, finished, 1)
	results := finished[0].Payload.(model.RaceFinishedPayload).Results
	assert.Equal(t, "u-bob", results[0].UserID)
	assert.Equal(t, "u-alice", results[1].UserID)

	assert.Equal(t, model.RoomFinished, roomStatus(t, rooms, roomID))
}

// departureRelay forwards coordinator departures to the engine in-process
type departureRelay struct {
	engine *service.RaceEngine
}

func (r departureRelay) PlayerLeft(ctx context.Context, notice model.PlayerLeftNotice) error {
	r.engine.PlayerLeft(ctx, notice.RoomID, notice.UserID)
	return nil
}

func TestScenario_RacerDisconnectsMidRace(t *testing.T) {
	roomHub, raceHub := newFakeHub(), newFakeHub()
	relay := &finishRelay{}
	engine := service.NewRaceEngine(testRaceConfig(), store.NewRaceStore(), raceHub, newMemResults(), relay, logging.Discard())
	rooms := service.NewRoomCoordinator(testRoomConfig(), engine, roomHub, logging.Discard())
	rooms.SetDepartureNotifier(departureRelay{engine: engine})
	relay.rooms = rooms
	t.Cleanup(rooms.Stop)
	t.Cleanup(engine.Stop)
	ctx := context.Background()

	created, err := rooms.CreateRoom(alice, 2)
	require.NoError(t, err)
	roomID := created.RoomID
	_, err = rooms.JoinRoom(bob, roomID)
	require.NoError(t, err)

	require.NoError(t, rooms.StartRace(alice, roomID, 1))
	require.Eventually(t, func() bool {
		state, err := rooms.GetRoomState(roomID)
		if err != nil || state.Status != model.RoomInProgress {
			return false
		}
		_, err = engine.GetRaceState(roomID)
		return err == nil
	}, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, engine.UpdateProgress(ctx, bob, progress(roomID, 100, 55)))
	rooms.Disconnect(alice.ConnID)

	finished := raceHub.ofType(model.EventRaceFinished)
	require.Len(t, finished, 1)
	results := finished[0].Payload.(model.RaceFinishedPayload).Results
	assert.Equal(t, "u-bob", results[0].UserID)
	assert.True(t, results[1].Left)

	assert.Equal(t, model.RoomFinished, roomStatus(t, rooms, roomID))
}

func TestScenario_UnknownRoomJoin(t *testing.T) {
	rooms, _ := newCoordinator(t, &fakeStarter{})
	_, err := rooms.JoinRoom(alice, "does-not-exist")
	assert.Equal(t, "room_not_found", model.CodeOf(err))
}
