package bus_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"typerace/internal/bus"
	"typerace/internal/logging"
	"typerace/internal/model"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStarter struct {
	roomID  string
	players []model.Participant
	err     error
}

func (f *fakeStarter) StartRace(_ context.Context, roomID string, players []model.Participant) (*model.RaceInfo, error) {
	f.roomID = roomID
	f.players = players
	if f.err != nil {
		return nil, f.err
	}
	return &model.RaceInfo{RoomID: roomID, Text: "typing text", StartedAt: time.Unix(10, 0).UTC()}, nil
}

func TestHandleStartRequest(t *testing.T) {
	logger := logging.Discard()

	t.Run("starts race", func(t *testing.T) {
		engine := &fakeStarter{}
		data := mustJSON(t, model.StartSessionRequest{
			RoomID:  "r1",
			Players: []model.Participant{{UserID: "u1", Username: "alice"}},
		})

		reply := bus.HandleStartRequest(context.Background(), engine, data, logger)
		require.NotNil(t, reply.Race)
		assert.Empty(t, reply.Error)
		assert.Equal(t, "typing text", reply.Race.Text)
		assert.Equal(t, "r1", engine.roomID)
		assert.Len(t, engine.players, 1)
	})

	t.Run("bad payload", func(t *testing.T) {
		reply := bus.HandleStartRequest(context.Background(), &fakeStarter{}, []byte("{"), logger)
		assert.Nil(t, reply.Race)
		assert.Equal(t, "invalid_request", reply.Error)
	})

	t.Run("engine error", func(t *testing.T) {
		engine := &fakeStarter{err: errors.New("boom")}
		reply := bus.HandleStartRequest(context.Background(), engine, mustJSON(t, model.StartSessionRequest{RoomID: "r1"}), logger)
		assert.Equal(t, "internal", reply.Error)
	})
}

type fakePublisher struct {
	subject string
	data    []byte
}

func (f *fakePublisher) Publish(subj string, data []byte) error {
	f.subject = subj
	f.data = data
	return nil
}

func TestFinishPublisherAndHandler(t *testing.T) {
	pub := &fakePublisher{}
	notice := model.RaceFinishedNotice{RoomID: "r1", FinishedAt: time.Unix(20, 0).UTC()}

	require.NoError(t, bus.NewFinishPublisher(pub).RaceFinished(context.Background(), notice))
	assert.Equal(t, bus.SubjectRaceFinished, pub.subject)

	var got model.RaceFinishedNotice
	require.NoError(t, json.Unmarshal(pub.data, &got))
	assert.Equal(t, notice, got)

	var finished []string
	handler := bus.FinishedHandler(func(roomID string) { finished = append(finished, roomID) }, logging.Discard())
	handler(&nats.Msg{Data: pub.data})
	handler(&nats.Msg{Data: []byte("junk")})
	handler(&nats.Msg{Data: []byte(`{"finishedAt":"2026-01-01T00:00:00Z"}`)})

	assert.Equal(t, []string{"r1"}, finished)
}

func TestDeparturePublisherAndHandler(t *testing.T) {
	pub := &fakePublisher{}
	notice := model.PlayerLeftNotice{RoomID: "r1", UserID: "u1"}

	require.NoError(t, bus.NewDeparturePublisher(pub).PlayerLeft(context.Background(), notice))
	assert.Equal(t, bus.SubjectRaceLeft, pub.subject)

	var left [][2]string
	handler := bus.LeftHandler(func(_ context.Context, roomID, userID string) {
		left = append(left, [2]string{roomID, userID})
	}, logging.Discard())
	handler(&nats.Msg{Data: pub.data})
	handler(&nats.Msg{Data: []byte("junk")})
	handler(&nats.Msg{Data: []byte(`{"roomId":"r1"}`)})

	assert.Equal(t, [][2]string{{"r1", "u1"}}, left)
}
