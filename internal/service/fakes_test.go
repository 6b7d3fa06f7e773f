package service_test

import (
	"context"
	"sync"
	"time"

	"typerace/internal/config"
	"typerace/internal/model"
)

type sentEvent struct {
	Group   string
	Type    string
	Payload interface{}
}

// fakeHub records every broadcast and group change
type fakeHub struct {
	mu     sync.Mutex
	events []sentEvent
	groups map[string]map[string]bool
}

func newFakeHub() *fakeHub {
	return &fakeHub{groups: make(map[string]map[string]bool)}
}

func (h *fakeHub) Join(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]bool)
	}
	h.groups[group][connID] = true
}

func (h *fakeHub) Leave(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.groups[group], connID)
}

func (h *fakeHub) BroadcastToGroup(group string, msgType string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, sentEvent{Group: group, Type: msgType, Payload: payload})
}

func (h *fakeHub) inGroup(group, connID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.groups[group][connID]
}

func (h *fakeHub) ofType(msgType string) []sentEvent {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []sentEvent
	for _, e := range h.events {
		if e.Type == msgType {
			out = append(out, e)
		}
	}
	return out
}

func (h *fakeHub) types() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.events))
	for _, e := range h.events {
		out = append(out, e.Type)
	}
	return out
}

func (h *fakeHub) count(msgType string) int {
	return len(h.ofType(msgType))
}

// recordingDepartures collects departure notices from the coordinator
type recordingDepartures struct {
	mu      sync.Mutex
	notices []model.PlayerLeftNotice
}

func (r *recordingDepartures) PlayerLeft(_ context.Context, notice model.PlayerLeftNotice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, notice)
	return nil
}

func (r *recordingDepartures) all() []model.PlayerLeftNotice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.PlayerLeftNotice(nil), r.notices...)
}

// fakeStarter stands in for the engine client
type fakeStarter struct {
	mu    sync.Mutex
	calls []model.StartSessionRequest
	err   error
	delay time.Duration
}

func (f *fakeStarter) StartRace(ctx context.Context, roomID string, players []model.Participant) (*model.RaceInfo, error) {
	f.mu.Lock()
	f.calls = append(f.calls, model.StartSessionRequest{RoomID: roomID, Players: players})
	err, delay := f.err, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &model.RaceInfo{RoomID: roomID, Text: "text", StartedAt: time.Now()}, nil
}

func (f *fakeStarter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeStarter) call(i int) model.StartSessionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func testRoomConfig() config.RoomConfig {
	return config.RoomConfig{
		DefaultMaxPlayers: 2,
		MaxPlayersLimit:   8,
		DefaultCountdown:  3,
		MaxCountdown:      30,
		MinPlayers:        2,
		TickInterval:      10 * time.Millisecond,
		EngineTimeout:     200 * time.Millisecond,
	}
}

func testRaceConfig() config.RaceConfig {
	return config.RaceConfig{
		SessionTTL:    10 * time.Minute,
		MaxSessionAge: 30 * time.Minute,
		SweepInterval: time.Minute,
		ResultsTTL:    time.Hour,
	}
}
