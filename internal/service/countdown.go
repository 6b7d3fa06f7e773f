package service

import (
	"context"
	"time"

	"typerace/internal/model"
)

// countdown tracks one room's running timer. gen distinguishes a timer from
// a later one started for the same room.
type countdown struct {
	gen          uint64
	cancel       context.CancelFunc
	startPlayers int
}

func (c *RoomCoordinator) startCountdownLocked(roomID string, seconds, players int) {
	c.stopCountdownLocked(roomID)

	c.nextGen++
	ctx, cancel := context.WithCancel(c.ctx)
	cd := &countdown{gen: c.nextGen, cancel: cancel, startPlayers: players}
	c.countdowns[roomID] = cd

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCountdown(ctx, roomID, cd.gen, seconds)
	}()
}

func (c *RoomCoordinator) stopCountdownLocked(roomID string) {
	if cd, ok := c.countdowns[roomID]; ok {
		cd.cancel()
		delete(c.countdowns, roomID)
	}
}

func (c *RoomCoordinator) runCountdown(ctx context.Context, roomID string, gen uint64, seconds int) {
	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	left := seconds
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		left--
		players, launch, done := c.tick(roomID, gen, left)
		if launch {
			c.launchRace(roomID, players)
		}
		if done {
			return
		}
	}
}

// tick applies one countdown step. It reports the roster to hand to the
// engine when the countdown reaches zero, and whether the timer is finished.
func (c *RoomCoordinator) tick(roomID string, gen uint64, left int) ([]model.Participant, bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cd, ok := c.countdowns[roomID]
	if !ok || cd.gen != gen {
		return nil, false, true
	}
	room, err := c.rooms.Get(roomID)
	if err != nil || room.Status != model.RoomCountdown {
		c.stopCountdownLocked(roomID)
		return nil, false, true
	}

	if left > 0 {
		c.hub.BroadcastToGroup(roomID, model.EventCountdownTick, model.CountdownTickPayload{
			RoomID:      roomID,
			SecondsLeft: left,
		})
		return nil, false, false
	}

	c.stopCountdownLocked(roomID)
	room.Status = model.RoomInProgress
	c.hub.BroadcastToGroup(roomID, model.EventRaceStart, model.RaceStartPayload{
		RoomID:    roomID,
		StartedAt: c.now(),
	})
	c.hub.BroadcastToGroup(roomID, model.EventRoomState, room.State())
	return room.Participants(), true, true
}

// launchRace calls the engine outside the lock. On failure the room returns
// to waiting so the host can try again.
func (c *RoomCoordinator) launchRace(roomID string, players []model.Participant) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.EngineTimeout)
	defer cancel()

	info, err := c.engine.StartRace(ctx, roomID, players)
	if err == nil {
		c.logger.Info("race started", "room_id", roomID, "players", len(players), "started_at", info.StartedAt)
		return
	}

	c.logger.Error("engine failed to start race", "room_id", roomID, "error", err)

	c.mu.Lock()
	defer c.mu.Unlock()

	room, getErr := c.rooms.Get(roomID)
	if getErr != nil || room.Status != model.RoomInProgress {
		return
	}
	room.Status = model.RoomWaiting
	c.hub.BroadcastToGroup(roomID, model.EventRaceStartFailed, model.ReasonPayload{
		RoomID: roomID,
		Reason: model.CodeOf(err),
	})
	c.hub.BroadcastToGroup(roomID, model.EventRoomState, room.State())
}
