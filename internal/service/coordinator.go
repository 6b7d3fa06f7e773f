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

// RaceStarter asks the race engine to open a session for a room
type RaceStarter interface {
	StartRace(ctx context.Context, roomID string, players []model.Participant) (*model.RaceInfo, error)
}

// DepartureNotifier tells the race engine a racer left an in-progress room
type DepartureNotifier interface {
	PlayerLeft(ctx context.Context, notice model.PlayerLeftNotice) error
}

// RoomCoordinator owns room membership and the countdown state machine.
// Every store access happens under mu; broadcasts are issued before mu is
// released so members see events in mutation order.
type RoomCoordinator struct {
	mu         sync.Mutex
	rooms      *store.RoomStore
	countdowns map[string]*countdown
	nextGen    uint64

	engine     RaceStarter
	departures DepartureNotifier
	hub        Broadcaster
	cfg        config.RoomConfig
	logger     *slog.Logger
	now        func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRoomCoordinator creates a coordinator with an empty room store
func NewRoomCoordinator(cfg config.RoomConfig, engine RaceStarter, hub Broadcaster, logger *slog.Logger) *RoomCoordinator {
	ctx, cancel := context.WithCancel(context.Background())
	return &RoomCoordinator{
		rooms:      store.NewRoomStore(),
		countdowns: make(map[string]*countdown),
		engine:     engine,
		hub:        hub,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// SetDepartureNotifier forwards mid-race departures to n. Call before serving.
func (c *RoomCoordinator) SetDepartureNotifier(n DepartureNotifier) {
	c.departures = n
}

// CreateRoom opens a waiting room with the caller as host.
// maxPlayers of zero selects the configured default.
func (c *RoomCoordinator) CreateRoom(caller Caller, maxPlayers int) (*model.RoomResponse, error) {
	if maxPlayers == 0 {
		maxPlayers = c.cfg.DefaultMaxPlayers
	}
	if maxPlayers < 1 || maxPlayers > c.cfg.MaxPlayersLimit {
		return nil, model.Invalid(fmt.Sprintf("maxPlayers must be between 1 and %d", c.cfg.MaxPlayersLimit))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room := c.rooms.Create(caller.ConnID, caller.UserID, caller.Username, maxPlayers)
	c.hub.Join(room.ID, caller.ConnID)
	c.hub.BroadcastToGroup(room.ID, model.EventRoomState, room.State())

	c.logger.Info("room created", "room_id", room.ID, "user_id", caller.UserID, "max_players", maxPlayers)
	return &model.RoomResponse{RoomID: room.ID}, nil
}

// JoinRoom adds the caller to a waiting room
func (c *RoomCoordinator) JoinRoom(caller Caller, roomID string) (*model.RoomResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	if _, member := room.Players[caller.ConnID]; member {
		c.hub.Join(room.ID, caller.ConnID)
		return &model.RoomResponse{RoomID: room.ID}, nil
	}
	if room.Status != model.RoomWaiting {
		return nil, fmt.Errorf("join room %s while %s: %w", roomID, room.Status, model.ErrInvalidRoomState)
	}

	room, err = c.rooms.Join(roomID, caller.ConnID, caller.UserID, caller.Username)
	if err != nil {
		return nil, err
	}

	c.hub.Join(room.ID, caller.ConnID)
	c.hub.BroadcastToGroup(room.ID, model.EventPlayerJoined, model.PlayerJoinedPayload{
		RoomID:   room.ID,
		UserID:   caller.UserID,
		Username: caller.Username,
	})
	c.hub.BroadcastToGroup(room.ID, model.EventRoomState, room.State())

	c.logger.Info("player joined room", "room_id", room.ID, "user_id", caller.UserID, "players", room.PlayerCount())
	return &model.RoomResponse{RoomID: room.ID}, nil
}

// LeaveRoom removes the caller's connection. Unknown rooms and non-members
// are acknowledged without error.
func (c *RoomCoordinator) LeaveRoom(caller Caller, roomID string) error {
	c.mu.Lock()
	departed := c.leaveLocked(caller.ConnID, roomID)
	c.mu.Unlock()

	c.notifyDepartures(departed)
	return nil
}

// Disconnect leaves every room the connection belongs to
func (c *RoomCoordinator) Disconnect(connID string) {
	var departed []*model.PlayerLeftNotice

	c.mu.Lock()
	for _, roomID := range c.rooms.RoomsOf(connID) {
		departed = append(departed, c.leaveLocked(connID, roomID))
	}
	c.mu.Unlock()

	c.notifyDepartures(departed...)
}

// leaveLocked removes the membership and returns a notice when the user left
// a race still in progress
func (c *RoomCoordinator) leaveLocked(connID, roomID string) *model.PlayerLeftNotice {
	c.hub.Leave(roomID, connID)

	res, err := c.rooms.Leave(roomID, connID)
	if err != nil || res.Player == nil {
		return nil
	}

	var departed *model.PlayerLeftNotice
	if res.Room.Status == model.RoomInProgress && !res.Room.HasUser(res.Player.UserID) {
		departed = &model.PlayerLeftNotice{RoomID: roomID, UserID: res.Player.UserID}
	}

	if res.Deleted {
		c.stopCountdownLocked(roomID)
		c.logger.Info("room deleted", "room_id", roomID)
		return departed
	}

	room := res.Room
	c.hub.BroadcastToGroup(roomID, model.EventPlayerLeft, model.PlayerLeftPayload{
		RoomID:     roomID,
		UserID:     res.Player.UserID,
		Username:   res.Player.Username,
		HostUserID: room.HostUserID,
	})
	if res.HostChanged {
		c.logger.Info("host transferred", "room_id", roomID, "host_user_id", room.HostUserID)
	}

	if cd, ok := c.countdowns[roomID]; ok && room.Status == model.RoomCountdown {
		if room.PlayerCount() < min(c.cfg.MinPlayers, cd.startPlayers) {
			c.stopCountdownLocked(roomID)
			room.Status = model.RoomWaiting
			c.hub.BroadcastToGroup(roomID, model.EventCountdownCancelled, model.ReasonPayload{
				RoomID: roomID,
				Reason: "not_enough_players",
			})
			c.logger.Info("countdown cancelled", "room_id", roomID, "players", room.PlayerCount())
		}
	}

	c.hub.BroadcastToGroup(roomID, model.EventRoomState, room.State())
	return departed
}

// notifyDepartures runs without mu held; an in-process engine may call back
// into MarkFinished.
func (c *RoomCoordinator) notifyDepartures(notices ...*model.PlayerLeftNotice) {
	if c.departures == nil {
		return
	}
	for _, n := range notices {
		if n == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(c.ctx, sideEffectTimeout)
		if err := c.departures.PlayerLeft(ctx, *n); err != nil {
			c.logger.Warn("failed to report departure", "room_id", n.RoomID, "user_id", n.UserID, "error", err)
		}
		cancel()
	}
}

// StartRace begins the countdown. Only the host may start, and only from
// waiting. countdownSeconds of zero selects the configured default.
func (c *RoomCoordinator) StartRace(caller Caller, roomID string, countdownSeconds int) error {
	if countdownSeconds == 0 {
		countdownSeconds = c.cfg.DefaultCountdown
	}
	if countdownSeconds < 1 || countdownSeconds > c.cfg.MaxCountdown {
		return model.Invalid(fmt.Sprintf("countdownSeconds must be between 1 and %d", c.cfg.MaxCountdown))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.rooms.Get(roomID)
	if err != nil {
		return err
	}
	if room.HostUserID != caller.UserID {
		return fmt.Errorf("start room %s by %s: %w", roomID, caller.UserID, model.ErrOnlyHostCanStart)
	}
	if room.Status != model.RoomWaiting {
		return fmt.Errorf("start room %s while %s: %w", roomID, room.Status, model.ErrInvalidRoomState)
	}

	room.Status = model.RoomCountdown
	c.hub.BroadcastToGroup(roomID, model.EventCountdownStart, model.CountdownStartPayload{
		RoomID:  roomID,
		Seconds: countdownSeconds,
	})
	c.startCountdownLocked(roomID, countdownSeconds, room.PlayerCount())

	c.logger.Info("countdown started", "room_id", roomID, "seconds", countdownSeconds, "players", room.PlayerCount())
	return nil
}

// MarkFinished moves an in-progress room to finished once its race is over
func (c *RoomCoordinator) MarkFinished(roomID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.rooms.Get(roomID)
	if err != nil || room.Status != model.RoomInProgress {
		return
	}
	room.Status = model.RoomFinished
	c.hub.BroadcastToGroup(roomID, model.EventRoomState, room.State())
	c.logger.Info("room finished", "room_id", roomID)
}

func (c *RoomCoordinator) GetRoomState(roomID string) (*model.RoomState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	room, err := c.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	state := room.State()
	return &state, nil
}

// ListRooms returns the rooms still open for joining
func (c *RoomCoordinator) ListRooms() []model.RoomSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.rooms.List(model.RoomWaiting)
}

// Stop cancels every running countdown and waits for them to exit
func (c *RoomCoordinator) Stop() {
	c.mu.Lock()
	for roomID := range c.countdowns {
		c.stopCountdownLocked(roomID)
	}
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}
