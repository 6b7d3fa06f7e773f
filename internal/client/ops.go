package client

import (
	"context"

	"typerace/internal/model"
	"typerace/internal/transport/ws"
)

// Rooms wraps a connection to the room coordinator
type Rooms struct {
	*Conn
}

func (r Rooms) CreateRoom(ctx context.Context, maxPlayers int) (string, error) {
	var resp model.RoomResponse
	if err := r.Call(ctx, ws.OpCreateRoom, model.CreateRoomRequest{MaxPlayers: maxPlayers}, &resp); err != nil {
		return "", err
	}
	return resp.RoomID, nil
}

func (r Rooms) JoinRoom(ctx context.Context, roomID string) error {
	return r.Call(ctx, ws.OpJoinRoom, model.RoomRequest{RoomID: roomID}, nil)
}

func (r Rooms) LeaveRoom(ctx context.Context, roomID string) error {
	return r.Call(ctx, ws.OpLeaveRoom, model.RoomRequest{RoomID: roomID}, nil)
}

// StartRace asks to begin the countdown; zero seconds uses the server default
func (r Rooms) StartRace(ctx context.Context, roomID string, countdownSeconds int) error {
	return r.Call(ctx, ws.OpStartRace, model.StartRaceRequest{RoomID: roomID, CountdownSeconds: countdownSeconds}, nil)
}

func (r Rooms) GetRoomState(ctx context.Context, roomID string) (*model.RoomState, error) {
	var state model.RoomState
	if err := r.Call(ctx, ws.OpGetRoomState, model.RoomRequest{RoomID: roomID}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r Rooms) ListRooms(ctx context.Context) ([]model.RoomSummary, error) {
	var rooms []model.RoomSummary
	if err := r.Call(ctx, ws.OpGetRooms, nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Race wraps a connection to the race engine
type Race struct {
	*Conn
}

// JoinRace subscribes to the room's race. model.ErrRaceNotFound means the
// race has not started yet; the subscription still holds.
func (r Race) JoinRace(ctx context.Context, roomID string) (*model.RaceInfo, error) {
	var info model.RaceInfo
	if err := r.Call(ctx, ws.OpJoinRace, model.RoomRequest{RoomID: roomID}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (r Race) UpdateProgress(ctx context.Context, upd model.ProgressUpdate) error {
	return r.Call(ctx, ws.OpUpdateProgress, upd, nil)
}

func (r Race) GetRaceState(ctx context.Context, roomID string) (*model.RaceState, error) {
	var state model.RaceState
	if err := r.Call(ctx, ws.OpGetRaceState, model.RoomRequest{RoomID: roomID}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r Race) GetResults(ctx context.Context, roomID string) ([]model.RaceResult, error) {
	var results []model.RaceResult
	if err := r.Call(ctx, ws.OpGetResults, model.RoomRequest{RoomID: roomID}, &results); err != nil {
		return nil, err
	}
	return results, nil
}
