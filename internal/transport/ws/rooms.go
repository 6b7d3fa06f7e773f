package ws

import (
	"context"
	"encoding/json"

	"typerace/internal/model"
	"typerace/internal/service"
)

// Room coordinator operations
const (
	OpCreateRoom   = "create_room"
	OpJoinRoom     = "join_room"
	OpLeaveRoom    = "leave_room"
	OpStartRace    = "start_race"
	OpGetRoomState = "get_room_state"
	OpGetRooms     = "get_rooms"
)

// RoomDispatcher routes room socket requests to the coordinator
type RoomDispatcher struct {
	rooms *service.RoomCoordinator
}

func NewRoomDispatcher(rooms *service.RoomCoordinator) *RoomDispatcher {
	return &RoomDispatcher{rooms: rooms}
}

func (d *RoomDispatcher) Dispatch(_ context.Context, client *Client, op string, payload json.RawMessage) (interface{}, error) {
	caller := client.Caller()

	switch op {
	case OpCreateRoom:
		req, err := decodePayload[model.CreateRoomRequest](payload)
		if err != nil {
			return nil, err
		}
		return d.rooms.CreateRoom(caller, req.MaxPlayers)

	case OpJoinRoom:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return d.rooms.JoinRoom(caller, req.RoomID)

	case OpLeaveRoom:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return nil, d.rooms.LeaveRoom(caller, req.RoomID)

	case OpStartRace:
		req, err := decodePayload[model.StartRaceRequest](payload)
		if err != nil {
			return nil, err
		}
		if req.RoomID == "" {
			return nil, model.Invalid("roomId is required")
		}
		return nil, d.rooms.StartRace(caller, req.RoomID, req.CountdownSeconds)

	case OpGetRoomState:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return d.rooms.GetRoomState(req.RoomID)

	case OpGetRooms:
		return d.rooms.ListRooms(), nil

	default:
		return nil, model.ErrUnknownOperation
	}
}

func (d *RoomDispatcher) Disconnect(client *Client) {
	d.rooms.Disconnect(client.ID)
}

func decodeRoomRequest(payload json.RawMessage) (model.RoomRequest, error) {
	req, err := decodePayload[model.RoomRequest](payload)
	if err != nil {
		return req, err
	}
	if req.RoomID == "" {
		return req, model.Invalid("roomId is required")
	}
	return req, nil
}
