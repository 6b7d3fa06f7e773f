package ws

import (
	"context"
	"encoding/json"

	"typerace/internal/model"
	"typerace/internal/service"
)

// Race engine operations
const (
	OpJoinRace       = "join_race"
	OpUpdateProgress = "update_progress"
	OpGetRaceState   = "get_race_state"
	OpGetResults     = "get_results"
)

// RaceDispatcher routes engine socket requests to the race engine
type RaceDispatcher struct {
	engine *service.RaceEngine
}

func NewRaceDispatcher(engine *service.RaceEngine) *RaceDispatcher {
	return &RaceDispatcher{engine: engine}
}

func (d *RaceDispatcher) Dispatch(ctx context.Context, client *Client, op string, payload json.RawMessage) (interface{}, error) {
	switch op {
	case OpJoinRace:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return d.engine.JoinRace(client.Caller(), req.RoomID)

	case OpUpdateProgress:
		upd, err := decodePayload[model.ProgressUpdate](payload)
		if err != nil {
			return nil, err
		}
		if upd.RoomID == "" {
			return nil, model.Invalid("roomId is required")
		}
		return nil, d.engine.UpdateProgress(ctx, client.Caller(), upd)

	case OpGetRaceState:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return d.engine.GetRaceState(req.RoomID)

	case OpGetResults:
		req, err := decodeRoomRequest(payload)
		if err != nil {
			return nil, err
		}
		return d.engine.GetResults(ctx, req.RoomID)

	default:
		return nil, model.ErrUnknownOperation
	}
}

// Disconnect is a no-op: the hub drops the client's race subscriptions itself
func (d *RaceDispatcher) Disconnect(*Client) {}
