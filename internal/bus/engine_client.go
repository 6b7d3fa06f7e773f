package bus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"typerace/internal/model"

	"github.com/nats-io/nats.go"
)

// Requester is the request/reply half of a NATS connection
type Requester interface {
	RequestWithContext(ctx context.Context, subj string, data []byte) (*nats.Msg, error)
}

// EngineClient asks the race engine to open sessions over NATS
type EngineClient struct {
	conn    Requester
	timeout time.Duration
}

func NewEngineClient(conn Requester, timeout time.Duration) *EngineClient {
	return &EngineClient{conn: conn, timeout: timeout}
}

// StartRace sends race.start and waits for the engine's reply. Transport
// failures, timeouts and engine-side errors all surface as engine_unavailable.
func (c *EngineClient) StartRace(ctx context.Context, roomID string, players []model.Participant) (*model.RaceInfo, error) {
	data, err := json.Marshal(model.StartSessionRequest{RoomID: roomID, Players: players})
	if err != nil {
		return nil, fmt.Errorf("encode start request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	msg, err := c.conn.RequestWithContext(ctx, SubjectRaceStart, data)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return nil, fmt.Errorf("start race %s: no engine listening: %w", roomID, model.ErrEngineUnavailable)
		}
		return nil, fmt.Errorf("start race %s: %w: %w", roomID, model.ErrEngineUnavailable, err)
	}

	var reply model.StartSessionReply
	if err := json.Unmarshal(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("decode engine reply: %w: %w", model.ErrEngineUnavailable, err)
	}
	if reply.Error != "" || reply.Race == nil {
		return nil, fmt.Errorf("engine rejected race %s with %q: %w", roomID, reply.Error, model.ErrEngineUnavailable)
	}
	return reply.Race, nil
}
