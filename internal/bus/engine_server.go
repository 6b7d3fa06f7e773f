package bus

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"typerace/internal/model"
	"typerace/internal/service"

	"github.com/nats-io/nats.go"
)

// ServeEngine answers race.start requests with the engine. Subscribers share
// the engine queue group so each request is handled once.
func ServeEngine(conn *nats.Conn, engine service.RaceStarter, timeout time.Duration, logger *slog.Logger) (*nats.Subscription, error) {
	return conn.QueueSubscribe(SubjectRaceStart, QueueEngine, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		reply := HandleStartRequest(ctx, engine, msg.Data, logger)
		data, err := json.Marshal(reply)
		if err != nil {
			logger.Error("failed to encode start reply", "error", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Warn("failed to respond to race.start", "error", err)
		}
	})
}

// HandleStartRequest decodes a race.start payload and runs it on the engine
func HandleStartRequest(ctx context.Context, engine service.RaceStarter, data []byte, logger *slog.Logger) model.StartSessionReply {
	var req model.StartSessionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Warn("invalid race.start payload", "error", err)
		return model.StartSessionReply{Error: model.ErrInvalidRequest.Code}
	}

	info, err := engine.StartRace(ctx, req.RoomID, req.Players)
	if err != nil {
		logger.Error("failed to start race", "room_id", req.RoomID, "error", err)
		return model.StartSessionReply{Error: model.CodeOf(err)}
	}
	return model.StartSessionReply{Race: info}
}

// Publisher is the publish half of a NATS connection
type Publisher interface {
	Publish(subj string, data []byte) error
}

// FinishPublisher announces completed races on race.finished
type FinishPublisher struct {
	conn Publisher
}

func NewFinishPublisher(conn Publisher) *FinishPublisher {
	return &FinishPublisher{conn: conn}
}

func (p *FinishPublisher) RaceFinished(_ context.Context, notice model.RaceFinishedNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectRaceFinished, data)
}

// SubscribeFinished calls onFinished for every race.finished notice
func SubscribeFinished(conn *nats.Conn, onFinished func(roomID string), logger *slog.Logger) (*nats.Subscription, error) {
	return conn.Subscribe(SubjectRaceFinished, FinishedHandler(onFinished, logger))
}

func FinishedHandler(onFinished func(roomID string), logger *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var notice model.RaceFinishedNotice
		if err := json.Unmarshal(msg.Data, &notice); err != nil || notice.RoomID == "" {
			logger.Warn("invalid race.finished payload", "error", err)
			return
		}
		onFinished(notice.RoomID)
	}
}

// DeparturePublisher reports mid-race departures on race.left
type DeparturePublisher struct {
	conn Publisher
}

func NewDeparturePublisher(conn Publisher) *DeparturePublisher {
	return &DeparturePublisher{conn: conn}
}

func (p *DeparturePublisher) PlayerLeft(_ context.Context, notice model.PlayerLeftNotice) error {
	data, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	return p.conn.Publish(SubjectRaceLeft, data)
}

// SubscribeLeft calls onLeft for every race.left notice. Every engine
// instance receives it; only the one holding the session acts.
func SubscribeLeft(conn *nats.Conn, onLeft func(ctx context.Context, roomID, userID string), logger *slog.Logger) (*nats.Subscription, error) {
	return conn.Subscribe(SubjectRaceLeft, LeftHandler(onLeft, logger))
}

func LeftHandler(onLeft func(ctx context.Context, roomID, userID string), logger *slog.Logger) nats.MsgHandler {
	return func(msg *nats.Msg) {
		var notice model.PlayerLeftNotice
		if err := json.Unmarshal(msg.Data, &notice); err != nil || notice.RoomID == "" || notice.UserID == "" {
			logger.Warn("invalid race.left payload", "error", err)
			return
		}
		onLeft(context.Background(), notice.RoomID, notice.UserID)
	}
}
