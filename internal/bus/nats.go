package bus

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

const (
	// SubjectRaceStart carries coordinator requests to open a race session
	SubjectRaceStart = "race.start"
	// SubjectRaceFinished announces completed races
	SubjectRaceFinished = "race.finished"
	// SubjectRaceLeft reports racers leaving a room mid-race
	SubjectRaceLeft = "race.left"
	// QueueEngine load-balances race.start across engine instances
	QueueEngine = "engine"
)

// Connect dials NATS and keeps reconnecting for the life of the process
func Connect(url, name string, logger *slog.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(
		url,
		nats.Name(name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}
