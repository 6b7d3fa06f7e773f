// Package client talks to the typerace services from a terminal or a bot:
// HTTP for accounts, one WebSocket per service for rooms and races.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"typerace/internal/model"
	"typerace/internal/transport/ws"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	eventBuffer = 256
)

// ErrClosed is returned by calls on a connection that has shut down
var ErrClosed = errors.New("connection closed")

// Event is a server-pushed frame
type Event struct {
	Type    string
	Payload json.RawMessage
}

// Decode unmarshals the event payload into v
func (e Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// Conn is a request/response WebSocket session. Responses are matched to
// calls by request id; everything else is delivered on Events.
type Conn struct {
	ws *websocket.Conn

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]chan ws.Message
	err     error

	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// Dial opens an authenticated socket to url
func Dial(ctx context.Context, url, token string, logger *slog.Logger) (*Conn, error) {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	wsConn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: %w", url, model.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}

	c := &Conn{
		ws:      wsConn,
		pending: make(map[string]chan ws.Message),
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go c.readLoop()
	return c, nil
}

// Events delivers server events in arrival order. It is closed when the
// connection ends.
func (c *Conn) Events() <-chan Event {
	return c.events
}

// Done is closed when the connection ends
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection ended
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Call sends op and waits for its response. A non-empty error code is
// returned as the matching model error; out may be nil for acks.
func (c *Conn) Call(ctx context.Context, op string, payload, out interface{}) error {
	req := ws.Request{ID: uuid.NewString(), Op: op}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", op, err)
		}
		req.Payload = raw
	}

	reply := make(chan ws.Message, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return ErrClosed
	}
	c.pending[req.ID] = reply
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.ID)
		c.mu.Unlock()
	}()

	if err := c.write(req); err != nil {
		return fmt.Errorf("send %s: %w", op, err)
	}

	select {
	case msg := <-reply:
		if msg.Error != "" {
			return fmt.Errorf("%s: %w", op, model.FromCode(msg.Error))
		}
		if out != nil && len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, out); err != nil {
				return fmt.Errorf("decode %s result: %w", op, err)
			}
		}
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) write(req ws.Request) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(req)
}

// Close shuts the socket down and fails pending calls
func (c *Conn) Close() error {
	c.writeMu.Lock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.ws.Close()
	c.finish(ErrClosed)
	return err
}

func (c *Conn) readLoop() {
	defer close(c.events)

	for {
		var msg ws.Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("socket read failed", "error", err)
			}
			c.finish(err)
			return
		}

		if msg.Type == ws.MessageTypeResponse {
			c.mu.Lock()
			reply, ok := c.pending[msg.ID]
			c.mu.Unlock()
			if ok {
				reply <- msg
			} else {
				c.logger.Debug("response without caller", "id", msg.ID, "error", msg.Error)
			}
			continue
		}

		select {
		case c.events <- Event{Type: msg.Type, Payload: msg.Payload}:
		case <-c.done:
			return
		}
	}
}

func (c *Conn) finish(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	})
}
