package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"typerace/internal/model"
	"typerace/internal/transport/rest/middleware"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Dispatcher executes client requests for one service
type Dispatcher interface {
	Dispatch(ctx context.Context, client *Client, op string, payload json.RawMessage) (interface{}, error)
	// Disconnect runs after the connection's read loop ends
	Disconnect(client *Client)
}

// Handler upgrades authenticated requests and pumps frames between the
// socket and the hub
type Handler struct {
	hub        *Hub
	auth       middleware.TokenValidator
	dispatcher Dispatcher
	logger     *slog.Logger
}

func NewHandler(hub *Hub, auth middleware.TokenValidator, dispatcher Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		auth:       auth,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// ServeWS handles GET /ws. The token comes from the Authorization header or
// the token query parameter; without a valid one the upgrade is refused.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := middleware.ExtractToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{
		ID:       uuid.NewString(),
		UserID:   claims.ID,
		Username: claims.Username,
		Send:     make(chan []byte, sendBufferSize),
	}
	h.hub.Register(client)

	h.logger.Info("client connected", "conn_id", client.ID, "user_id", client.UserID)

	go h.writePump(wsConn, client)
	go h.readPump(wsConn, client)
}

func (h *Handler) readPump(wsConn *websocket.Conn, client *Client) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.dispatcher.Disconnect(client)
		h.hub.Unregister(client)
		wsConn.Close()
		h.logger.Info("client disconnected", "conn_id", client.ID, "user_id", client.UserID)
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket read error", "conn_id", client.ID, "error", err)
			}
			return
		}
		h.handleFrame(ctx, client, data)
	}
}

func (h *Handler) handleFrame(ctx context.Context, client *Client, data []byte) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil || req.Op == "" {
		h.hub.Respond(client.ID, req.ID, nil, model.ErrInvalidRequest.Code)
		return
	}

	result, err := h.dispatcher.Dispatch(ctx, client, req.Op, req.Payload)
	if err != nil {
		code := model.CodeOf(err)
		if code == model.ErrInternal.Code {
			h.logger.Error("request failed", "conn_id", client.ID, "op", req.Op, "error", err)
		} else {
			h.logger.Debug("request rejected", "conn_id", client.ID, "op", req.Op, "code", code)
		}
		h.hub.Respond(client.ID, req.ID, nil, code)
		return
	}
	h.hub.Respond(client.ID, req.ID, result, "")
}

func (h *Handler) writePump(wsConn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// decodePayload unmarshals a request payload; an empty payload yields the zero value
func decodePayload[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 || string(payload) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, model.Invalid("malformed payload: " + err.Error())
	}
	return v, nil
}
