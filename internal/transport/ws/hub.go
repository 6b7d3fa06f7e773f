package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"typerace/internal/service"
)

// MessageTypeResponse marks replies to client requests; every other type is an event
const MessageTypeResponse = "response"

// Message is the server to client envelope. Events carry Type and Payload;
// responses also carry the request ID and, on failure, an error code.
type Message struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Request is the client to server envelope
type Request struct {
	ID      string          `json:"id"`
	Op      string          `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client is one authenticated WebSocket connection
type Client struct {
	ID       string
	UserID   string
	Username string
	Send     chan []byte

	closeOnce sync.Once
}

func (c *Client) Caller() service.Caller {
	return service.Caller{ConnID: c.ID, UserID: c.UserID, Username: c.Username}
}

// Hub tracks connections and the groups (rooms) they are subscribed to.
// Delivery never blocks: a client whose buffer is full is disconnected.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	groups  map[string]map[string]*Client // group -> connID -> client
	logger  *slog.Logger
}

var _ service.Broadcaster = (*Hub)(nil)

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.logger.Debug("client registered", "conn_id", c.ID, "user_id", c.UserID)
}

// Unregister drops the client from every group and closes its send buffer
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if existing, ok := h.clients[c.ID]; !ok || existing != c {
		return
	}
	delete(h.clients, c.ID)
	for group, members := range h.groups {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
	c.closeOnce.Do(func() { close(c.Send) })
	h.logger.Debug("client unregistered", "conn_id", c.ID)
}

// Join subscribes a registered connection to a group
func (h *Hub) Join(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[connID]
	if !ok {
		return
	}
	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*Client)
	}
	h.groups[group][connID] = c
}

func (h *Hub) Leave(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.groups[group]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.groups, group)
		}
	}
}

// GroupSize reports how many connections are subscribed to group
func (h *Hub) GroupSize(group string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[group])
}

func (h *Hub) BroadcastToGroup(group string, msgType string, payload interface{}) {
	data, err := encode(Message{Type: msgType}, payload)
	if err != nil {
		h.logger.Error("failed to encode event", "type", msgType, "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.groups[group] {
		h.deliverLocked(c, data)
	}
}

// Respond sends the reply to one client request
func (h *Hub) Respond(connID, requestID string, payload interface{}, code string) {
	data, err := encode(Message{Type: MessageTypeResponse, ID: requestID, Error: code}, payload)
	if err != nil {
		h.logger.Error("failed to encode response", "request_id", requestID, "error", err)
		return
	}
	h.sendRaw(connID, data)
}

func (h *Hub) sendRaw(connID string, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[connID]; ok {
		h.deliverLocked(c, data)
	}
}

func (h *Hub) deliverLocked(c *Client, data []byte) {
	select {
	case c.Send <- data:
	default:
		h.logger.Warn("send buffer full, disconnecting client", "conn_id", c.ID, "user_id", c.UserID)
		h.removeLocked(c)
	}
}

func encode(msg Message, payload interface{}) ([]byte, error) {
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}
