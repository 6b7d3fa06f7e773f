package service

// Broadcaster fans events out to WebSocket connections grouped by room.
// Implementations must not block; the coordinator and engine call it while
// holding their state lock.
type Broadcaster interface {
	Join(group, connID string)
	Leave(group, connID string)
	BroadcastToGroup(group string, msgType string, payload interface{})
}

// Caller identifies the authenticated connection behind a request
type Caller struct {
	ConnID   string
	UserID   string
	Username string
}
