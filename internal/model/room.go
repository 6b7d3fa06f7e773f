package model

import "time"

type RoomStatus string

const (
	RoomWaiting    RoomStatus = "waiting"
	RoomCountdown  RoomStatus = "countdown"
	RoomInProgress RoomStatus = "in-progress"
	RoomFinished   RoomStatus = "finished"
)

// RoomPlayer is one connection's membership in a room
type RoomPlayer struct {
	ConnID   string    `json:"-"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Room is the coordinator's in-memory view of a lobby.
// Players is keyed by connection id; Order keeps connection ids in join order.
type Room struct {
	ID         string
	HostUserID string
	HostConnID string
	Players    map[string]*RoomPlayer
	Order      []string
	MaxPlayers int
	Status     RoomStatus
	CreatedAt  time.Time
}

func (r *Room) PlayerCount() int {
	return len(r.Players)
}

func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// HasUser reports whether any of the user's connections is still a member
func (r *Room) HasUser(userID string) bool {
	for _, p := range r.Players {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// Roster returns the members in join order
func (r *Room) Roster() []RoomPlayer {
	out := make([]RoomPlayer, 0, len(r.Order))
	for _, connID := range r.Order {
		if p, ok := r.Players[connID]; ok {
			out = append(out, *p)
		}
	}
	return out
}

// Participants is the roster snapshot handed to the race engine
func (r *Room) Participants() []Participant {
	roster := r.Roster()
	out := make([]Participant, 0, len(roster))
	for _, p := range roster {
		out = append(out, Participant{UserID: p.UserID, Username: p.Username})
	}
	return out
}

func (r *Room) State() RoomState {
	return RoomState{
		ID:         r.ID,
		Status:     r.Status,
		HostUserID: r.HostUserID,
		Players:    r.Roster(),
		MaxPlayers: r.MaxPlayers,
	}
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{
		ID:          r.ID,
		PlayerCount: len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		Status:      r.Status,
	}
}

// RoomState is the full membership snapshot sent to clients
type RoomState struct {
	ID         string       `json:"id"`
	Status     RoomStatus   `json:"status"`
	HostUserID string       `json:"hostUserId"`
	Players    []RoomPlayer `json:"players"`
	MaxPlayers int          `json:"maxPlayers"`
}

// RoomSummary is one entry of the room discovery listing
type RoomSummary struct {
	ID          string     `json:"id"`
	PlayerCount int        `json:"playerCount"`
	MaxPlayers  int        `json:"maxPlayers"`
	Status      RoomStatus `json:"status"`
}

type CreateRoomRequest struct {
	MaxPlayers int `json:"maxPlayers,omitempty"`
}

type RoomRequest struct {
	RoomID string `json:"roomId"`
}

type StartRaceRequest struct {
	RoomID           string `json:"roomId"`
	CountdownSeconds int    `json:"countdownSeconds,omitempty"`
}

type RoomResponse struct {
	RoomID string `json:"roomId"`
}
