package model

import "time"

type RaceStatus string

const (
	RaceActive   RaceStatus = "active"
	RaceFinished RaceStatus = "finished"
)

// Participant identifies a racer handed over by the room coordinator
type Participant struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// RacePlayer is a player's live typing state within a session
type RacePlayer struct {
	UserID     string     `json:"userId"`
	Username   string     `json:"username"`
	Progress   float64    `json:"progress"`
	WPM        int        `json:"wpm"`
	Accuracy   float64    `json:"accuracy"`
	Finished   bool       `json:"finished"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Left       bool       `json:"left,omitempty"`
}

// RaceSession is one race for one room. Text never changes after creation.
type RaceSession struct {
	RoomID     string
	Text       string
	StartedAt  time.Time
	Status     RaceStatus
	FinishedAt *time.Time
	Players    map[string]*RacePlayer
	Order      []string // user ids in roster order
}

// Standings returns copies of the players in roster order
func (s *RaceSession) Standings() []RacePlayer {
	out := make([]RacePlayer, 0, len(s.Order))
	for _, id := range s.Order {
		if p, ok := s.Players[id]; ok {
			out = append(out, *p)
		}
	}
	return out
}

func (s *RaceSession) Info() RaceInfo {
	return RaceInfo{RoomID: s.RoomID, Text: s.Text, StartedAt: s.StartedAt}
}

func (s *RaceSession) State() RaceState {
	return RaceState{
		RoomID:    s.RoomID,
		Text:      s.Text,
		Status:    s.Status,
		StartedAt: s.StartedAt,
		Players:   s.Standings(),
	}
}

// RaceInfo is returned to whoever starts or joins a race
type RaceInfo struct {
	RoomID    string    `json:"roomId"`
	Text      string    `json:"text"`
	StartedAt time.Time `json:"startedAt"`
}

type RaceState struct {
	RoomID    string       `json:"roomId"`
	Text      string       `json:"text"`
	Status    RaceStatus   `json:"status"`
	StartedAt time.Time    `json:"startedAt"`
	Players   []RacePlayer `json:"players"`
}

// RaceResult is one ranked line of the final standings
type RaceResult struct {
	Position   int        `json:"position"`
	UserID     string     `json:"userId"`
	Username   string     `json:"username"`
	WPM        int        `json:"wpm"`
	Accuracy   float64    `json:"accuracy"`
	Progress   float64    `json:"progress"`
	Finished   bool       `json:"finished"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Left       bool       `json:"left,omitempty"`
}

// StartSessionRequest is sent by the coordinator when a countdown completes
type StartSessionRequest struct {
	RoomID  string        `json:"roomId"`
	Players []Participant `json:"players"`
}

// StartSessionReply carries either the created race or an error code
type StartSessionReply struct {
	Race  *RaceInfo `json:"race,omitempty"`
	Error string    `json:"error,omitempty"`
}

// PlayerLeftNotice tells the engine a racer left the room mid-race
type PlayerLeftNotice struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// RaceFinishedNotice is published once a race completes
type RaceFinishedNotice struct {
	RoomID     string    `json:"roomId"`
	FinishedAt time.Time `json:"finishedAt"`
}

type ProgressUpdate struct {
	RoomID   string  `json:"roomId"`
	UserID   string  `json:"userId,omitempty"`
	Progress float64 `json:"progress"`
	WPM      int     `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}
