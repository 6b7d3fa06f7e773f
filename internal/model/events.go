package model

import "time"

// Room coordinator events
const (
	EventRoomState          = "room_state"
	EventPlayerJoined       = "player_joined"
	EventPlayerLeft         = "player_left"
	EventCountdownStart     = "countdown_start"
	EventCountdownTick      = "countdown_tick"
	EventCountdownCancelled = "countdown_cancelled"
	EventRaceStart          = "race_start"
	EventRaceStartFailed    = "race_start_failed"
)

// Race engine events
const (
	EventRaceStarted    = "race_started"
	EventRaceState      = "race_state"
	EventPlayerFinished = "player_finished"
	EventRaceFinished   = "race_finished"
)

type PlayerJoinedPayload struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type PlayerLeftPayload struct {
	RoomID     string `json:"roomId"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	HostUserID string `json:"hostUserId"`
}

type CountdownStartPayload struct {
	RoomID  string `json:"roomId"`
	Seconds int    `json:"seconds"`
}

type CountdownTickPayload struct {
	RoomID      string `json:"roomId"`
	SecondsLeft int    `json:"secondsLeft"`
}

type RaceStartPayload struct {
	RoomID    string    `json:"roomId"`
	StartedAt time.Time `json:"startedAt"`
}

// ReasonPayload explains why a countdown or race start was abandoned
type ReasonPayload struct {
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

type PlayerFinishedPayload struct {
	RoomID     string    `json:"roomId"`
	UserID     string    `json:"userId"`
	Username   string    `json:"username"`
	WPM        int       `json:"wpm"`
	Accuracy   float64   `json:"accuracy"`
	FinishedAt time.Time `json:"finishedAt"`
}

type RaceFinishedPayload struct {
	RoomID  string       `json:"roomId"`
	Results []RaceResult `json:"results"`
}
