// Package tui is the terminal racing client
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"typerace/internal/client"
	"typerace/internal/logging"
	"typerace/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

type screen int

const (
	screenLogin screen = iota
	screenLobby
	screenRoom
	screenRace
	screenResults
)

// Options configures the client
type Options struct {
	GatewayURL string
	Username   string
	MaxPlayers int
	Logger     *slog.Logger
}

// Model is the Bubble Tea model for the whole client
type Model struct {
	opts Options
	auth *client.Auth
	now  func() time.Time

	screen screen
	status string
	err    error

	// login form
	username string
	password string
	focus    int
	signup   bool
	busy     bool

	user  model.UserInfo
	token string
	rooms client.Rooms
	race  client.Race

	lobby  []model.RoomSummary
	cursor int

	roomID    string
	room      *model.RoomState
	countdown int

	raceText    string
	typing      *Typing
	racePlayers []model.RacePlayer
	finished    bool
	results     []model.RaceResult
}

func New(opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return Model{
		opts:     opts,
		auth:     client.NewAuth(opts.GatewayURL),
		now:      time.Now,
		username: opts.Username,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.shutdown()
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case errMsg:
		m.busy = false
		m.err = msg.err
		return m, nil

	case loggedInMsg:
		m.user = msg.token.User
		m.token = msg.token.Token
		m.password = ""
		m.status = "connecting..."
		return m, connectCmd(m.opts, m.token)

	case connectedMsg:
		m.busy = false
		m.rooms, m.race = msg.rooms, msg.race
		m.screen = screenLobby
		m.status = fmt.Sprintf("signed in as %s", m.user.Username)
		return m, tea.Batch(
			listen(m.rooms.Conn, fromRooms),
			listen(m.race.Conn, fromRace),
			listRoomsCmd(m.rooms),
		)

	case lobbyMsg:
		m.lobby = msg.rooms
		if m.cursor >= len(m.lobby) {
			m.cursor = max(len(m.lobby)-1, 0)
		}
		return m, nil

	case joinedMsg:
		m.busy = false
		m.enterRoom(msg.roomID)
		return m, tea.Batch(roomStateCmd(m.rooms, msg.roomID), joinRaceCmd(m.race, msg.roomID))

	case roomStateMsg:
		m.applyRoomState(msg.state)
		return m, nil

	case raceInfoMsg:
		m.startRace(msg.info.Text)
		return m, nil

	case leftMsg:
		m.screen = screenLobby
		m.roomID, m.room = "", nil
		return m, listRoomsCmd(m.rooms)

	case eventMsg:
		if msg.from == fromRooms {
			m.handleRoomEvent(msg.event)
			return m, listen(m.rooms.Conn, fromRooms)
		}
		m.handleRaceEvent(msg.event)
		return m, listen(m.race.Conn, fromRace)

	case closedMsg:
		m.err = errors.New("connection to server lost")
		return m, nil
	}

	return m, nil
}

func (m *Model) shutdown() {
	if m.rooms.Conn != nil {
		m.rooms.Close()
	}
	if m.race.Conn != nil {
		m.race.Close()
	}
}

func (m *Model) enterRoom(roomID string) {
	m.roomID = roomID
	m.room = nil
	m.countdown = 0
	m.raceText = ""
	m.typing = nil
	m.racePlayers = nil
	m.finished = false
	m.results = nil
	m.err = nil
	m.screen = screenRoom
}

func (m *Model) applyRoomState(state *model.RoomState) {
	if state == nil || state.ID != m.roomID {
		return
	}
	m.room = state
	if state.Status == model.RoomWaiting {
		m.countdown = 0
	}
}

func (m *Model) startRace(text string) {
	m.raceText = text
	m.typing = NewTyping(text)
	m.finished = false
	m.results = nil
	m.countdown = 0
	m.screen = screenRace
}

func (m *Model) isHost() bool {
	return m.room != nil && m.room.HostUserID == m.user.ID
}

func (m *Model) handleRoomEvent(ev client.Event) {
	switch ev.Type {
	case model.EventRoomState:
		var state model.RoomState
		if ev.Decode(&state) == nil {
			m.applyRoomState(&state)
		}
	case model.EventPlayerJoined:
		var p model.PlayerJoinedPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.status = p.Username + " joined"
		}
	case model.EventPlayerLeft:
		var p model.PlayerLeftPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.status = p.Username + " left"
		}
	case model.EventCountdownStart:
		var p model.CountdownStartPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.countdown = p.Seconds
		}
	case model.EventCountdownTick:
		var p model.CountdownTickPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.countdown = p.SecondsLeft
		}
	case model.EventCountdownCancelled, model.EventRaceStartFailed:
		var p model.ReasonPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.countdown = 0
			m.status = "race not started: " + p.Reason
		}
	case model.EventRaceStart:
		m.countdown = 0
		m.status = "go!"
	}
}

func (m *Model) handleRaceEvent(ev client.Event) {
	switch ev.Type {
	case model.EventRaceStarted:
		var info model.RaceInfo
		if ev.Decode(&info) == nil && info.RoomID == m.roomID {
			m.startRace(info.Text)
		}
	case model.EventRaceState:
		var state model.RaceState
		if ev.Decode(&state) == nil && state.RoomID == m.roomID {
			m.racePlayers = state.Players
		}
	case model.EventPlayerFinished:
		var p model.PlayerFinishedPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.status = fmt.Sprintf("%s finished at %d wpm", p.Username, p.WPM)
		}
	case model.EventRaceFinished:
		var p model.RaceFinishedPayload
		if ev.Decode(&p) == nil && p.RoomID == m.roomID {
			m.results = p.Results
			m.screen = screenResults
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenLogin:
		return m.loginKey(msg)
	case screenLobby:
		return m.lobbyKey(msg)
	case screenRoom:
		return m.roomKey(msg)
	case screenRace:
		return m.raceKey(msg)
	case screenResults:
		if msg.Type == tea.KeyEnter || msg.String() == "q" {
			return m, leaveRoomCmd(m.rooms, m.roomID)
		}
	}
	return m, nil
}

func (m Model) loginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	field := &m.username
	if m.focus == 1 {
		field = &m.password
	}

	switch msg.Type {
	case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
		m.focus = 1 - m.focus
	case tea.KeyCtrlS:
		m.signup = !m.signup
	case tea.KeyBackspace:
		if r := []rune(*field); len(r) > 0 {
			*field = string(r[:len(r)-1])
		}
	case tea.KeyEnter:
		if m.username == "" || m.password == "" {
			m.err = errors.New("username and password are required")
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, loginCmd(m.auth, m.signup, m.username, m.password)
	case tea.KeyRunes:
		*field += string(msg.Runes)
	}
	return m, nil
}

func (m Model) lobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.busy {
		return m, nil
	}
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.lobby)-1 {
			m.cursor++
		}
	case "r":
		return m, listRoomsCmd(m.rooms)
	case "c":
		m.busy = true
		m.err = nil
		return m, createRoomCmd(m.rooms, m.opts.MaxPlayers)
	case "enter":
		if len(m.lobby) == 0 {
			return m, nil
		}
		m.busy = true
		m.err = nil
		return m, joinRoomCmd(m.rooms, m.lobby[m.cursor].ID)
	case "q":
		m.shutdown()
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) roomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "s":
		if !m.isHost() {
			m.err = model.ErrOnlyHostCanStart
			return m, nil
		}
		m.err = nil
		return m, startRaceCmd(m.rooms, m.roomID)
	case "l", "esc":
		return m, leaveRoomCmd(m.rooms, m.roomID)
	}
	return m, nil
}

func (m Model) raceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.typing == nil || m.finished {
		return m, nil
	}

	switch msg.Type {
	case tea.KeyBackspace:
		m.typing.Backspace()
	case tea.KeySpace:
		m.typing.Type(' ', m.now())
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.typing.Type(r, m.now())
		}
	default:
		return m, nil
	}

	m.finished = m.typing.Done()
	return m, progressCmd(m.race, model.ProgressUpdate{
		RoomID:   m.roomID,
		Progress: m.typing.Progress(),
		WPM:      m.typing.WPM(m.now()),
		Accuracy: m.typing.Accuracy(),
	})
}
