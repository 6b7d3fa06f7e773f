package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"typerace/internal/client"
	"typerace/internal/model"

	tea "github.com/charmbracelet/bubbletea"
)

const requestTimeout = 5 * time.Second

type source int

const (
	fromRooms source = iota
	fromRace
)

type (
	loggedInMsg  struct{ token *model.TokenResponse }
	connectedMsg struct {
		rooms client.Rooms
		race  client.Race
	}
	lobbyMsg     struct{ rooms []model.RoomSummary }
	joinedMsg    struct{ roomID string }
	roomStateMsg struct{ state *model.RoomState }
	raceInfoMsg  struct{ info *model.RaceInfo }
	leftMsg      struct{}
	eventMsg     struct {
		from  source
		event client.Event
	}
	closedMsg struct{ from source }
	errMsg    struct{ err error }
)

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

func loginCmd(auth *client.Auth, signup bool, username, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		call := auth.Login
		if signup {
			call = auth.Signup
		}
		token, err := call(ctx, username, password)
		if err != nil {
			return errMsg{err}
		}
		return loggedInMsg{token}
	}
}

func connectCmd(opts Options, token string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		base := wsBase(opts.GatewayURL)
		rooms, err := client.Dial(ctx, base+"/ws/rooms", token, opts.Logger)
		if err != nil {
			return errMsg{err}
		}
		race, err := client.Dial(ctx, base+"/ws/race", token, opts.Logger)
		if err != nil {
			rooms.Close()
			return errMsg{err}
		}
		return connectedMsg{rooms: client.Rooms{Conn: rooms}, race: client.Race{Conn: race}}
	}
}

// wsBase turns the gateway's http(s) URL into its ws(s) form
func wsBase(gatewayURL string) string {
	base := strings.TrimRight(gatewayURL, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base
}

func listen(conn *client.Conn, from source) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		if !ok {
			return closedMsg{from}
		}
		return eventMsg{from: from, event: ev}
	}
}

func listRoomsCmd(rooms client.Rooms) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		list, err := rooms.ListRooms(ctx)
		if err != nil {
			return errMsg{err}
		}
		return lobbyMsg{list}
	}
}

func createRoomCmd(rooms client.Rooms, maxPlayers int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		roomID, err := rooms.CreateRoom(ctx, maxPlayers)
		if err != nil {
			return errMsg{err}
		}
		return joinedMsg{roomID}
	}
}

func joinRoomCmd(rooms client.Rooms, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := rooms.JoinRoom(ctx, roomID); err != nil {
			return errMsg{err}
		}
		return joinedMsg{roomID}
	}
}

func roomStateCmd(rooms client.Rooms, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		state, err := rooms.GetRoomState(ctx, roomID)
		if err != nil {
			return errMsg{err}
		}
		return roomStateMsg{state}
	}
}

// joinRaceCmd subscribes to race events; a race that has not started yet is
// expected and reported as no message
func joinRaceCmd(race client.Race, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		info, err := race.JoinRace(ctx, roomID)
		if errors.Is(err, model.ErrRaceNotFound) {
			return nil
		}
		if err != nil {
			return errMsg{err}
		}
		return raceInfoMsg{info}
	}
}

func startRaceCmd(rooms client.Rooms, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := rooms.StartRace(ctx, roomID, 0); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func leaveRoomCmd(rooms client.Rooms, roomID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := rooms.LeaveRoom(ctx, roomID); err != nil {
			return errMsg{err}
		}
		return leftMsg{}
	}
}

func progressCmd(race client.Race, upd model.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := opContext()
		defer cancel()

		if err := race.UpdateProgress(ctx, upd); err != nil {
			return errMsg{err}
		}
		return nil
	}
}
