package store

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"typerace/internal/model"

	"github.com/google/uuid"
)

// RoomStore is the in-memory room registry. It does no locking; the owning
// coordinator serializes every call.
type RoomStore struct {
	rooms map[string]*model.Room
	now   func() time.Time
	newID func() string
}

func NewRoomStore() *RoomStore {
	return &RoomStore{
		rooms: make(map[string]*model.Room),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// LeaveResult describes what a leave changed
type LeaveResult struct {
	Room        *model.Room
	Player      *model.RoomPlayer // nil when the connection was not a member
	Deleted     bool
	HostChanged bool
}

// Create registers a waiting room with the host as its first member
func (s *RoomStore) Create(hostConn, hostUserID, hostUsername string, maxPlayers int) *model.Room {
	now := s.now()
	room := &model.Room{
		ID:         s.newID(),
		HostUserID: hostUserID,
		HostConnID: hostConn,
		Players: map[string]*model.RoomPlayer{
			hostConn: {ConnID: hostConn, UserID: hostUserID, Username: hostUsername, JoinedAt: now},
		},
		Order:      []string{hostConn},
		MaxPlayers: maxPlayers,
		Status:     model.RoomWaiting,
		CreatedAt:  now,
	}
	s.rooms[room.ID] = room
	return room
}

func (s *RoomStore) Get(id string) (*model.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrRoomNotFound)
	}
	return room, nil
}

// Join adds the connection to the room. Joining twice with the same
// connection leaves the room unchanged.
func (s *RoomStore) Join(id, conn, userID, username string) (*model.Room, error) {
	room, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if _, ok := room.Players[conn]; ok {
		return room, nil
	}
	if room.IsFull() {
		return nil, fmt.Errorf("room %s: %w", id, model.ErrRoomFull)
	}

	room.Players[conn] = &model.RoomPlayer{ConnID: conn, UserID: userID, Username: username, JoinedAt: s.now()}
	room.Order = append(room.Order, conn)
	return room, nil
}

// Leave removes the connection. An emptied room is deleted; a departing host
// hands over to the earliest remaining member.
func (s *RoomStore) Leave(id, conn string) (*LeaveResult, error) {
	room, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	player, ok := room.Players[conn]
	if !ok {
		return &LeaveResult{Room: room}, nil
	}

	delete(room.Players, conn)
	room.Order = slices.DeleteFunc(room.Order, func(c string) bool { return c == conn })
	res := &LeaveResult{Room: room, Player: player}

	if len(room.Players) == 0 {
		delete(s.rooms, id)
		res.Deleted = true
		return res, nil
	}

	if room.HostConnID == conn {
		next := room.Players[room.Order[0]]
		room.HostConnID = next.ConnID
		room.HostUserID = next.UserID
		res.HostChanged = true
	}
	return res, nil
}

func (s *RoomStore) SetStatus(id string, status model.RoomStatus) error {
	room, err := s.Get(id)
	if err != nil {
		return err
	}
	room.Status = status
	return nil
}

// List returns summaries ordered by creation time. With statuses given, only
// rooms in one of them are included.
func (s *RoomStore) List(statuses ...model.RoomStatus) []model.RoomSummary {
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		if len(statuses) > 0 && !slices.Contains(statuses, room.Status) {
			continue
		}
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})

	out := make([]model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, room.Summary())
	}
	return out
}

// RoomsOf lists the rooms a connection belongs to
func (s *RoomStore) RoomsOf(conn string) []string {
	var ids []string
	for id, room := range s.rooms {
		if _, ok := room.Players[conn]; ok {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *RoomStore) Len() int {
	return len(s.rooms)
}
