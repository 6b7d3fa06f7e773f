package handler

import (
	"log/slog"
	"net/http"

	"typerace/internal/service"

	"github.com/gorilla/mux"
)

// RoomHandler exposes read-only room endpoints
type RoomHandler struct {
	rooms  *service.RoomCoordinator
	logger *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(rooms *service.RoomCoordinator, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{rooms: rooms, logger: logger}
}

// List handles GET /rooms
//
//	@Summary	List rooms open for joining
//	@Tags		rooms
//	@Produce	json
//	@Success	200	{array}	model.RoomSummary
//	@Router		/rooms [get]
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.rooms.ListRooms())
}

// Get handles GET /rooms/{id}
//
//	@Summary	Room state
//	@Tags		rooms
//	@Produce	json
//	@Param		id	path		string	true	"room id"
//	@Success	200	{object}	model.RoomState
//	@Failure	404	{object}	map[string]string
//	@Router		/rooms/{id} [get]
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	state, err := h.rooms.GetRoomState(mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
