package handler

import (
	"log/slog"
	"net/http"

	"typerace/internal/service"

	"github.com/gorilla/mux"
)

// RaceHandler exposes read-only race endpoints
type RaceHandler struct {
	engine *service.RaceEngine
	logger *slog.Logger
}

func NewRaceHandler(engine *service.RaceEngine, logger *slog.Logger) *RaceHandler {
	return &RaceHandler{engine: engine, logger: logger}
}

// State handles GET /races/{roomId}
//
//	@Summary	Live race state
//	@Tags		races
//	@Produce	json
//	@Param		roomId	path		string	true	"room id"
//	@Success	200		{object}	model.RaceState
//	@Failure	404		{object}	map[string]string
//	@Router		/races/{roomId} [get]
func (h *RaceHandler) State(w http.ResponseWriter, r *http.Request) {
	state, err := h.engine.GetRaceState(mux.Vars(r)["roomId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// Results handles GET /races/{roomId}/results
//
//	@Summary	Ranked results
//	@Tags		races
//	@Produce	json
//	@Param		roomId	path	string	true	"room id"
//	@Success	200		{array}	model.RaceResult
//	@Failure	404		{object}	map[string]string
//	@Router		/races/{roomId}/results [get]
func (h *RaceHandler) Results(w http.ResponseWriter, r *http.Request) {
	results, err := h.engine.GetResults(r.Context(), mux.Vars(r)["roomId"])
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
