package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"typerace/internal/model"
	"typerace/internal/service"
	"typerace/internal/transport/rest/middleware"
)

// AuthHandler handles account endpoints
type AuthHandler struct {
	userSvc *service.UserService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userSvc *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userSvc: userSvc, logger: logger}
}

// Signup handles POST /api/auth/signup
//
//	@Summary	Create an account
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		model.CredentialsRequest	true	"credentials"
//	@Success	201		{object}	model.TokenResponse
//	@Failure	400,409	{object}	map[string]string
//	@Router		/api/auth/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.userSvc.Signup(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		body	body		model.CredentialsRequest	true	"credentials"
//	@Success	200		{object}	model.TokenResponse
//	@Failure	400,401	{object}	map[string]string
//	@Router		/api/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.userSvc.Login(r.Context(), req)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/auth/me
//
//	@Summary	Current user
//	@Tags		auth
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	model.UserInfo
//	@Failure	401	{object}	map[string]string
//	@Router		/api/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userSvc.GetUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps a domain error onto its status and wire code
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := model.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", "error", err)
	}
	writeError(w, status, model.CodeOf(err))
}
