package rest_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"typerace/internal/config"
	"typerace/internal/logging"
	"typerace/internal/model"
	"typerace/internal/service"
	"typerace/internal/store"
	"typerace/internal/transport/rest"
	"typerace/internal/transport/ws"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (m *memUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return model.ErrUsernameTaken
	}
	user.ID = "id-" + user.Username
	cp := *user
	m.users[user.Username] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[username]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memUsers) EnsureIndexes(context.Context) error { return nil }

type noEngine struct{}

func (noEngine) StartRace(context.Context, string, []model.Participant) (*model.RaceInfo, error) {
	return nil, model.ErrEngineUnavailable
}

func newContainer(t *testing.T) *rest.Container {
	t.Helper()
	logger := logging.Discard()
	cfg := config.Default()

	auth := service.NewAuthService("test-secret", time.Hour)
	users := service.NewUserService(&memUsers{users: make(map[string]*model.User)}, auth, bcrypt.MinCost, logger)
	hub := ws.NewHub(logger)
	rooms := service.NewRoomCoordinator(cfg.Room, noEngine{}, hub, logger)
	t.Cleanup(rooms.Stop)
	engine := service.NewRaceEngine(cfg.Race, store.NewRaceStore(), hub, nil, nil, logger)

	return &rest.Container{
		AuthService: auth,
		UserService: users,
		Rooms:       rooms,
		Engine:      engine,
		WSHub:       hub,
		CORSOrigins: "*",
		Logger:      logger,
	}
}

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouters_HealthAndDocs(t *testing.T) {
	c := newContainer(t)
	routers := map[string]http.Handler{
		"auth":   rest.NewAuthRouter(c),
		"rooms":  rest.NewRoomsRouter(c),
		"engine": rest.NewEngineRouter(c),
	}

	for name, h := range routers {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/health", "", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

			rec = do(t, h, http.MethodGet, "/swagger.json", "", "")
			assert.Equal(t, http.StatusOK, rec.Code)
			var doc map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
			assert.Contains(t, doc, "paths")
		})
	}
}

func TestAuthRouter_SignupLoginMe(t *testing.T) {
	h := rest.NewAuthRouter(newContainer(t))

	rec := do(t, h, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"secret1"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/auth/signup", `{"username":"alice","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"username_taken"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"wrong-pw"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var login model.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	rec = do(t, h, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/auth/me", "", login.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	var me model.UserInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, login.User.ID, me.ID)
}

func TestAuthRouter_RejectsMalformedBody(t *testing.T) {
	h := rest.NewAuthRouter(newContainer(t))
	rec := do(t, h, http.MethodPost, "/api/auth/login", `{`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoomsRouter(t *testing.T) {
	c := newContainer(t)
	h := rest.NewRoomsRouter(c)

	rec := do(t, h, http.MethodGet, "/rooms", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	created, err := c.Rooms.CreateRoom(service.Caller{ConnID: "c1", UserID: "u1", Username: "alice"}, 3)
	require.NoError(t, err)

	rec = do(t, h, http.MethodGet, "/rooms", "", "")
	var rooms []model.RoomSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, created.RoomID, rooms[0].ID)
	assert.Equal(t, 3, rooms[0].MaxPlayers)

	rec = do(t, h, http.MethodGet, "/rooms/"+created.RoomID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state model.RoomState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, "u1", state.HostUserID)
	assert.Equal(t, model.RoomWaiting, state.Status)

	rec = do(t, h, http.MethodGet, "/rooms/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"room_not_found"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/ws", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEngineRouter(t *testing.T) {
	c := newContainer(t)
	h := rest.NewEngineRouter(c)

	rec := do(t, h, http.MethodGet, "/races/room-1", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"race_not_found"}`, rec.Body.String())

	_, err := c.Engine.StartRace(context.Background(), "room-1", []model.Participant{
		{UserID: "u1", Username: "alice"},
		{UserID: "u2", Username: "bob"},
	})
	require.NoError(t, err)
	require.NoError(t, c.Engine.UpdateProgress(context.Background(),
		service.Caller{ConnID: "c1", UserID: "u2"},
		model.ProgressUpdate{RoomID: "room-1", Progress: 100, WPM: 70, Accuracy: 95}))

	rec = do(t, h, http.MethodGet, "/races/room-1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var state model.RaceState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, model.RaceActive, state.Status)
	assert.Len(t, state.Players, 2)

	rec = do(t, h, http.MethodGet, "/races/room-1/results", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []model.RaceResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "u2", results[0].UserID)
	assert.Equal(t, 1, results[0].Position)
	assert.False(t, results[1].Finished)
}

func TestCORSPreflight(t *testing.T) {
	h := rest.NewRoomsRouter(newContainer(t))
	rec := do(t, h, http.MethodOptions, "/rooms", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "GET")
}
