package rest

import (
	"log/slog"
	"net/http"

	"typerace/docs"
	"typerace/internal/service"
	"typerace/internal/transport/rest/handler"
	"typerace/internal/transport/rest/middleware"
	"typerace/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds the dependencies a service router may need. Each router
// reads only the fields it serves.
type Container struct {
	AuthService *service.AuthService
	UserService *service.UserService
	Rooms       *service.RoomCoordinator
	Engine      *service.RaceEngine
	WSHub       *ws.Hub
	CORSOrigins string
	Logger      *slog.Logger
}

// NewAuthRouter creates the account service router
func NewAuthRouter(c *Container) http.Handler {
	r := newBaseRouter(c)

	authHandler := handler.NewAuthHandler(c.UserService, c.Logger)
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	api := r.PathPrefix("/api/auth").Subrouter()
	api.HandleFunc("/signup", authHandler.Signup).Methods("POST", "OPTIONS")
	api.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	protected := api.NewRoute().Subrouter()
	protected.Use(authMW.RequireAuth)
	protected.HandleFunc("/me", authHandler.Me).Methods("GET", "OPTIONS")

	return r
}

// NewRoomsRouter creates the room coordinator router
func NewRoomsRouter(c *Container) http.Handler {
	r := newBaseRouter(c)

	roomHandler := handler.NewRoomHandler(c.Rooms, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, ws.NewRoomDispatcher(c.Rooms), c.Logger)

	r.HandleFunc("/rooms", roomHandler.List).Methods("GET", "OPTIONS")
	r.HandleFunc("/rooms/{id}", roomHandler.Get).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	return r
}

// NewEngineRouter creates the race engine router
func NewEngineRouter(c *Container) http.Handler {
	r := newBaseRouter(c)

	raceHandler := handler.NewRaceHandler(c.Engine, c.Logger)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, ws.NewRaceDispatcher(c.Engine), c.Logger)

	r.HandleFunc("/races/{roomId}", raceHandler.State).Methods("GET", "OPTIONS")
	r.HandleFunc("/races/{roomId}/results", raceHandler.Results).Methods("GET", "OPTIONS")
	r.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	return r
}

// newBaseRouter installs the shared middleware chain plus health and docs
func newBaseRouter(c *Container) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Recoverer(c.Logger))
	r.Use(middleware.Logging(c.Logger))
	r.Use(middleware.CORS(c.CORSOrigins))

	r.HandleFunc("/health", Health).Methods("GET")
	r.HandleFunc("/swagger.json", SwaggerDoc).Methods("GET")

	return r
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// SwaggerDoc serves the registered OpenAPI document
func SwaggerDoc(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(docs.SwaggerInfo.ReadDoc()))
}
