// Package gateway fronts the auth, rooms and engine services with a single
// HTTP entry point.
package gateway

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"typerace/internal/config"
	"typerace/internal/transport/rest"
	"typerace/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// Gateway routes public auth traffic straight through and requires a valid
// bearer token for everything else
type Gateway struct {
	auth   *url.URL
	rooms  *url.URL
	engine *url.URL

	validator   middleware.TokenValidator
	corsOrigins string
	logger      *slog.Logger
}

func New(cfg config.GatewayConfig, validator middleware.TokenValidator, corsOrigins string, logger *slog.Logger) (*Gateway, error) {
	authURL, err := parseTarget("auth", cfg.AuthURL)
	if err != nil {
		return nil, err
	}
	roomsURL, err := parseTarget("rooms", cfg.RoomsURL)
	if err != nil {
		return nil, err
	}
	engineURL, err := parseTarget("engine", cfg.EngineURL)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		auth:        authURL,
		rooms:       roomsURL,
		engine:      engineURL,
		validator:   validator,
		corsOrigins: corsOrigins,
		logger:      logger,
	}, nil
}

// Handler builds the routing table
func (g *Gateway) Handler() http.Handler {
	r := mux.NewRouter()

	r.Use(middleware.Recoverer(g.logger))
	r.Use(middleware.Logging(g.logger))
	r.Use(middleware.CORS(g.corsOrigins))

	r.HandleFunc("/health", rest.Health).Methods("GET")
	r.HandleFunc("/swagger.json", rest.SwaggerDoc).Methods("GET")

	keepPath := func(p string) string { return p }
	stripAPI := func(p string) string { return strings.TrimPrefix(p, "/api") }
	toWS := func(string) string { return "/ws" }

	r.PathPrefix("/api/auth/").Handler(g.proxy("auth", g.auth, keepPath))

	protected := r.NewRoute().Subrouter()
	protected.Use(middleware.NewAuthMiddleware(g.validator).RequireAuth)

	protected.PathPrefix("/api/rooms").Handler(g.proxy("rooms", g.rooms, stripAPI))
	protected.PathPrefix("/api/races").Handler(g.proxy("engine", g.engine, stripAPI))
	protected.Handle("/ws/rooms", g.proxy("rooms", g.rooms, toWS)).Methods("GET")
	protected.Handle("/ws/race", g.proxy("engine", g.engine, toWS)).Methods("GET")

	return r
}

// proxy forwards to target after rewriting the path. WebSocket upgrades
// pass through unchanged.
func (g *Gateway) proxy(name string, target *url.URL, rewrite func(string) string) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.Out.URL.Path = rewrite(pr.In.URL.Path)
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			g.logger.Warn("upstream request failed", "service", name, "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]string{"error": "bad_gateway"})
		},
	}
}

func parseTarget(name, raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s url %q: %w", name, raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid %s url %q: scheme and host required", name, raw)
	}
	return u, nil
}
