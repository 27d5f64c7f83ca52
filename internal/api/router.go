package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/ghoulgame/internal/api/handler"
	"github.com/mcoot/ghoulgame/internal/api/middleware"
	"github.com/mcoot/ghoulgame/internal/gateway"
	"github.com/mcoot/ghoulgame/internal/services/auth"
	"github.com/mcoot/ghoulgame/internal/services/lobby"
	"github.com/mcoot/ghoulgame/internal/storage"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger      *slog.Logger
	AuthService *auth.Service
	Registry    *lobby.Registry
	Gateway     *gateway.Gateway
	Dispatcher  *gateway.Dispatcher
	Storage     storage.Storage
	PublicURL   string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	connectionHandler := handler.NewConnectionHandler(cfg.Gateway, cfg.AuthService)
	sessionHandler := handler.NewSessionHandler(cfg.Registry)
	gameHandler := handler.NewGameHandler(cfg.Storage)
	qrHandler := handler.NewQRHandler(cfg.Registry, cfg.PublicURL)
	wsHandler := gateway.NewWebSocketHandler(cfg.Gateway, cfg.Dispatcher, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService, cfg.Gateway)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Health check and websocket transport (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.Handle("/ws", wsHandler).Methods(http.MethodGet)

	// Connections
	api.HandleFunc("/connections", connectionHandler.Open).Methods(http.MethodPost)
	me := api.PathPrefix("/connections/me").Subrouter()
	me.Use(authMiddleware)
	me.HandleFunc("", connectionHandler.Close).Methods(http.MethodDelete)
	me.HandleFunc("/events", connectionHandler.Events).Methods(http.MethodGet)

	// Public session routes
	api.HandleFunc("/sessions", sessionHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/sessions/{id}/qr", qrHandler.Session).Methods(http.MethodGet)

	// Session commands (auth required)
	sessions := api.PathPrefix("/sessions").Subrouter()
	sessions.Use(authMiddleware)
	sessions.HandleFunc("", sessionHandler.Create).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/join", sessionHandler.Join).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/leave", sessionHandler.Leave).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/start", sessionHandler.Start).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/kill", sessionHandler.Kill).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/vote", sessionHandler.Vote).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/verdict", sessionHandler.Verdict).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/pause", sessionHandler.Pause).Methods(http.MethodPost)
	sessions.HandleFunc("/{id}/end-phase", sessionHandler.EndPhase).Methods(http.MethodPost)

	// Finished game archive
	api.HandleFunc("/games", gameHandler.List).Methods(http.MethodGet)
	api.HandleFunc("/games/{id}", gameHandler.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
