package server

import (
	"encoding/json"
	"net/http"

	"github.com/luacell/luacell/internal/config"
	"github.com/luacell/luacell/internal/session"
)

// HTTPEndpoint routes plain HTTP requests and WebSocket upgrades.
type HTTPEndpoint struct {
	config   *config.Config
	sessions *session.Manager
	ws       *WebSocketEndpoint
	mux      *http.ServeMux
}

// NewHTTPEndpoint creates the HTTP endpoint and registers its routes.
func NewHTTPEndpoint(cfg *config.Config, sessions *session.Manager, ws *WebSocketEndpoint) *HTTPEndpoint {
	h := &HTTPEndpoint{
		config:   cfg,
		sessions: sessions,
		ws:       ws,
		mux:      http.NewServeMux(),
	}
	h.setupRoutes()
	return h
}

func (h *HTTPEndpoint) setupRoutes() {
	h.mux.HandleFunc("/ws", h.ws.HandleWebSocket)
	h.mux.HandleFunc("/healthz", h.handleHealth)
}

// ServeHTTP implements http.Handler.
func (h *HTTPEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handleHealth reports liveness and the number of open sessions.
func (h *HTTPEndpoint) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}
