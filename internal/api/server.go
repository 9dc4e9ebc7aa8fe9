// Package api exposes the CampusBuddy chat service over HTTP.
//
// The surface is small: a request/response chat endpoint, a WebSocket
// variant that streams the assistant's answer as it is generated, health
// probes, and a Prometheus metrics endpoint. Authentication is delegated
// to the fronting gateway, which injects the caller's identity via the
// X-User-ID header; requests without it are served in guest mode.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/campusbuddy/campusbuddy/internal/chat"
	"github.com/campusbuddy/campusbuddy/internal/health"
	"github.com/campusbuddy/campusbuddy/internal/observe"
	"github.com/campusbuddy/campusbuddy/internal/session"
)

// userIDHeader carries the authenticated account id, set by the gateway
// after it has verified the caller's credentials. An empty or absent header
// means the caller is a guest.
const userIDHeader = "X-User-ID"

// Config assembles a [Server].
type Config struct {
	// Runner drives conversation runs.
	Runner *chat.Runner

	// Sessions creates and resumes chat sessions.
	Sessions *session.Manager

	// Health serves the /healthz and /readyz probes. Nil registers probes
	// with no readiness checks.
	Health *health.Handler

	// Metrics may be nil; the default instance is used instead.
	Metrics *observe.Metrics

	// MCP, when non-nil, is mounted at /mcp to expose the tool catalog to
	// Model Context Protocol clients.
	MCP http.Handler
}

// Server is the HTTP front of the chat service. It is safe for concurrent
// use; all state lives in the wired subsystems.
type Server struct {
	runner   *chat.Runner
	sessions *session.Manager
	health   *health.Handler
	metrics  *observe.Metrics
	mcp      http.Handler
}

// New creates a [Server] from cfg.
func New(cfg Config) *Server {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	if cfg.Health == nil {
		cfg.Health = health.New()
	}
	return &Server{
		runner:   cfg.Runner,
		sessions: cfg.Sessions,
		health:   cfg.Health,
		metrics:  cfg.Metrics,
		mcp:      cfg.MCP,
	}
}

// Handler returns the server's routing table wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("GET /api/chat/ws", s.handleChatWS)
	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())
	if s.mcp != nil {
		mux.Handle("/mcp", s.mcp)
	}

	return observe.Middleware(s.metrics)(mux)
}

// writeJSON encodes v and writes it with the given status. Encoding only
// fails after the header has been sent, so failures are logged rather than
// surfaced.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "api: write response", "err", err)
	}
}
