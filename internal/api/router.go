package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Health check (no auth required)
	r.Get("/health", s.handleHealth)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		// Lamp endpoints
		r.Route("/lamp", func(r chi.Router) {
			r.Get("/state", s.handleLampState)
			r.Post("/control", s.handleLampControl)
			r.Delete("/delete", s.handleLampDelete)
		})

		// Activity log endpoints
		r.Route("/activitylog", func(r chi.Router) {
			r.Get("/", s.handleListActivityLog)
			r.Delete("/", s.handleClearActivityLog)
			r.Delete("/{id}", s.handleDeleteActivityEntry)
		})
	})

	// WebSocket (auth via token query parameter, validated in handler:
	// browsers cannot set an Authorization header on a WS upgrade)
	r.Get(s.wsCfg.Path, s.handleWebSocket)

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
