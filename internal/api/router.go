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

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ws", s.handleWebSocket)

		r.Route("/tv", func(r chi.Router) {
			r.Get("/", s.handleGetTV)

			// Mutating routes
			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)

				r.Post("/refresh", s.handleRefreshTV)
				r.Put("/artmode", s.handleSetArtMode)
				r.Put("/brightness", s.handleSetBrightness)
				r.Put("/color-temperature", s.handleSetColorTemperature)
			})
		})
	})

	return r
}

// handleHealth returns the server and bridge health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status, reason := s.tv.Health()
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"bridge":  status,
	}
	if reason != "" {
		resp["reason"] = reason
	}
	writeJSON(w, http.StatusOK, resp)
}
