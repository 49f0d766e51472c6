// Package server wires HTTP handlers into a chi router for the LAN Chat relay.
package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes configures and returns a router with all application routes:
// health checks, the WebSocket endpoint, the administrative API, and the chat page.
func SetupRoutes(h *Handlers) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", h.Health)
	r.Get("/health", h.Health)
	r.Get("/ws", h.WebSocket)
	r.Get("/test", h.TestPage)
	r.Get("/clear", h.ClearPage)

	r.Route("/api", func(r chi.Router) {
		r.Post("/clear", h.Clear)
		r.Get("/messages", h.Messages)
	})
	return r
}
