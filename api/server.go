/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/services/*            Service and schedule management
  /api/services/schedules/*  Payment linking

SECURITY NOTE:
  No authentication middleware currently. The engine runs single-tenant
  behind the household reverse proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.ListServices)
			r.Post("/", h.CreateService)

			// Payment linking sits above {id} so "schedules" is not
			// mistaken for a service ID.
			r.Route("/schedules/{id}", func(r chi.Router) {
				r.Post("/pay", h.RegisterPayment)
				r.Post("/unlink", h.UnlinkPayment)
			})

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetService)
				r.Put("/", h.UpdateService)
				r.Delete("/", h.ArchiveService)
				r.Get("/schedules", h.ListSchedules)
				r.Post("/schedules", h.RegenerateSchedules)
				r.Get("/summary", h.GetSummary)
			})
		})
	})

	return r
}
