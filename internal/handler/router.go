package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter builds the full route tree. Everything under /api requires
// an authenticated user identity.
func NewRouter(slots *SlotHandler, swaps *SwapHandler, events *EventsHandler, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(CORS)

	r.Get("/health", HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Use(RequireUser)

		r.Route("/slots", func(r chi.Router) {
			r.Get("/", slots.ListMine)
			r.Post("/", slots.Create)
			r.Put("/{id}", slots.Update)
			r.Delete("/{id}", slots.Delete)
		})

		r.Get("/swappable-slots", slots.ListSwappable)
		r.Post("/swap-request", swaps.Propose)
		r.Post("/swap-response/{requestID}", swaps.Respond)
		r.Get("/requests", swaps.List)
		r.Get("/events/stream", events.Stream)
	})

	return r
}
