package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	// entity collections: /api/food and /api/subscriptions
	router.Route("/api/{kind}", func(r chi.Router) {
		r.Get("/", h.readAll)
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.read)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.remove)
	})

	// retry-queue inspection and manual reconciliation
	router.Route("/api/sync", func(r chi.Router) {
		r.Get("/report", h.syncReport)
		r.Get("/pending", h.syncPending)
		r.Post("/export", h.syncExport)
		r.Post("/resolve/{id}", h.syncResolve)
		r.Post("/prune", h.syncPrune)
	})

	router.Get("/api/session", h.session)

	return router
}
