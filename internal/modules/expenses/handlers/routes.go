package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers expense routes on the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/expenses", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/categories", h.HandleListCategories)
		r.Post("/categories", h.HandleCreateCategory)
	})
}
