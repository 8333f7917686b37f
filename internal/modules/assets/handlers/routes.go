package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers asset routes on the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/assets", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Put("/{id}/value", h.HandleUpdateValue)
		r.Get("/{id}/transactions", h.HandleListTransactions)
		r.Post("/{id}/transactions", h.HandleCreateTransaction)
		r.Get("/{id}/holdings", h.HandleListHoldings)
		r.Post("/{id}/holdings", h.HandleCreateHolding)
	})
}
