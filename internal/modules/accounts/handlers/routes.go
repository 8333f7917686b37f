package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers account routes on the given router
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/bank", h.HandleListBank)
		r.Post("/bank", h.HandleCreateBank)
		r.Get("/demat", h.HandleListDemat)
		r.Post("/demat", h.HandleCreateDemat)
		r.Get("/crypto", h.HandleListCrypto)
		r.Post("/crypto", h.HandleCreateCrypto)
		r.Get("/exchanges", h.HandleListExchanges)
	})
}
