// Package handlers provides HTTP handlers for user operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// Handler handles user HTTP requests
type Handler struct {
	users      *users.Repository
	portfolios *portfolio.Repository
	log        zerolog.Logger
}

// NewHandler creates a new user handler
func NewHandler(userRepo *users.Repository, portfolioRepo *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		users:      userRepo,
		portfolios: portfolioRepo,
		log:        log.With().Str("handler", "users").Logger(),
	}
}

// CreateUserRequest represents a request to create a user
type CreateUserRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// HandleList handles GET /api/users
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	all, err := h.users.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list users")
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"users": all,
			"count": len(all),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreate handles POST /api/users. Every new user starts with a default
// portfolio.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Email == "" {
		http.Error(w, "email is required", http.StatusBadRequest)
		return
	}

	existing, err := h.users.GetByEmail(req.Email)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to look up user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "A user with this email already exists", http.StatusConflict)
		return
	}

	id, err := h.users.Create(req.Email, req.Name)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create user")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if _, err := h.portfolios.EnsureDefault(id); err != nil {
		h.log.Error().Err(err).Int64("user_id", id).Msg("Failed to create default portfolio")
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id":    id,
			"email": req.Email,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleMe handles GET /api/users/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByID(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to load user")
		http.Error(w, "Failed to load user", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"user": user,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
