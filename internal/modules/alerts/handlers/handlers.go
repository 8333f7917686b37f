// Package handlers provides HTTP handlers for alert operations.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/alerts"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles alert HTTP requests
type Handler struct {
	alerts *alerts.Repository
	log    zerolog.Logger
}

// NewHandler creates a new alerts handler
func NewHandler(alertRepo *alerts.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		alerts: alertRepo,
		log:    log.With().Str("handler", "alerts").Logger(),
	}
}

// CreateAlertRequest represents a request to create an alert
type CreateAlertRequest struct {
	AssetID   *int64 `json:"asset_id"`
	AlertType string `json:"alert_type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	AlertDate string `json:"alert_date"`
}

// HandleList handles GET /api/alerts
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.alerts.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list alerts")
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"alerts": list,
			"count":  len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCreate handles POST /api/alerts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req CreateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.AlertType == "" || req.Title == "" || req.AlertDate == "" {
		http.Error(w, "alert_type, title and alert_date are required", http.StatusBadRequest)
		return
	}

	id, err := h.alerts.Create(domain.Alert{
		UserID:    userID,
		AssetID:   req.AssetID,
		AlertType: domain.AlertType(req.AlertType),
		Title:     req.Title,
		Message:   req.Message,
		AlertDate: req.AlertDate,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create alert")
		http.Error(w, "Failed to create alert", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": map[string]interface{}{
			"id": id,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleMarkRead handles POST /api/alerts/{id}/read
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	if _, err := users.FromRequest(r); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	alertID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid alert id", http.StatusBadRequest)
		return
	}

	if err := h.alerts.MarkRead(alertID); err != nil {
		h.log.Error().Err(err).Int64("alert_id", alertID).Msg("Failed to mark alert read")
		http.Error(w, "Alert not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"id":      alertID,
			"is_read": true,
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
