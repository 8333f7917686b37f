// Package handlers provides HTTP handlers for portfolio snapshot operations.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/artha-io/artha/internal/modules/snapshots"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// Handler handles snapshot HTTP requests
type Handler struct {
	snapshots *snapshots.Repository
	service   *snapshots.Service
	log       zerolog.Logger
}

// NewHandler creates a new snapshots handler
func NewHandler(snapshotRepo *snapshots.Repository, service *snapshots.Service, log zerolog.Logger) *Handler {
	return &Handler{
		snapshots: snapshotRepo,
		service:   service,
		log:       log.With().Str("handler", "snapshots").Logger(),
	}
}

// ComputeRequest optionally pins the snapshot date. Empty body means today.
type ComputeRequest struct {
	Date string `json:"date"`
}

// HandleList handles GET /api/snapshots
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	list, err := h.snapshots.GetAllForUser(userID)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list snapshots")
		http.Error(w, "Failed to list snapshots", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshots": list,
			"count":     len(list),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetByDate handles GET /api/snapshots/{date}
func (h *Handler) HandleGetByDate(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	date := chi.URLParam(r, "date")
	snapshot, err := h.snapshots.GetByDate(userID, date)
	if err != nil {
		h.log.Error().Err(err).Str("date", date).Msg("Failed to load snapshot")
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}
	if snapshot == nil {
		http.Error(w, "Snapshot not found", http.StatusNotFound)
		return
	}

	positions, err := h.snapshots.GetAssetSnapshots(snapshot.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("snapshot_id", snapshot.ID).Msg("Failed to load positions")
		http.Error(w, "Failed to load snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot":  snapshot,
			"positions": positions,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCompute handles POST /api/snapshots/compute
func (h *Handler) HandleCompute(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var req ComputeRequest
	if body, err := io.ReadAll(r.Body); err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	snapshot, err := h.computeSnapshot(userID, req.Date)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute snapshot")
		http.Error(w, "Failed to compute snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"snapshot": snapshot,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

func (h *Handler) computeSnapshot(userID int64, date string) (interface{}, error) {
	if date == "" {
		return h.service.ComputeDaily(userID)
	}
	return h.service.ComputeForDate(userID, date)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
