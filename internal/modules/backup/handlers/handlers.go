// Package handlers provides HTTP handlers for backup and restore operations.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/artha-io/artha/internal/modules/backup"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// Handler handles backup HTTP requests
type Handler struct {
	service       *backup.Service
	cloud         *backup.CloudStore
	retentionDays int
	log           zerolog.Logger
}

// NewHandler creates a new backup handler. cloud may be nil when cloud
// storage is not configured; the cloud endpoints then answer 503.
func NewHandler(service *backup.Service, cloud *backup.CloudStore, retentionDays int, log zerolog.Logger) *Handler {
	return &Handler{
		service:       service,
		cloud:         cloud,
		retentionDays: retentionDays,
		log:           log.With().Str("handler", "backup").Logger(),
	}
}

// HandleExport handles GET /api/backup/export
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, filename, err := h.service.ExportJSON(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to export")
		http.Error(w, "Failed to export", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write export response")
	}
}

// HandleRestore handles POST /api/backup/restore. The document arrives as a
// multipart upload under the "file" field or as the raw request body.
func (h *Handler) HandleRestore(w http.ResponseWriter, r *http.Request) {
	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body, err := h.documentReader(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer body.Close()

	stats, err := h.service.Restore(userID, body)
	if err != nil {
		if errors.Is(err, backup.ErrMalformedDocument) || errors.Is(err, backup.ErrUnsupportedVersion) {
			h.log.Warn().Err(err).Int64("user_id", userID).Msg("Rejected restore document")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Restore failed")
		http.Error(w, "Restore failed", http.StatusInternalServerError)
		return
	}

	total := stats.Total()
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"stats":          stats,
			"total_imported": total.Imported,
			"total_skipped":  total.Skipped,
			"total_dropped":  total.Dropped,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleCloudBackup handles POST /api/backup/cloud
func (h *Handler) HandleCloudBackup(w http.ResponseWriter, r *http.Request) {
	if h.cloud == nil {
		http.Error(w, "Cloud storage not configured", http.StatusServiceUnavailable)
		return
	}

	userID, err := users.FromRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, _, err := h.service.ExportJSON(userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to export for cloud backup")
		http.Error(w, "Failed to export", http.StatusInternalServerError)
		return
	}

	key, err := h.cloud.UploadDocument(r.Context(), userID, data)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("Failed to upload backup")
		http.Error(w, "Failed to upload backup", http.StatusInternalServerError)
		return
	}

	if _, err := h.cloud.RotateOldBackups(r.Context(), h.retentionDays); err != nil {
		h.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"key":        key,
			"size_bytes": len(data),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleListCloudBackups handles GET /api/backup/cloud
func (h *Handler) HandleListCloudBackups(w http.ResponseWriter, r *http.Request) {
	if h.cloud == nil {
		http.Error(w, "Cloud storage not configured", http.StatusServiceUnavailable)
		return
	}

	backups, err := h.cloud.ListBackups(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list backups")
		http.Error(w, "Failed to list backups", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"backups": backups,
			"count":   len(backups),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// documentReader returns the uploaded document body, handling both multipart
// uploads and raw JSON bodies.
func (h *Handler) documentReader(r *http.Request) (io.ReadCloser, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/form-data") {
		return r.Body, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart upload: %w", err)
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("multipart upload requires a \"file\" field: %w", err)
	}
	return file, nil
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
