package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/scheduler"
)

// SystemHandlers handles system-wide monitoring and operations endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	db          *database.DB
	scheduler   *scheduler.Scheduler

	// Jobs (set after job registration in main.go)
	snapshotJob    scheduler.Job
	cloudBackupJob scheduler.Job
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, db *database.DB, sched *scheduler.Scheduler) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		db:          db,
		scheduler:   sched,
	}
}

// SetJobs registers job references for manual triggering
func (h *SystemHandlers) SetJobs(snapshots, cloudBackup scheduler.Job) {
	h.snapshotJob = snapshots
	h.cloudBackupJob = cloudBackup
}

// SystemStatusResponse represents the system status response
type SystemStatusResponse struct {
	Status        string  `json:"status"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	CPUPercent    float64 `json:"cpu_percent"`
	RAMPercent    float64 `json:"ram_percent"`
	UserCount     int     `json:"user_count"`
	AssetCount    int     `json:"asset_count"`
}

// DatabaseStatsResponse represents database statistics
type DatabaseStatsResponse struct {
	Path        string  `json:"path"`
	SizeMB      float64 `json:"size_mb"`
	WALSizeMB   float64 `json:"wal_size_mb"`
	PageCount   int64   `json:"page_count"`
	PageSize    int64   `json:"page_size"`
	FreePages   int64   `json:"free_pages"`
	LastChecked string  `json:"last_checked"`
}

// HandleSystemStatus returns comprehensive system status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting system status")

	cpuPercent, ramPercent := h.getSystemStats()

	var userCount, assetCount int
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		h.log.Error().Err(err).Msg("Failed to count users")
	}
	if err := h.db.QueryRow(`SELECT COUNT(*) FROM assets WHERE is_active = 1`).Scan(&assetCount); err != nil {
		h.log.Error().Err(err).Msg("Failed to count assets")
	}

	response := SystemStatusResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		UserCount:     userCount,
		AssetCount:    assetCount,
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats returns database statistics
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	h.log.Debug().Msg("Getting database stats")

	stats, err := h.db.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	response := DatabaseStatsResponse{
		Path:        h.db.Path(),
		SizeMB:      float64(stats.SizeBytes) / 1024 / 1024,
		WALSizeMB:   float64(stats.WALSizeBytes) / 1024 / 1024,
		PageCount:   stats.PageCount,
		PageSize:    stats.PageSize,
		FreePages:   stats.FreelistCount,
		LastChecked: time.Now().Format(time.RFC3339),
	}

	h.writeJSON(w, response)
}

// HandleTriggerSnapshots triggers the daily snapshot job immediately
// POST /api/system/jobs/snapshots
func (h *SystemHandlers) HandleTriggerSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshotJob == nil {
		h.log.Warn().Msg("Snapshot job not registered yet")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Snapshot job not registered",
		})
		return
	}

	h.log.Info().Msg("Manual snapshot run triggered")

	if err := h.scheduler.RunNow(h.snapshotJob); err != nil {
		h.log.Error().Err(err).Msg("Failed to trigger snapshots")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Snapshots computed successfully",
	})
}

// HandleTriggerBackup triggers the cloud backup job immediately
// POST /api/system/jobs/backup
func (h *SystemHandlers) HandleTriggerBackup(w http.ResponseWriter, r *http.Request) {
	if h.cloudBackupJob == nil {
		h.log.Warn().Msg("Cloud backup job not registered")
		h.writeJSON(w, map[string]string{
			"status":  "error",
			"message": "Cloud backup is not configured",
		})
		return
	}

	h.log.Info().Msg("Manual cloud backup triggered")

	if err := h.scheduler.RunNow(h.cloudBackupJob); err != nil {
		h.log.Error().Err(err).Msg("Failed to trigger cloud backup")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]string{
		"status":  "success",
		"message": "Cloud backup completed successfully",
	})
}

// getSystemStats calculates CPU and RAM usage percentages
// Uses a short interval (100ms) so the status endpoint stays responsive
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
