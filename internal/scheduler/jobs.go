package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/modules/backup"
	"github.com/artha-io/artha/internal/modules/snapshots"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// SnapshotJob computes the daily portfolio snapshot for every user.
type SnapshotJob struct {
	users     *users.Repository
	snapshots *snapshots.Service
	log       zerolog.Logger
}

// NewSnapshotJob creates the daily snapshot job
func NewSnapshotJob(userRepo *users.Repository, snapshotService *snapshots.Service, log zerolog.Logger) *SnapshotJob {
	return &SnapshotJob{
		users:     userRepo,
		snapshots: snapshotService,
		log:       log.With().Str("job", "daily_snapshots").Logger(),
	}
}

// Name returns the job name
func (j *SnapshotJob) Name() string {
	return "daily_snapshots"
}

// Run computes today's snapshot for each user. A failure for one user
// does not stop the remaining users.
func (j *SnapshotJob) Run() error {
	allUsers, err := j.users.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	var failed int
	for _, u := range allUsers {
		if _, err := j.snapshots.ComputeDaily(u.ID); err != nil {
			failed++
			j.log.Error().Err(err).Int64("user_id", u.ID).Msg("Snapshot failed")
		}
	}

	if failed > 0 {
		return fmt.Errorf("snapshots failed for %d of %d users", failed, len(allUsers))
	}

	j.log.Info().Int("users", len(allUsers)).Msg("Daily snapshots computed")
	return nil
}

// CloudBackupJob exports each user's data and uploads it to cloud storage,
// then rotates old backups past the retention window.
type CloudBackupJob struct {
	users         *users.Repository
	backups       *backup.Service
	cloud         *backup.CloudStore
	retentionDays int
	log           zerolog.Logger
}

// NewCloudBackupJob creates the nightly cloud backup job
func NewCloudBackupJob(
	userRepo *users.Repository,
	backupService *backup.Service,
	cloud *backup.CloudStore,
	retentionDays int,
	log zerolog.Logger,
) *CloudBackupJob {
	return &CloudBackupJob{
		users:         userRepo,
		backups:       backupService,
		cloud:         cloud,
		retentionDays: retentionDays,
		log:           log.With().Str("job", "cloud_backup").Logger(),
	}
}

// Name returns the job name
func (j *CloudBackupJob) Name() string {
	return "cloud_backup"
}

// Run uploads a fresh backup for each user and prunes old ones.
func (j *CloudBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	allUsers, err := j.users.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}

	var failed int
	for _, u := range allUsers {
		data, _, err := j.backups.ExportJSON(u.ID)
		if err != nil {
			failed++
			j.log.Error().Err(err).Int64("user_id", u.ID).Msg("Export failed")
			continue
		}

		key, err := j.cloud.UploadDocument(ctx, u.ID, data)
		if err != nil {
			failed++
			j.log.Error().Err(err).Int64("user_id", u.ID).Msg("Upload failed")
			continue
		}

		j.log.Info().Int64("user_id", u.ID).Str("key", key).Msg("Backup uploaded")
	}

	if _, err := j.cloud.RotateOldBackups(ctx, j.retentionDays); err != nil {
		j.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	if failed > 0 {
		return fmt.Errorf("backups failed for %d of %d users", failed, len(allUsers))
	}
	return nil
}
