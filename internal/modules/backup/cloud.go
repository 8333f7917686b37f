package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/artha-io/artha/internal/config"
)

const (
	cloudKeyPrefix     = "artha-backup-"
	cloudKeyTimeFormat = "2006-01-02-150405"
	minBackupsToKeep   = 3
)

// CloudStore uploads exported documents to an S3-compatible bucket
// (Cloudflare R2) and manages their retention.
type CloudStore struct {
	client *s3.Client
	bucket string
	log    zerolog.Logger
}

// CloudBackupInfo describes one backup object stored in the bucket.
type CloudBackupInfo struct {
	Filename  string    `json:"filename"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// NewCloudStore creates a client against the configured R2 bucket.
func NewCloudStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*CloudStore, error) {
	if !cfg.CloudBackupConfigured() {
		return nil, fmt.Errorf("cloud storage is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2AccessKeyID, cfg.R2SecretAccessKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load cloud storage credentials: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.R2AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &CloudStore{
		client: client,
		bucket: cfg.R2BucketName,
		log:    log.With().Str("service", "cloud_backup").Logger(),
	}, nil
}

// UploadDocument stores one exported document under a timestamped key and
// returns that key.
func (c *CloudStore) UploadDocument(ctx context.Context, userID int64, data []byte) (string, error) {
	timestamp := time.Now().UTC().Format(cloudKeyTimeFormat)
	key := fmt.Sprintf("%s%d-%s.json", cloudKeyPrefix, userID, timestamp)
	checksum := fmt.Sprintf("sha256:%x", sha256.Sum256(data))

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"checksum": checksum,
			"user-id":  strconv.FormatInt(userID, 10),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload backup: %w", err)
	}

	c.log.Info().
		Str("key", key).
		Int("size_bytes", len(data)).
		Str("checksum", checksum).
		Msg("Backup uploaded")

	return key, nil
}

// ListBackups lists stored backups, newest first.
func (c *CloudStore) ListBackups(ctx context.Context) ([]CloudBackupInfo, error) {
	out, err := c.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(cloudKeyPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := make([]CloudBackupInfo, 0, len(out.Contents))
	now := time.Now()

	for _, obj := range out.Contents {
		if obj.Key == nil {
			continue
		}

		userID, timestamp, ok := parseBackupKey(*obj.Key)
		if !ok {
			c.log.Warn().Str("key", *obj.Key).Msg("Skipping object with unparseable backup key")
			continue
		}

		var sizeBytes int64
		if obj.Size != nil {
			sizeBytes = *obj.Size
		}

		backups = append(backups, CloudBackupInfo{
			Filename:  *obj.Key,
			UserID:    userID,
			Timestamp: timestamp,
			SizeBytes: sizeBytes,
			AgeHours:  int64(now.Sub(timestamp).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})

	return backups, nil
}

// RotateOldBackups deletes backups older than the retention period, always
// keeping the newest minBackupsToKeep regardless of age. retentionDays 0
// keeps everything.
func (c *CloudStore) RotateOldBackups(ctx context.Context, retentionDays int) (int, error) {
	backups, err := c.ListBackups(ctx)
	if err != nil {
		return 0, err
	}

	if len(backups) <= minBackupsToKeep || retentionDays == 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	deleted := 0

	for i, backup := range backups {
		if i < minBackupsToKeep {
			continue
		}
		if backup.Timestamp.After(cutoff) {
			continue
		}

		_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(backup.Filename),
		})
		if err != nil {
			c.log.Error().Err(err).Str("filename", backup.Filename).Msg("Failed to delete old backup")
			continue
		}

		c.log.Info().
			Str("filename", backup.Filename).
			Time("timestamp", backup.Timestamp).
			Msg("Deleted old backup")
		deleted++
	}

	if deleted > 0 {
		c.log.Info().
			Int("deleted", deleted).
			Int("remaining", len(backups)-deleted).
			Int("retention_days", retentionDays).
			Msg("Backup rotation completed")
	}

	return deleted, nil
}

// parseBackupKey extracts the user id and timestamp from an object key of
// the form artha-backup-<user>-<timestamp>.json.
func parseBackupKey(key string) (int64, time.Time, bool) {
	if !strings.HasPrefix(key, cloudKeyPrefix) || !strings.HasSuffix(key, ".json") {
		return 0, time.Time{}, false
	}

	rest := strings.TrimSuffix(strings.TrimPrefix(key, cloudKeyPrefix), ".json")
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 {
		return 0, time.Time{}, false
	}

	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}

	timestamp, err := time.Parse(cloudKeyTimeFormat, parts[1])
	if err != nil {
		return 0, time.Time{}, false
	}

	return userID, timestamp, true
}
