// Package alerts provides user notification operations.
package alerts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles alert database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new alert repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "alerts").Logger(),
	}
}

const alertColumns = `id, user_id, asset_id, alert_type, title, message, alert_date, is_read, created_at`

// GetAllForUser returns all alerts for a user, newest first
func (r *Repository) GetAllForUser(userID int64) ([]domain.Alert, error) {
	query := `SELECT ` + alertColumns + ` FROM alerts WHERE user_id = ? ORDER BY alert_date DESC, id DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var result []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var assetID sql.NullInt64
		err := rows.Scan(&a.ID, &a.UserID, &assetID, &a.AlertType, &a.Title,
			&a.Message, &a.AlertDate, &a.IsRead, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		if assetID.Valid {
			a.AssetID = &assetID.Int64
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alerts: %w", err)
	}

	return result, nil
}

// Create inserts a new alert and returns its id
func (r *Repository) Create(a domain.Alert) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, a)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("alert_id", id).Str("type", string(a.AlertType)).
		Str("title", a.Title).Msg("Alert created")
	return id, nil
}

// InsertTx inserts an alert within an existing transaction
func (r *Repository) InsertTx(tx *sql.Tx, a domain.Alert) (int64, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	var assetID sql.NullInt64
	if a.AssetID != nil {
		assetID = sql.NullInt64{Int64: *a.AssetID, Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO alerts (user_id, asset_id, alert_type, title, message, alert_date, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, assetID, a.AlertType, a.Title, a.Message, a.AlertDate, a.IsRead, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get alert id: %w", err)
	}
	return id, nil
}

// MarkRead flags an alert as read
func (r *Repository) MarkRead(id int64) error {
	res, err := r.db.Exec(`UPDATE alerts SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark alert read: %w", err)
	}

	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("alert %d not found", id)
	}
	return nil
}
