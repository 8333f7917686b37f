// Package snapshots provides daily portfolio valuation snapshot operations.
package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles portfolio snapshot database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new snapshot repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "snapshots").Logger(),
	}
}

const snapshotColumns = `id, user_id, snapshot_date, total_value, total_invested,
	bank_balance, demat_cash, crypto_value, created_at`

const assetSnapshotColumns = `id, snapshot_id, asset_id, source, asset_type, asset_name,
	invested_value, current_value, created_at`

// GetAllForUser returns all portfolio snapshots for a user ordered by date
func (r *Repository) GetAllForUser(userID int64) ([]domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE user_id = ? ORDER BY snapshot_date`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var result []domain.PortfolioSnapshot
	for rows.Next() {
		var s domain.PortfolioSnapshot
		err := rows.Scan(&s.ID, &s.UserID, &s.SnapshotDate, &s.TotalValue, &s.TotalInvested,
			&s.BankBalance, &s.DematCash, &s.CryptoValue, &s.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		result = append(result, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return result, nil
}

// GetByDate returns the snapshot for one date, or nil if none exists
func (r *Repository) GetByDate(userID int64, date string) (*domain.PortfolioSnapshot, error) {
	query := `SELECT ` + snapshotColumns + ` FROM portfolio_snapshots WHERE user_id = ? AND snapshot_date = ?`

	var s domain.PortfolioSnapshot
	err := r.db.QueryRow(query, userID, date).Scan(&s.ID, &s.UserID, &s.SnapshotDate,
		&s.TotalValue, &s.TotalInvested, &s.BankBalance, &s.DematCash, &s.CryptoValue, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	return &s, nil
}

// GetAssetSnapshots returns the per-position rows of one snapshot
func (r *Repository) GetAssetSnapshots(snapshotID int64) ([]domain.AssetSnapshot, error) {
	query := `SELECT ` + assetSnapshotColumns + ` FROM asset_snapshots WHERE snapshot_id = ? ORDER BY id`

	rows, err := r.db.Query(query, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset snapshots: %w", err)
	}
	defer rows.Close()

	var result []domain.AssetSnapshot
	for rows.Next() {
		var as domain.AssetSnapshot
		var assetID sql.NullInt64
		err := rows.Scan(&as.ID, &as.SnapshotID, &assetID, &as.Source, &as.AssetType,
			&as.AssetName, &as.InvestedValue, &as.CurrentValue, &as.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset snapshot: %w", err)
		}
		if assetID.Valid {
			as.AssetID = &assetID.Int64
		}
		result = append(result, as)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset snapshots: %w", err)
	}

	return result, nil
}

// InsertTx inserts a portfolio snapshot within an existing transaction
func (r *Repository) InsertTx(tx *sql.Tx, s domain.PortfolioSnapshot) (int64, error) {
	if s.CreatedAt == "" {
		s.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO portfolio_snapshots (user_id, snapshot_date, total_value, total_invested,
			bank_balance, demat_cash, crypto_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.UserID, s.SnapshotDate, s.TotalValue, s.TotalInvested,
		s.BankBalance, s.DematCash, s.CryptoValue, s.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get snapshot id: %w", err)
	}
	return id, nil
}

// InsertAssetTx inserts one per-position row within an existing transaction
func (r *Repository) InsertAssetTx(tx *sql.Tx, as domain.AssetSnapshot) (int64, error) {
	if as.CreatedAt == "" {
		as.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if as.Source == "" {
		as.Source = domain.SnapshotSourceAsset
	}

	var assetID sql.NullInt64
	if as.AssetID != nil {
		assetID = sql.NullInt64{Int64: *as.AssetID, Valid: true}
	}

	res, err := tx.Exec(`
		INSERT INTO asset_snapshots (snapshot_id, asset_id, source, asset_type, asset_name,
			invested_value, current_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		as.SnapshotID, assetID, as.Source, as.AssetType, as.AssetName,
		as.InvestedValue, as.CurrentValue, as.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert asset snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get asset snapshot id: %w", err)
	}
	return id, nil
}

// DeleteForDateTx removes the snapshot for one date along with its position rows.
// Children go via ON DELETE CASCADE.
func (r *Repository) DeleteForDateTx(tx *sql.Tx, userID int64, date string) error {
	_, err := tx.Exec(`DELETE FROM portfolio_snapshots WHERE user_id = ? AND snapshot_date = ?`,
		userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
