// Package assets provides holdings, transactions and fund breakdown operations.
package assets

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// AssetRepository handles asset (holding lot) database operations
type AssetRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAssetRepository creates a new asset repository
func NewAssetRepository(db *sql.DB, log zerolog.Logger) *AssetRepository {
	return &AssetRepository{
		db:  db,
		log: log.With().Str("repo", "assets").Logger(),
	}
}

const assetColumns = `id, user_id, portfolio_id, demat_account_id, crypto_account_id,
	asset_type, name, symbol, quantity, avg_buy_price, total_invested, current_value,
	currency, purchase_date, notes, is_active, created_at, updated_at`

// GetAllForUser returns all assets owned by a user
func (r *AssetRepository) GetAllForUser(userID int64) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var result []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}

	return result, nil
}

// GetByID returns one asset, or nil if not found
func (r *AssetRepository) GetByID(id int64) (*domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = ?`

	rows, err := r.db.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query asset: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, nil
	}

	a, err := scanAsset(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan asset: %w", err)
	}
	return &a, nil
}

// Create inserts a new asset and returns its id
func (r *AssetRepository) Create(a domain.Asset) (int64, error) {
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

	r.log.Info().Int64("asset_id", id).Str("name", a.Name).Str("type", string(a.AssetType)).Msg("Asset created")
	return id, nil
}

// InsertTx inserts an asset within an existing transaction
func (r *AssetRepository) InsertTx(tx *sql.Tx, a domain.Asset) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	if a.CreatedAt == "" {
		a.CreatedAt = now
	}
	if a.UpdatedAt == "" {
		a.UpdatedAt = now
	}
	if a.Currency == "" {
		a.Currency = "INR"
	}

	res, err := tx.Exec(`
		INSERT INTO assets (user_id, portfolio_id, demat_account_id, crypto_account_id,
			asset_type, name, symbol, quantity, avg_buy_price, total_invested, current_value,
			currency, purchase_date, notes, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PortfolioID, nullInt64(a.DematAccountID), nullInt64(a.CryptoAccountID),
		a.AssetType, a.Name, a.Symbol, a.Quantity, a.AvgBuyPrice, a.TotalInvested, a.CurrentValue,
		a.Currency, nullString(a.PurchaseDate), a.Notes, a.IsActive, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert asset: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get asset id: %w", err)
	}
	return id, nil
}

// UpdateCurrentValue sets an asset's current value (used by price update flows)
func (r *AssetRepository) UpdateCurrentValue(id int64, currentValue float64) error {
	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(`UPDATE assets SET current_value = ?, updated_at = ? WHERE id = ?`,
		currentValue, now, id)
	if err != nil {
		return fmt.Errorf("failed to update asset value: %w", err)
	}

	rowsAffected, _ := res.RowsAffected()
	r.log.Debug().Int64("asset_id", id).Float64("current_value", currentValue).
		Int64("rows_affected", rowsAffected).Msg("Asset value updated")
	return nil
}

// scanAsset scans a database row into an Asset struct
func scanAsset(rows *sql.Rows) (domain.Asset, error) {
	var a domain.Asset
	var dematID, cryptoID sql.NullInt64
	var purchaseDate sql.NullString

	err := rows.Scan(
		&a.ID, &a.UserID, &a.PortfolioID, &dematID, &cryptoID,
		&a.AssetType, &a.Name, &a.Symbol, &a.Quantity, &a.AvgBuyPrice,
		&a.TotalInvested, &a.CurrentValue, &a.Currency, &purchaseDate,
		&a.Notes, &a.IsActive, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return a, err
	}

	if dematID.Valid {
		a.DematAccountID = &dematID.Int64
	}
	if cryptoID.Valid {
		a.CryptoAccountID = &cryptoID.Int64
	}
	if purchaseDate.Valid {
		a.PurchaseDate = purchaseDate.String
	}

	return a, nil
}

// Helper functions for nullable types

func nullInt64(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}

func nullString(val string) sql.NullString {
	if val == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: val, Valid: true}
}
