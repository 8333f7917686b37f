package assets

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// HoldingRepository handles mutual fund underlying holding database operations
type HoldingRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHoldingRepository creates a new mutual fund holding repository
func NewHoldingRepository(db *sql.DB, log zerolog.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:  db,
		log: log.With().Str("repo", "mf_holdings").Logger(),
	}
}

const holdingColumns = `id, user_id, asset_id, stock_name, stock_symbol,
	holding_percentage, holding_value, created_at`

// GetAllForUser returns all mutual fund holdings for a user
func (r *HoldingRepository) GetAllForUser(userID int64) ([]domain.MutualFundHolding, error) {
	query := `SELECT ` + holdingColumns + ` FROM mutual_fund_holdings WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutual fund holdings: %w", err)
	}
	defer rows.Close()

	return collectHoldings(rows)
}

// GetByAsset returns the underlying holdings of one mutual fund asset
func (r *HoldingRepository) GetByAsset(assetID int64) ([]domain.MutualFundHolding, error) {
	query := `SELECT ` + holdingColumns + ` FROM mutual_fund_holdings WHERE asset_id = ? ORDER BY holding_percentage DESC, id`

	rows, err := r.db.Query(query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mutual fund holdings: %w", err)
	}
	defer rows.Close()

	return collectHoldings(rows)
}

func collectHoldings(rows *sql.Rows) ([]domain.MutualFundHolding, error) {
	var result []domain.MutualFundHolding
	for rows.Next() {
		var h domain.MutualFundHolding
		err := rows.Scan(&h.ID, &h.UserID, &h.AssetID, &h.StockName, &h.StockSymbol,
			&h.HoldingPercentage, &h.HoldingValue, &h.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mutual fund holding: %w", err)
		}
		result = append(result, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mutual fund holdings: %w", err)
	}

	return result, nil
}

// Create inserts a new mutual fund holding and returns its id
func (r *HoldingRepository) Create(h domain.MutualFundHolding) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, h)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("holding_id", id).Int64("asset_id", h.AssetID).
		Str("stock", h.StockName).Msg("Mutual fund holding created")
	return id, nil
}

// InsertTx inserts a mutual fund holding within an existing transaction
func (r *HoldingRepository) InsertTx(tx *sql.Tx, h domain.MutualFundHolding) (int64, error) {
	if h.CreatedAt == "" {
		h.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO mutual_fund_holdings (user_id, asset_id, stock_name, stock_symbol,
			holding_percentage, holding_value, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.UserID, h.AssetID, h.StockName, h.StockSymbol,
		h.HoldingPercentage, h.HoldingValue, h.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert mutual fund holding: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get holding id: %w", err)
	}
	return id, nil
}
