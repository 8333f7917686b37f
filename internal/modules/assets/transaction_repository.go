package assets

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// TransactionRepository handles buy/sell/income transaction database operations
type TransactionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *sql.DB, log zerolog.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:  db,
		log: log.With().Str("repo", "transactions").Logger(),
	}
}

const transactionColumns = `id, user_id, asset_id, transaction_type, quantity, price_per_unit,
	total_amount, transaction_date, notes, created_at`

// GetAllForUser returns all transactions recorded by a user
func (r *TransactionRepository) GetAllForUser(userID int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE user_id = ? ORDER BY transaction_date, id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

// GetByAsset returns all transactions for one asset
func (r *TransactionRepository) GetByAsset(assetID int64) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE asset_id = ? ORDER BY transaction_date, id`

	rows, err := r.db.Query(query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var result []domain.Transaction
	for rows.Next() {
		var t domain.Transaction
		err := rows.Scan(&t.ID, &t.UserID, &t.AssetID, &t.TransactionType, &t.Quantity,
			&t.PricePerUnit, &t.TotalAmount, &t.TransactionDate, &t.Notes, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return result, nil
}

// Create inserts a new transaction and returns its id
func (r *TransactionRepository) Create(t domain.Transaction) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, t)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("transaction_id", id).Int64("asset_id", t.AssetID).
		Str("type", string(t.TransactionType)).Msg("Transaction recorded")
	return id, nil
}

// InsertTx inserts a transaction within an existing transaction
func (r *TransactionRepository) InsertTx(tx *sql.Tx, t domain.Transaction) (int64, error) {
	if t.CreatedAt == "" {
		t.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO transactions (user_id, asset_id, transaction_type, quantity, price_per_unit,
			total_amount, transaction_date, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.AssetID, t.TransactionType, t.Quantity, t.PricePerUnit,
		t.TotalAmount, t.TransactionDate, t.Notes, t.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get transaction id: %w", err)
	}
	return id, nil
}
