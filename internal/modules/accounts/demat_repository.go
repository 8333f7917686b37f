package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// DematRepository handles demat (brokerage) account database operations
type DematRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewDematRepository creates a new demat account repository
func NewDematRepository(db *sql.DB, log zerolog.Logger) *DematRepository {
	return &DematRepository{
		db:  db,
		log: log.With().Str("repo", "demat_accounts").Logger(),
	}
}

// GetAllForUser returns all demat accounts owned by a user
func (r *DematRepository) GetAllForUser(userID int64) ([]domain.DematAccount, error) {
	query := `SELECT id, user_id, portfolio_id, broker_name, account_id, cash_balance,
		currency, is_active, created_at
		FROM demat_accounts WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query demat accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.DematAccount
	for rows.Next() {
		var a domain.DematAccount
		err := rows.Scan(&a.ID, &a.UserID, &a.PortfolioID, &a.BrokerName, &a.AccountID,
			&a.CashBalance, &a.Currency, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan demat account: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating demat accounts: %w", err)
	}

	return result, nil
}

// Create inserts a new demat account and returns its id
func (r *DematRepository) Create(a domain.DematAccount) (int64, error) {
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

	r.log.Info().Int64("account_id", id).Str("broker", a.BrokerName).Msg("Demat account created")
	return id, nil
}

// InsertTx inserts a demat account within an existing transaction
func (r *DematRepository) InsertTx(tx *sql.Tx, a domain.DematAccount) (int64, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if a.Currency == "" {
		a.Currency = "INR"
	}

	res, err := tx.Exec(`
		INSERT INTO demat_accounts (user_id, portfolio_id, broker_name, account_id,
			cash_balance, currency, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PortfolioID, a.BrokerName, a.AccountID,
		a.CashBalance, a.Currency, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert demat account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get demat account id: %w", err)
	}
	return id, nil
}
