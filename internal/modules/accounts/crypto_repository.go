package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// CryptoRepository handles crypto account database operations
type CryptoRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCryptoRepository creates a new crypto account repository
func NewCryptoRepository(db *sql.DB, log zerolog.Logger) *CryptoRepository {
	return &CryptoRepository{
		db:  db,
		log: log.With().Str("repo", "crypto_accounts").Logger(),
	}
}

// GetAllForUser returns all crypto accounts owned by a user
func (r *CryptoRepository) GetAllForUser(userID int64) ([]domain.CryptoAccount, error) {
	query := `SELECT id, user_id, portfolio_id, exchange_name, account_id, cash_balance_usd,
		is_active, created_at
		FROM crypto_accounts WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crypto accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.CryptoAccount
	for rows.Next() {
		var a domain.CryptoAccount
		err := rows.Scan(&a.ID, &a.UserID, &a.PortfolioID, &a.ExchangeName, &a.AccountID,
			&a.CashBalanceUSD, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crypto account: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crypto accounts: %w", err)
	}

	return result, nil
}

// Create inserts a new crypto account and returns its id.
// The referenced exchange is added to the global catalog if it is new.
func (r *CryptoRepository) Create(a domain.CryptoAccount, exchanges *ExchangeRepository) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if a.ExchangeName != "" {
		if _, err := exchanges.EnsureTx(tx, a.ExchangeName); err != nil {
			return 0, err
		}
	}

	id, err := r.InsertTx(tx, a)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("account_id", id).Str("exchange", a.ExchangeName).Msg("Crypto account created")
	return id, nil
}

// InsertTx inserts a crypto account within an existing transaction
func (r *CryptoRepository) InsertTx(tx *sql.Tx, a domain.CryptoAccount) (int64, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO crypto_accounts (user_id, portfolio_id, exchange_name, account_id,
			cash_balance_usd, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PortfolioID, a.ExchangeName, a.AccountID,
		a.CashBalanceUSD, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crypto account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crypto account id: %w", err)
	}
	return id, nil
}
