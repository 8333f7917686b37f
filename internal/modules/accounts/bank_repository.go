// Package accounts provides bank, demat and crypto account operations.
package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// BankRepository handles bank account database operations
type BankRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewBankRepository creates a new bank account repository
func NewBankRepository(db *sql.DB, log zerolog.Logger) *BankRepository {
	return &BankRepository{
		db:  db,
		log: log.With().Str("repo", "bank_accounts").Logger(),
	}
}

// GetAllForUser returns all bank accounts owned by a user
func (r *BankRepository) GetAllForUser(userID int64) ([]domain.BankAccount, error) {
	query := `SELECT id, user_id, portfolio_id, bank_name, account_type, account_number,
		balance, currency, is_active, created_at
		FROM bank_accounts WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bank accounts: %w", err)
	}
	defer rows.Close()

	var result []domain.BankAccount
	for rows.Next() {
		var a domain.BankAccount
		err := rows.Scan(&a.ID, &a.UserID, &a.PortfolioID, &a.BankName, &a.AccountType,
			&a.AccountNumber, &a.Balance, &a.Currency, &a.IsActive, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bank account: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank accounts: %w", err)
	}

	return result, nil
}

// GetByID returns one bank account, or nil if not found
func (r *BankRepository) GetByID(id int64) (*domain.BankAccount, error) {
	query := `SELECT id, user_id, portfolio_id, bank_name, account_type, account_number,
		balance, currency, is_active, created_at
		FROM bank_accounts WHERE id = ?`

	var a domain.BankAccount
	err := r.db.QueryRow(query, id).Scan(&a.ID, &a.UserID, &a.PortfolioID, &a.BankName,
		&a.AccountType, &a.AccountNumber, &a.Balance, &a.Currency, &a.IsActive, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query bank account: %w", err)
	}

	return &a, nil
}

// Create inserts a new bank account and returns its id
func (r *BankRepository) Create(a domain.BankAccount) (int64, error) {
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

	r.log.Info().Int64("account_id", id).Str("bank", a.BankName).Msg("Bank account created")
	return id, nil
}

// InsertTx inserts a bank account within an existing transaction
func (r *BankRepository) InsertTx(tx *sql.Tx, a domain.BankAccount) (int64, error) {
	if a.CreatedAt == "" {
		a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if a.Currency == "" {
		a.Currency = "INR"
	}

	res, err := tx.Exec(`
		INSERT INTO bank_accounts (user_id, portfolio_id, bank_name, account_type, account_number,
			balance, currency, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.UserID, a.PortfolioID, a.BankName, a.AccountType, a.AccountNumber,
		a.Balance, a.Currency, a.IsActive, a.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert bank account: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get bank account id: %w", err)
	}
	return id, nil
}
