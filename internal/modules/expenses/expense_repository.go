package expenses

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// ExpenseRepository handles expense ledger database operations
type ExpenseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExpenseRepository creates a new expense repository
func NewExpenseRepository(db *sql.DB, log zerolog.Logger) *ExpenseRepository {
	return &ExpenseRepository{
		db:  db,
		log: log.With().Str("repo", "expenses").Logger(),
	}
}

const expenseColumns = `id, user_id, bank_account_id, category_id, transaction_date,
	amount, description, merchant, is_debit, created_at`

// GetAllForUser returns all expenses for a user ordered by date
func (r *ExpenseRepository) GetAllForUser(userID int64) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = ? ORDER BY transaction_date, id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

// GetByDateRange returns a user's expenses between two dates inclusive
func (r *ExpenseRepository) GetByDateRange(userID int64, from, to string) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE user_id = ? AND transaction_date >= ? AND transaction_date <= ?
		ORDER BY transaction_date, id`

	rows, err := r.db.Query(query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	return collectExpenses(rows)
}

func collectExpenses(rows *sql.Rows) ([]domain.Expense, error) {
	var result []domain.Expense
	for rows.Next() {
		var e domain.Expense
		var categoryID sql.NullInt64
		err := rows.Scan(&e.ID, &e.UserID, &e.BankAccountID, &categoryID, &e.TransactionDate,
			&e.Amount, &e.Description, &e.Merchant, &e.IsDebit, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		if categoryID.Valid {
			e.CategoryID = &categoryID.Int64
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}

	return result, nil
}

// Create inserts a new expense and returns its id
func (r *ExpenseRepository) Create(e domain.Expense) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, e)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("expense_id", id).Float64("amount", e.Amount).Msg("Expense recorded")
	return id, nil
}

// InsertTx inserts an expense within an existing transaction
func (r *ExpenseRepository) InsertTx(tx *sql.Tx, e domain.Expense) (int64, error) {
	if e.CreatedAt == "" {
		e.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO expenses (user_id, bank_account_id, category_id, transaction_date,
			amount, description, merchant, is_debit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.UserID, e.BankAccountID, nullableID(e.CategoryID), e.TransactionDate,
		e.Amount, e.Description, e.Merchant, e.IsDebit, e.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get expense id: %w", err)
	}
	return id, nil
}
