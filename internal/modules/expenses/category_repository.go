// Package expenses provides expense ledger and category operations.
package expenses

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// CategoryRepository handles expense category database operations
type CategoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewCategoryRepository creates a new expense category repository
func NewCategoryRepository(db *sql.DB, log zerolog.Logger) *CategoryRepository {
	return &CategoryRepository{
		db:  db,
		log: log.With().Str("repo", "expense_categories").Logger(),
	}
}

const categoryColumns = `id, user_id, name, is_system, is_income, parent_id, created_at`

// GetSystem returns the shared system category taxonomy
func (r *CategoryRepository) GetSystem() ([]domain.ExpenseCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM expense_categories WHERE user_id IS NULL ORDER BY name`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query system categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// GetForUser returns the categories a user created
func (r *CategoryRepository) GetForUser(userID int64) ([]domain.ExpenseCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM expense_categories WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

// GetVisibleForUser returns system categories plus the user's own
func (r *CategoryRepository) GetVisibleForUser(userID int64) ([]domain.ExpenseCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM expense_categories
		WHERE user_id IS NULL OR user_id = ? ORDER BY is_system DESC, name`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query visible categories: %w", err)
	}
	defer rows.Close()

	return collectCategories(rows)
}

func collectCategories(rows *sql.Rows) ([]domain.ExpenseCategory, error) {
	var result []domain.ExpenseCategory
	for rows.Next() {
		var c domain.ExpenseCategory
		var userID, parentID sql.NullInt64
		err := rows.Scan(&c.ID, &userID, &c.Name, &c.IsSystem, &c.IsIncome, &parentID, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		if userID.Valid {
			c.UserID = &userID.Int64
		}
		if parentID.Valid {
			c.ParentID = &parentID.Int64
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return result, nil
}

// Create inserts a new user category and returns its id
func (r *CategoryRepository) Create(c domain.ExpenseCategory) (int64, error) {
	if c.UserID == nil {
		return 0, fmt.Errorf("user categories require a user id")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, c)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("category_id", id).Str("name", c.Name).Msg("Expense category created")
	return id, nil
}

// InsertTx inserts a category within an existing transaction
func (r *CategoryRepository) InsertTx(tx *sql.Tx, c domain.ExpenseCategory) (int64, error) {
	if c.CreatedAt == "" {
		c.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO expense_categories (user_id, name, is_system, is_income, parent_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(c.UserID), c.Name, c.IsSystem, c.IsIncome, nullableID(c.ParentID), c.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get category id: %w", err)
	}
	return id, nil
}

// UpdateParentTx sets the parent of a category within an existing transaction
func (r *CategoryRepository) UpdateParentTx(tx *sql.Tx, id int64, parentID *int64) error {
	_, err := tx.Exec(`UPDATE expense_categories SET parent_id = ? WHERE id = ?`,
		nullableID(parentID), id)
	if err != nil {
		return fmt.Errorf("failed to update category parent: %w", err)
	}
	return nil
}

func nullableID(val *int64) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: *val, Valid: true}
}
