// Package portfolio provides portfolio grouping operations.
//
// Every user has exactly one default portfolio; it is the fallback owner for
// accounts and assets whose portfolio reference cannot be resolved.
package portfolio

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultPortfolioName is the name given to an auto-created default portfolio.
const DefaultPortfolioName = "Default"

// Repository handles portfolio database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new portfolio repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// GetAllForUser returns all portfolios owned by a user
func (r *Repository) GetAllForUser(userID int64) ([]domain.Portfolio, error) {
	query := `SELECT id, user_id, name, description, is_default, is_active, created_at
		FROM portfolios WHERE user_id = ? ORDER BY id`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var result []domain.Portfolio
	for rows.Next() {
		var p domain.Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsDefault, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return result, nil
}

// GetDefault returns the user's default portfolio, or nil if none exists
func (r *Repository) GetDefault(userID int64) (*domain.Portfolio, error) {
	query := `SELECT id, user_id, name, description, is_default, is_active, created_at
		FROM portfolios WHERE user_id = ? AND is_default = 1 LIMIT 1`

	var p domain.Portfolio
	err := r.db.QueryRow(query, userID).Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.IsDefault, &p.IsActive, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query default portfolio: %w", err)
	}

	return &p, nil
}

// Create inserts a new portfolio and returns its id
func (r *Repository) Create(p domain.Portfolio) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.InsertTx(tx, p)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.log.Info().Int64("portfolio_id", id).Str("name", p.Name).Msg("Portfolio created")
	return id, nil
}

// InsertTx inserts a portfolio within an existing transaction
func (r *Repository) InsertTx(tx *sql.Tx, p domain.Portfolio) (int64, error) {
	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	res, err := tx.Exec(`
		INSERT INTO portfolios (user_id, name, description, is_default, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Name, p.Description, p.IsDefault, p.IsActive, p.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get portfolio id: %w", err)
	}
	return id, nil
}

// EnsureDefaultTx guarantees the user has exactly one default portfolio and
// returns its id. If the user has no default but already owns a portfolio
// named "Default", that row is promoted; otherwise a fresh one is created.
func (r *Repository) EnsureDefaultTx(tx *sql.Tx, userID int64) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM portfolios WHERE user_id = ? AND is_default = 1 LIMIT 1`, userID).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query default portfolio: %w", err)
	}

	err = tx.QueryRow(`SELECT id FROM portfolios WHERE user_id = ? AND name = ? LIMIT 1`, userID, DefaultPortfolioName).Scan(&id)
	if err == nil {
		if _, err := tx.Exec(`UPDATE portfolios SET is_default = 1 WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("failed to promote default portfolio: %w", err)
		}
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query portfolio by name: %w", err)
	}

	return r.InsertTx(tx, domain.Portfolio{
		UserID:    userID,
		Name:      DefaultPortfolioName,
		IsDefault: true,
		IsActive:  true,
	})
}

// EnsureDefault is the non-transactional variant of EnsureDefaultTx.
func (r *Repository) EnsureDefault(userID int64) (int64, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := r.EnsureDefaultTx(tx, userID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return id, nil
}
