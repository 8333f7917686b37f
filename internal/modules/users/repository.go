// Package users provides user accounts and acting-user resolution.
package users

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// Repository handles user database operations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new user repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "users").Logger(),
	}
}

// GetByID returns a user by id, or nil if not found
func (r *Repository) GetByID(id int64) (*domain.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE id = ?`

	var u domain.User
	err := r.db.QueryRow(query, id).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by id: %w", err)
	}

	return &u, nil
}

// GetByEmail returns a user by email, or nil if not found
func (r *Repository) GetByEmail(email string) (*domain.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE email = ?`

	var u domain.User
	err := r.db.QueryRow(query, email).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user by email: %w", err)
	}

	return &u, nil
}

// GetAll returns all users
func (r *Repository) GetAll() ([]domain.User, error) {
	rows, err := r.db.Query(`SELECT id, email, name, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result = append(result, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return result, nil
}

// Create inserts a new user and returns its id
func (r *Repository) Create(email, name string) (int64, error) {
	if email == "" {
		return 0, fmt.Errorf("email is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	res, err := r.db.Exec(`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`, email, name, now)
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get user id: %w", err)
	}

	r.log.Info().Int64("user_id", id).Str("email", email).Msg("User created")
	return id, nil
}
