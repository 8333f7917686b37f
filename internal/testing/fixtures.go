package testing

import (
	"testing"
	"time"

	"github.com/artha-io/artha/internal/database"
)

// CreateTestUser inserts a user and their default portfolio directly,
// bypassing the repositories so module tests can depend on this package
// without import cycles. Returns the new user's id.
func CreateTestUser(t *testing.T, db *database.DB, email string) int64 {
	t.Helper()

	now := time.Now().UTC().Format(time.RFC3339)

	res, err := db.Exec(
		`INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)`,
		email, "Test User", now,
	)
	if err != nil {
		t.Fatalf("Failed to insert test user: %v", err)
	}

	userID, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get test user id: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO portfolios (user_id, name, description, is_default, is_active, created_at)
		 VALUES (?, 'Default', '', 1, 1, ?)`,
		userID, now,
	)
	if err != nil {
		t.Fatalf("Failed to insert default portfolio: %v", err)
	}

	return userID
}

// DefaultPortfolioID returns the id of the user's default portfolio.
func DefaultPortfolioID(t *testing.T, db *database.DB, userID int64) int64 {
	t.Helper()

	var id int64
	err := db.QueryRow(
		`SELECT id FROM portfolios WHERE user_id = ? AND is_default = 1`,
		userID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to look up default portfolio: %v", err)
	}
	return id
}

// CountRows returns the number of rows in a table owned by the user.
func CountRows(t *testing.T, db *database.DB, table string, userID int64) int {
	t.Helper()

	var n int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM `+table+` WHERE user_id = ?`, userID,
	).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}
	return n
}
