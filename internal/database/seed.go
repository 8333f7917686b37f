package database

import (
	"database/sql"
	"fmt"
	"time"
)

// systemCategory is one entry of the fixed shared expense taxonomy.
type systemCategory struct {
	name     string
	isIncome bool
}

// systemCategories is the fixed taxonomy shared by all users. Restore never
// creates system categories, so this list is the only place they come from.
var systemCategories = []systemCategory{
	{"Food & Dining", false},
	{"Groceries", false},
	{"Transport", false},
	{"Fuel", false},
	{"Shopping", false},
	{"Entertainment", false},
	{"Utilities", false},
	{"Rent", false},
	{"EMI", false},
	{"Healthcare", false},
	{"Insurance", false},
	{"Education", false},
	{"Travel", false},
	{"Personal Care", false},
	{"Investments", false},
	{"Transfers", false},
	{"Fees & Charges", false},
	{"Salary", true},
	{"Interest", true},
	{"Dividends", true},
	{"Refunds", true},
	{"Other", false},
}

// SeedSystemCategories inserts any missing system expense categories.
// Existing rows are left untouched.
func (db *DB) SeedSystemCategories() error {
	now := time.Now().UTC().Format(time.RFC3339)

	return WithTransaction(db.conn, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT OR IGNORE INTO expense_categories (user_id, name, is_system, is_income, created_at)
			VALUES (NULL, ?, 1, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare system category insert: %w", err)
		}
		defer stmt.Close()

		for _, cat := range systemCategories {
			if _, err := stmt.Exec(cat.name, cat.isIncome, now); err != nil {
				return fmt.Errorf("failed to seed system category %q: %w", cat.name, err)
			}
		}
		return nil
	})
}
