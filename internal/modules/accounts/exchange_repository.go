package accounts

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/domain"
	"github.com/rs/zerolog"
)

// ExchangeRepository handles the global crypto exchange catalog.
// Exchanges are not user-scoped.
type ExchangeRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewExchangeRepository creates a new exchange catalog repository
func NewExchangeRepository(db *sql.DB, log zerolog.Logger) *ExchangeRepository {
	return &ExchangeRepository{
		db:  db,
		log: log.With().Str("repo", "crypto_exchanges").Logger(),
	}
}

// GetAll returns the full exchange catalog
func (r *ExchangeRepository) GetAll() ([]domain.CryptoExchange, error) {
	rows, err := r.db.Query(`SELECT id, name, created_at FROM crypto_exchanges ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query crypto exchanges: %w", err)
	}
	defer rows.Close()

	var result []domain.CryptoExchange
	for rows.Next() {
		var e domain.CryptoExchange
		if err := rows.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan crypto exchange: %w", err)
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating crypto exchanges: %w", err)
	}

	return result, nil
}

// EnsureTx adds an exchange to the catalog if missing and returns its id.
func (r *ExchangeRepository) EnsureTx(tx *sql.Tx, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("exchange name is required")
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.Exec(`INSERT OR IGNORE INTO crypto_exchanges (name, created_at) VALUES (?, ?)`, name, now); err != nil {
		return 0, fmt.Errorf("failed to ensure crypto exchange %q: %w", name, err)
	}

	var id int64
	if err := tx.QueryRow(`SELECT id FROM crypto_exchanges WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to look up crypto exchange %q: %w", name, err)
	}
	return id, nil
}
