package backup

import (
	"database/sql"
	"fmt"
	"io"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/alerts"
	"github.com/artha-io/artha/internal/modules/assets"
	"github.com/artha-io/artha/internal/modules/expenses"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/snapshots"
	"github.com/artha-io/artha/internal/modules/users"
	"github.com/rs/zerolog"
)

// Repositories bundles the persistence operations backup depends on.
type Repositories struct {
	Users        *users.Repository
	Portfolios   *portfolio.Repository
	Banks        *accounts.BankRepository
	Demats       *accounts.DematRepository
	Cryptos      *accounts.CryptoRepository
	Exchanges    *accounts.ExchangeRepository
	Categories   *expenses.CategoryRepository
	Expenses     *expenses.ExpenseRepository
	Assets       *assets.AssetRepository
	Transactions *assets.TransactionRepository
	Holdings     *assets.HoldingRepository
	Alerts       *alerts.Repository
	Snapshots    *snapshots.Repository
}

// Service exposes export and restore over a user's complete dataset.
type Service struct {
	db    *sql.DB
	repos Repositories
	log   zerolog.Logger
}

// NewService creates a new backup service
func NewService(db *sql.DB, repos Repositories, log zerolog.Logger) *Service {
	return &Service{
		db:    db,
		repos: repos,
		log:   log.With().Str("service", "backup").Logger(),
	}
}

// Restore merges a backup document read from r into the destination user's
// data. Structural problems (unparseable payload, unsupported version) fail
// before anything is written; per-record problems drop the record and
// continue. The merge runs in one transaction, so an internal failure leaves
// the destination untouched.
func (s *Service) Restore(userID int64, r io.Reader) (*RestoreStats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return s.RestoreDocument(userID, data)
}

// RestoreDocument is Restore over an in-memory payload.
func (s *Service) RestoreDocument(userID int64, data []byte) (*RestoreStats, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if err := Normalize(doc); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %d not found", userID)
	}

	stats := &RestoreStats{}
	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		eng := &engine{
			tx:     tx,
			userID: userID,
			doc:    doc,
			repos:  s.repos,
			stats:  stats,
			log:    s.log,
		}
		return eng.run()
	})
	if err != nil {
		return nil, fmt.Errorf("restore failed: %w", err)
	}

	total := stats.Total()
	s.log.Info().
		Int64("user_id", userID).
		Str("version", doc.ExportVersion).
		Int("imported", total.Imported).
		Int("skipped", total.Skipped).
		Int("dropped", total.Dropped).
		Msg("Restore completed")

	return stats, nil
}
