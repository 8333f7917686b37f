package snapshots

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/assets"
	"github.com/rs/zerolog"
)

// Service computes daily portfolio snapshots from current account and
// asset state. Recomputing the same day replaces that day's snapshot.
type Service struct {
	db        *sql.DB
	snapshots *Repository
	banks     *accounts.BankRepository
	demats    *accounts.DematRepository
	assets    *assets.AssetRepository
	log       zerolog.Logger
}

// NewService creates a new snapshot service
func NewService(
	db *sql.DB,
	snapshots *Repository,
	banks *accounts.BankRepository,
	demats *accounts.DematRepository,
	assetRepo *assets.AssetRepository,
	log zerolog.Logger,
) *Service {
	return &Service{
		db:        db,
		snapshots: snapshots,
		banks:     banks,
		demats:    demats,
		assets:    assetRepo,
		log:       log.With().Str("service", "snapshots").Logger(),
	}
}

// ComputeDaily builds today's snapshot for one user and persists it,
// replacing any snapshot already recorded for today.
func (s *Service) ComputeDaily(userID int64) (*domain.PortfolioSnapshot, error) {
	today := time.Now().Format("2006-01-02")
	return s.ComputeForDate(userID, today)
}

// ComputeForDate builds and persists the snapshot for a specific date.
func (s *Service) ComputeForDate(userID int64, date string) (*domain.PortfolioSnapshot, error) {
	bankAccounts, err := s.banks.GetAllForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load bank accounts: %w", err)
	}

	dematAccounts, err := s.demats.GetAllForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load demat accounts: %w", err)
	}

	userAssets, err := s.assets.GetAllForUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assets: %w", err)
	}

	snapshot := domain.PortfolioSnapshot{
		UserID:       userID,
		SnapshotDate: date,
	}
	var positions []domain.AssetSnapshot

	for _, b := range bankAccounts {
		if !b.IsActive {
			continue
		}
		snapshot.BankBalance += b.Balance
		positions = append(positions, domain.AssetSnapshot{
			Source:        domain.SnapshotSourceBankAccount,
			AssetType:     "bank_account",
			AssetName:     b.BankName,
			InvestedValue: b.Balance,
			CurrentValue:  b.Balance,
		})
	}

	for _, d := range dematAccounts {
		if !d.IsActive {
			continue
		}
		snapshot.DematCash += d.CashBalance
		positions = append(positions, domain.AssetSnapshot{
			Source:        domain.SnapshotSourceDematCash,
			AssetType:     "demat_cash",
			AssetName:     d.BrokerName,
			InvestedValue: d.CashBalance,
			CurrentValue:  d.CashBalance,
		})
	}

	var assetValue float64
	for i := range userAssets {
		a := userAssets[i]
		if !a.IsActive {
			continue
		}
		assetValue += a.CurrentValue
		snapshot.TotalInvested += a.TotalInvested
		if a.AssetType == domain.AssetTypeCrypto {
			snapshot.CryptoValue += a.CurrentValue
		}
		assetID := a.ID
		positions = append(positions, domain.AssetSnapshot{
			AssetID:       &assetID,
			Source:        domain.SnapshotSourceAsset,
			AssetType:     string(a.AssetType),
			AssetName:     a.Name,
			InvestedValue: a.TotalInvested,
			CurrentValue:  a.CurrentValue,
		})
	}

	snapshot.TotalValue = snapshot.BankBalance + snapshot.DematCash + assetValue

	err = database.WithTransaction(s.db, func(tx *sql.Tx) error {
		if err := s.snapshots.DeleteForDateTx(tx, userID, date); err != nil {
			return err
		}

		snapshotID, err := s.snapshots.InsertTx(tx, snapshot)
		if err != nil {
			return err
		}
		snapshot.ID = snapshotID

		for _, p := range positions {
			p.SnapshotID = snapshotID
			if _, err := s.snapshots.InsertAssetTx(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist snapshot: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Str("date", date).
		Float64("total_value", snapshot.TotalValue).
		Int("positions", len(positions)).Msg("Snapshot computed")

	return &snapshot, nil
}
