package snapshots

import (
	"testing"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/assets"
	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	service *Service
	repo    *Repository
	banks   *accounts.BankRepository
	demats  *accounts.DematRepository
	assets  *assets.AssetRepository
	db      *database.DB
	userID  int64
}

func newServiceFixture(t *testing.T) (*serviceFixture, func()) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	conn := db.Conn()
	log := zerolog.Nop()

	f := &serviceFixture{
		repo:   NewRepository(conn, log),
		banks:  accounts.NewBankRepository(conn, log),
		demats: accounts.NewDematRepository(conn, log),
		assets: assets.NewAssetRepository(conn, log),
		db:     db,
		userID: testingpkg.CreateTestUser(t, db, "snap@example.com"),
	}
	f.service = NewService(conn, f.repo, f.banks, f.demats, f.assets, log)
	return f, cleanup
}

func (f *serviceFixture) seed(t *testing.T) {
	t.Helper()

	portfolioID := testingpkg.DefaultPortfolioID(t, f.db, f.userID)

	_, err := f.banks.Create(domain.BankAccount{
		UserID: f.userID, PortfolioID: portfolioID,
		BankName: "HDFC", AccountType: "savings", AccountNumber: "XXXX1234",
		Balance: 50000, Currency: "INR", IsActive: true,
	})
	require.NoError(t, err)
	_, err = f.banks.Create(domain.BankAccount{
		UserID: f.userID, PortfolioID: portfolioID,
		BankName: "Closed Bank", AccountType: "savings", AccountNumber: "XXXX0000",
		Balance: 7000, Currency: "INR", IsActive: false,
	})
	require.NoError(t, err)

	_, err = f.demats.Create(domain.DematAccount{
		UserID: f.userID, PortfolioID: portfolioID,
		BrokerName: "Zerodha", AccountID: "AB1234",
		CashBalance: 12000, Currency: "INR", IsActive: true,
	})
	require.NoError(t, err)

	_, err = f.assets.Create(domain.Asset{
		UserID: f.userID, PortfolioID: portfolioID,
		AssetType: domain.AssetTypeStock, Name: "TCS", Quantity: 5,
		TotalInvested: 17500, CurrentValue: 18250, Currency: "INR", IsActive: true,
	})
	require.NoError(t, err)
	_, err = f.assets.Create(domain.Asset{
		UserID: f.userID, PortfolioID: portfolioID,
		AssetType: domain.AssetTypeCrypto, Name: "Bitcoin", Quantity: 0.01,
		TotalInvested: 30000, CurrentValue: 41000, Currency: "INR", IsActive: true,
	})
	require.NoError(t, err)
	_, err = f.assets.Create(domain.Asset{
		UserID: f.userID, PortfolioID: portfolioID,
		AssetType: domain.AssetTypeStock, Name: "Sold Off", Quantity: 0,
		TotalInvested: 5000, CurrentValue: 99999, Currency: "INR", IsActive: false,
	})
	require.NoError(t, err)
}

func TestComputeForDate(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	f.seed(t)

	snapshot, err := f.service.ComputeForDate(f.userID, "2025-06-01")
	require.NoError(t, err)

	// Inactive accounts and assets stay out of every aggregate.
	assert.Equal(t, float64(50000), snapshot.BankBalance)
	assert.Equal(t, float64(12000), snapshot.DematCash)
	assert.Equal(t, float64(41000), snapshot.CryptoValue)
	assert.Equal(t, float64(47500), snapshot.TotalInvested)
	assert.Equal(t, float64(50000+12000+18250+41000), snapshot.TotalValue)

	persisted, err := f.repo.GetByDate(f.userID, "2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, snapshot.TotalValue, persisted.TotalValue)

	positions, err := f.repo.GetAssetSnapshots(persisted.ID)
	require.NoError(t, err)
	require.Len(t, positions, 4)

	bySource := make(map[domain.SnapshotSource]int)
	for _, p := range positions {
		bySource[p.Source]++
	}
	assert.Equal(t, 1, bySource[domain.SnapshotSourceBankAccount])
	assert.Equal(t, 1, bySource[domain.SnapshotSourceDematCash])
	assert.Equal(t, 2, bySource[domain.SnapshotSourceAsset])
}

func TestComputeForDate_RecomputeReplaces(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()
	f.seed(t)

	_, err := f.service.ComputeForDate(f.userID, "2025-06-01")
	require.NoError(t, err)

	// Balances move during the day; the evening run must own the date.
	portfolioID := testingpkg.DefaultPortfolioID(t, f.db, f.userID)
	_, err = f.banks.Create(domain.BankAccount{
		UserID: f.userID, PortfolioID: portfolioID,
		BankName: "SBI", AccountType: "current", AccountNumber: "XXXX9999",
		Balance: 1000, Currency: "INR", IsActive: true,
	})
	require.NoError(t, err)

	second, err := f.service.ComputeForDate(f.userID, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, float64(51000), second.BankBalance)

	assert.Equal(t, 1, testingpkg.CountRows(t, f.db, "portfolio_snapshots", f.userID))

	persisted, err := f.repo.GetByDate(f.userID, "2025-06-01")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, float64(51000), persisted.BankBalance)

	positions, err := f.repo.GetAssetSnapshots(persisted.ID)
	require.NoError(t, err)
	assert.Len(t, positions, 5)
}

func TestComputeForDate_EmptyUser(t *testing.T) {
	f, cleanup := newServiceFixture(t)
	defer cleanup()

	snapshot, err := f.service.ComputeForDate(f.userID, "2025-06-01")
	require.NoError(t, err)

	assert.Zero(t, snapshot.TotalValue)
	assert.Zero(t, snapshot.TotalInvested)

	positions, err := f.repo.GetAssetSnapshots(snapshot.ID)
	require.NoError(t, err)
	assert.Empty(t, positions)
}
