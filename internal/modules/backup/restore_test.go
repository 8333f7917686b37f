package backup

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/artha-io/artha/internal/database"
	"github.com/artha-io/artha/internal/domain"
	"github.com/artha-io/artha/internal/modules/accounts"
	"github.com/artha-io/artha/internal/modules/alerts"
	"github.com/artha-io/artha/internal/modules/assets"
	"github.com/artha-io/artha/internal/modules/expenses"
	"github.com/artha-io/artha/internal/modules/portfolio"
	"github.com/artha-io/artha/internal/modules/snapshots"
	"github.com/artha-io/artha/internal/modules/users"
	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *database.DB, func()) {
	t.Helper()

	db, cleanup := testingpkg.NewTestDB(t)
	conn := db.Conn()
	log := zerolog.Nop()

	repos := Repositories{
		Users:        users.NewRepository(conn, log),
		Portfolios:   portfolio.NewRepository(conn, log),
		Banks:        accounts.NewBankRepository(conn, log),
		Demats:       accounts.NewDematRepository(conn, log),
		Cryptos:      accounts.NewCryptoRepository(conn, log),
		Exchanges:    accounts.NewExchangeRepository(conn, log),
		Categories:   expenses.NewCategoryRepository(conn, log),
		Expenses:     expenses.NewExpenseRepository(conn, log),
		Assets:       assets.NewAssetRepository(conn, log),
		Transactions: assets.NewTransactionRepository(conn, log),
		Holdings:     assets.NewHoldingRepository(conn, log),
		Alerts:       alerts.NewRepository(conn, log),
		Snapshots:    snapshots.NewRepository(conn, log),
	}

	return NewService(conn, repos, log), db, cleanup
}

func mustMarshal(t *testing.T, doc *Document) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

// fullDocument covers every entity type with realistic cross-references.
func fullDocument() *Document {
	return &Document{
		ExportVersion: CurrentExportVersion,
		ExportedAt:    "2025-03-20T10:00:00Z",
		ExportedBy:    "source@example.com",
		DocumentID:    "8f14e45f-ceea-4672-950f-fd838ad8a31b",
		Portfolios: []PortfolioRecord{
			{ID: 1, Name: "Long Term", Description: "Retirement money", IsActive: true},
		},
		BankAccounts: []BankAccountRecord{
			{ID: 10, PortfolioID: 1, BankName: "HDFC", AccountType: "savings",
				AccountNumber: "XXXX1234", Balance: 50000, Currency: "INR", IsActive: true},
		},
		DematAccounts: []DematAccountRecord{
			{ID: 20, PortfolioID: 1, BrokerName: "Zerodha", AccountID: "AB1234",
				CashBalance: 12000, Currency: "INR", IsActive: true},
		},
		CryptoAccounts: []CryptoAccountRecord{
			{ID: 30, PortfolioID: 1, ExchangeName: "Binance", AccountID: "bn-1",
				CashBalanceUSD: 150, IsActive: true},
		},
		ExpenseCategories: []ExpenseCategoryRecord{
			{ID: 40, Name: "Food & Dining", IsSystem: true},
			{ID: 41, Name: "Side Projects"},
		},
		Assets: []AssetRecord{
			{ID: 50, PortfolioID: 1, DematAccountID: intPtr(20), AssetType: "stock",
				Name: "TCS", Symbol: "TCS", Quantity: 5, AvgBuyPrice: 3500,
				TotalInvested: 17500, CurrentValue: 18250, Currency: "INR",
				PurchaseDate: "2025-03-01", IsActive: true},
			{ID: 51, PortfolioID: 1, DematAccountID: intPtr(20), AssetType: "mutual_fund",
				Name: "PPFAS Flexi Cap", Quantity: 400.5, TotalInvested: 25000,
				CurrentValue: 27100, Currency: "INR", IsActive: true},
			{ID: 52, PortfolioID: 1, CryptoAccountID: intPtr(30), AssetType: "crypto",
				Name: "Bitcoin", Symbol: "BTC", Quantity: 0.01, TotalInvested: 30000,
				CurrentValue: 41000, Currency: "INR", IsActive: true},
		},
		Transactions: []TransactionRecord{
			{ID: 60, AssetID: 50, TransactionType: "buy", Quantity: 5,
				PricePerUnit: 3500, TotalAmount: 17500, TransactionDate: "2025-03-01"},
		},
		MutualFundHoldings: []MutualFundHoldingRecord{
			{ID: 70, AssetID: 51, StockName: "HDFC Bank", StockSymbol: "HDFCBANK",
				HoldingPercentage: 8.2, HoldingValue: 2050},
		},
		Expenses: []ExpenseRecord{
			{ID: 80, BankAccountID: 10, CategoryID: intPtr(40), TransactionDate: "2025-03-05",
				Amount: 640, Description: "Dinner", Merchant: "Blue Tokai", IsDebit: true},
		},
		Alerts: []AlertRecord{
			{ID: 90, AssetID: intPtr(50), AlertType: "price_target", Title: "TCS above 3700",
				Message: "Target reached", AlertDate: "2025-03-10"},
		},
		PortfolioSnapshots: []PortfolioSnapshotRecord{
			{ID: 100, SnapshotDate: "2025-03-15", TotalValue: 98350, TotalInvested: 72500,
				BankBalance: 50000, DematCash: 12000, CryptoValue: 41000,
				AssetSnapshots: []AssetSnapshotRecord{
					{AssetID: intPtr(50), Source: "asset", AssetType: "stock",
						AssetName: "TCS", InvestedValue: 17500, CurrentValue: 18250},
					{Source: "bank_account", AssetName: "HDFC", CurrentValue: 50000},
				}},
		},
	}
}

func TestRestoreDocument_CreatesFullDataset(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, fullDocument()))
	require.NoError(t, err)

	assert.Equal(t, EntityStats{Imported: 1}, stats.Portfolios)
	assert.Equal(t, EntityStats{Imported: 1}, stats.BankAccounts)
	assert.Equal(t, EntityStats{Imported: 1}, stats.DematAccounts)
	assert.Equal(t, EntityStats{Imported: 1}, stats.CryptoAccounts)
	assert.Equal(t, EntityStats{Imported: 1, Skipped: 1}, stats.ExpenseCategories)
	assert.Equal(t, EntityStats{Imported: 3}, stats.Assets)
	assert.Equal(t, EntityStats{Imported: 1}, stats.Transactions)
	assert.Equal(t, EntityStats{Imported: 1}, stats.MutualFundHoldings)
	assert.Equal(t, EntityStats{Imported: 1}, stats.Expenses)
	assert.Equal(t, EntityStats{Imported: 1}, stats.Alerts)
	assert.Equal(t, EntityStats{Imported: 1}, stats.PortfolioSnapshots)
	assert.Equal(t, EntityStats{Imported: 2}, stats.AssetSnapshots)

	// Default plus the imported one.
	assert.Equal(t, 2, testingpkg.CountRows(t, db, "portfolios", userID))
	assert.Equal(t, 3, testingpkg.CountRows(t, db, "assets", userID))

	// The exchange catalog row was created on the fly.
	var exchanges int
	err = db.QueryRow(`SELECT COUNT(*) FROM crypto_exchanges WHERE name = ?`, "Binance").Scan(&exchanges)
	require.NoError(t, err)
	assert.Equal(t, 1, exchanges)

	// The expense landed on the destination's own system category row.
	var categoryName string
	err = db.QueryRow(`
		SELECT ec.name FROM expenses e
		JOIN expense_categories ec ON ec.id = e.category_id
		WHERE e.user_id = ?`, userID).Scan(&categoryName)
	require.NoError(t, err)
	assert.Equal(t, "Food & Dining", categoryName)

	// The alert follows its asset through the id remap.
	var alertAsset string
	err = db.QueryRow(`
		SELECT a.name FROM alerts al
		JOIN assets a ON a.id = al.asset_id
		WHERE al.user_id = ?`, userID).Scan(&alertAsset)
	require.NoError(t, err)
	assert.Equal(t, "TCS", alertAsset)

	// Demat and crypto links survived the remap too.
	var linkedDemat, linkedCrypto int
	err = db.QueryRow(`SELECT COUNT(*) FROM assets WHERE user_id = ? AND demat_account_id IS NOT NULL`, userID).Scan(&linkedDemat)
	require.NoError(t, err)
	assert.Equal(t, 2, linkedDemat)
	err = db.QueryRow(`SELECT COUNT(*) FROM assets WHERE user_id = ? AND crypto_account_id IS NOT NULL`, userID).Scan(&linkedCrypto)
	require.NoError(t, err)
	assert.Equal(t, 1, linkedCrypto)
}

func TestRestoreDocument_SecondRunImportsNothing(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")
	data := mustMarshal(t, fullDocument())

	_, err := svc.RestoreDocument(userID, data)
	require.NoError(t, err)

	before := testingpkg.CountRows(t, db, "assets", userID)

	stats, err := svc.RestoreDocument(userID, data)
	require.NoError(t, err)

	total := stats.Total()
	assert.Zero(t, total.Imported, "second run must not create rows")
	assert.Zero(t, total.Dropped)

	assert.Equal(t, EntityStats{Skipped: 1}, stats.PortfolioSnapshots)
	assert.Equal(t, EntityStats{Skipped: 2}, stats.AssetSnapshots)
	assert.Equal(t, before, testingpkg.CountRows(t, db, "assets", userID))
}

func TestRestoreDocument_PreservesDistinctLots(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		Assets: []AssetRecord{
			{ID: 1, AssetType: "stock", Name: "TCS", TotalInvested: 17500, IsActive: true},
			{ID: 2, AssetType: "stock", Name: "TCS", TotalInvested: 9000, IsActive: true},
		},
	}
	data := mustMarshal(t, doc)

	stats, err := svc.RestoreDocument(userID, data)
	require.NoError(t, err)
	assert.Equal(t, EntityStats{Imported: 2}, stats.Assets)
	assert.Equal(t, 2, testingpkg.CountRows(t, db, "assets", userID))

	// Both lots already exist now, so each matches its own row.
	stats, err = svc.RestoreDocument(userID, data)
	require.NoError(t, err)
	assert.Equal(t, EntityStats{Skipped: 2}, stats.Assets)
	assert.Equal(t, 2, testingpkg.CountRows(t, db, "assets", userID))
}

func TestRestoreDocument_UnsupportedVersionWritesNothing(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := fullDocument()
	doc.ExportVersion = "99.0"

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Nil(t, stats)

	assert.Zero(t, testingpkg.CountRows(t, db, "bank_accounts", userID))
	assert.Zero(t, testingpkg.CountRows(t, db, "assets", userID))
}

func TestRestoreDocument_MalformedPayload(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	for _, payload := range []string{`{"export_version`, `{}`, ``} {
		stats, err := svc.RestoreDocument(userID, []byte(payload))
		assert.ErrorIs(t, err, ErrMalformedDocument)
		assert.Nil(t, stats)
	}
}

func TestRestoreDocument_UnknownUser(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.RestoreDocument(999, mustMarshal(t, fullDocument()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRestoreDocument_DropsUnresolvableRecords(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		ExpenseCategories: []ExpenseCategoryRecord{
			// Not part of the destination taxonomy.
			{ID: 1, Name: "Quantum Meals", IsSystem: true},
		},
		Transactions: []TransactionRecord{
			{ID: 2, AssetID: 999, TransactionType: "buy", TotalAmount: 100, TransactionDate: "2025-01-01"},
		},
		MutualFundHoldings: []MutualFundHoldingRecord{
			{ID: 3, AssetID: 999, StockName: "HDFC Bank"},
		},
		Expenses: []ExpenseRecord{
			{ID: 4, BankAccountID: 999, TransactionDate: "2025-01-01", Amount: 50},
		},
		Alerts: []AlertRecord{
			// Optional asset reference degrades to null instead of dropping.
			{ID: 5, AssetID: intPtr(999), AlertType: "price_target", Title: "Orphan", AlertDate: "2025-01-01"},
		},
	}

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)

	assert.Equal(t, EntityStats{Dropped: 1}, stats.ExpenseCategories)
	assert.Equal(t, EntityStats{Dropped: 1}, stats.Transactions)
	assert.Equal(t, EntityStats{Dropped: 1}, stats.MutualFundHoldings)
	assert.Equal(t, EntityStats{Dropped: 1}, stats.Expenses)
	assert.Equal(t, EntityStats{Imported: 1}, stats.Alerts)

	assert.Zero(t, testingpkg.CountRows(t, db, "transactions", userID))
	assert.Zero(t, testingpkg.CountRows(t, db, "mutual_fund_holdings", userID))
	assert.Zero(t, testingpkg.CountRows(t, db, "expenses", userID))

	var nullAssetAlerts int
	err = db.QueryRow(`SELECT COUNT(*) FROM alerts WHERE user_id = ? AND asset_id IS NULL`, userID).Scan(&nullAssetAlerts)
	require.NoError(t, err)
	assert.Equal(t, 1, nullAssetAlerts)
}

func TestRestoreDocument_LegacyDocumentLandsInDefaultPortfolio(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")
	defaultID := testingpkg.DefaultPortfolioID(t, db, userID)

	// A 1.0 document predates portfolios entirely: the array is absent and
	// portfolio references are zero or stale.
	doc := &Document{
		ExportVersion: "1.0",
		BankAccounts: []BankAccountRecord{
			{ID: 1, BankName: "SBI", AccountType: "savings", AccountNumber: "XXXX9999",
				Balance: 1000, Currency: "INR", IsActive: true},
		},
		Assets: []AssetRecord{
			{ID: 2, PortfolioID: 7, AssetType: "gold", Name: "Sovereign Gold Bond",
				TotalInvested: 48000, IsActive: true},
		},
	}

	_, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)

	var bankPortfolio, assetPortfolio int64
	err = db.QueryRow(`SELECT portfolio_id FROM bank_accounts WHERE user_id = ?`, userID).Scan(&bankPortfolio)
	require.NoError(t, err)
	err = db.QueryRow(`SELECT portfolio_id FROM assets WHERE user_id = ?`, userID).Scan(&assetPortfolio)
	require.NoError(t, err)

	assert.Equal(t, defaultID, bankPortfolio)
	assert.Equal(t, defaultID, assetPortfolio)
}

func TestRestoreDocument_ImportedPortfolioNeverBecomesDefault(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		Portfolios: []PortfolioRecord{
			{ID: 1, Name: "Main", IsDefault: true, IsActive: true},
		},
	}

	_, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)

	var defaults int
	err = db.QueryRow(`SELECT COUNT(*) FROM portfolios WHERE user_id = ? AND is_default = 1`, userID).Scan(&defaults)
	require.NoError(t, err)
	assert.Equal(t, 1, defaults)

	var name string
	err = db.QueryRow(`SELECT name FROM portfolios WHERE user_id = ? AND is_default = 1`, userID).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "Default", name)
}

func TestRestoreDocument_WiresCategoryParents(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		ExpenseCategories: []ExpenseCategoryRecord{
			// Child listed before its parent: wiring happens in a second pass.
			{ID: 2, Name: "Dining Out", ParentID: intPtr(1)},
			{ID: 1, Name: "Food Custom"},
			{ID: 3, Name: "Orphaned", ParentID: intPtr(999)},
		},
	}

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)
	assert.Equal(t, EntityStats{Imported: 3}, stats.ExpenseCategories)

	var parentName string
	err = db.QueryRow(`
		SELECT p.name FROM expense_categories c
		JOIN expense_categories p ON p.id = c.parent_id
		WHERE c.user_id = ? AND c.name = ?`, userID, "Dining Out").Scan(&parentName)
	require.NoError(t, err)
	assert.Equal(t, "Food Custom", parentName)

	var orphanParents int
	err = db.QueryRow(`
		SELECT COUNT(*) FROM expense_categories
		WHERE user_id = ? AND name = ? AND parent_id IS NOT NULL`, userID, "Orphaned").Scan(&orphanParents)
	require.NoError(t, err)
	assert.Zero(t, orphanParents)
}

func TestRestoreDocument_ExistingSnapshotDateSkippedWholesale(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	first := &Document{
		ExportVersion: CurrentExportVersion,
		PortfolioSnapshots: []PortfolioSnapshotRecord{
			{ID: 1, SnapshotDate: "2025-03-15", TotalValue: 1000,
				AssetSnapshots: []AssetSnapshotRecord{
					{Source: "bank_account", AssetName: "HDFC", CurrentValue: 1000},
				}},
		},
	}
	_, err := svc.RestoreDocument(userID, mustMarshal(t, first))
	require.NoError(t, err)

	// Same date, different values, more children.
	second := &Document{
		ExportVersion: CurrentExportVersion,
		PortfolioSnapshots: []PortfolioSnapshotRecord{
			{ID: 9, SnapshotDate: "2025-03-15", TotalValue: 2222,
				AssetSnapshots: []AssetSnapshotRecord{
					{Source: "bank_account", AssetName: "HDFC", CurrentValue: 1111},
					{Source: "asset", AssetName: "TCS", CurrentValue: 1111},
				}},
		},
	}
	stats, err := svc.RestoreDocument(userID, mustMarshal(t, second))
	require.NoError(t, err)

	assert.Equal(t, EntityStats{Skipped: 1}, stats.PortfolioSnapshots)
	assert.Equal(t, EntityStats{Skipped: 2}, stats.AssetSnapshots)

	// The existing snapshot kept its values and its single child.
	var totalValue float64
	var children int
	err = db.QueryRow(`SELECT total_value FROM portfolio_snapshots WHERE user_id = ?`, userID).Scan(&totalValue)
	require.NoError(t, err)
	err = db.QueryRow(`
		SELECT COUNT(*) FROM asset_snapshots
		WHERE snapshot_id = (SELECT id FROM portfolio_snapshots WHERE user_id = ?)`, userID).Scan(&children)
	require.NoError(t, err)
	assert.Equal(t, float64(1000), totalValue)
	assert.Equal(t, 1, children)
}

func TestRestoreDocument_MatchedRowsAreNeverMutated(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	banks := accounts.NewBankRepository(db.Conn(), zerolog.Nop())
	defaultID := testingpkg.DefaultPortfolioID(t, db, userID)
	_, err := banks.Create(domain.BankAccount{
		UserID:        userID,
		PortfolioID:   defaultID,
		BankName:      "HDFC",
		AccountType:   "savings",
		AccountNumber: "XXXX1234",
		Balance:       50000,
		Currency:      "INR",
		IsActive:      true,
	})
	require.NoError(t, err)

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		BankAccounts: []BankAccountRecord{
			// Same natural key, stale balance from an old export.
			{ID: 1, BankName: "HDFC", AccountType: "savings", AccountNumber: "XXXX1234",
				Balance: 12.5, Currency: "INR", IsActive: true},
		},
		DematAccounts: []DematAccountRecord{
			{ID: 2, BrokerName: "Zerodha", AccountID: "AB1234", CashBalance: 100,
				Currency: "INR", IsActive: true},
		},
	}

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)
	assert.Equal(t, EntityStats{Skipped: 1}, stats.BankAccounts)
	assert.Equal(t, EntityStats{Imported: 1}, stats.DematAccounts)

	var balance float64
	err = db.QueryRow(`SELECT balance FROM bank_accounts WHERE user_id = ?`, userID).Scan(&balance)
	require.NoError(t, err)
	assert.Equal(t, float64(50000), balance)
}

func TestRestoreDocument_DeduplicatesWithinOneDocument(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")

	doc := &Document{
		ExportVersion: CurrentExportVersion,
		Alerts: []AlertRecord{
			{ID: 1, AlertType: "reminder", Title: "Review SIP", AlertDate: "2025-04-01"},
			{ID: 2, AlertType: "reminder", Title: "Review SIP", AlertDate: "2025-04-01"},
		},
	}

	stats, err := svc.RestoreDocument(userID, mustMarshal(t, doc))
	require.NoError(t, err)
	assert.Equal(t, EntityStats{Imported: 1, Skipped: 1}, stats.Alerts)
	assert.Equal(t, 1, testingpkg.CountRows(t, db, "alerts", userID))
}

func TestRestore_ReadsFromReader(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "dest@example.com")
	data := mustMarshal(t, fullDocument())

	stats, err := svc.Restore(userID, strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Assets.Imported)
	assert.Equal(t, 3, testingpkg.CountRows(t, db, "assets", userID))
}
