package backup

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	testingpkg "github.com/artha-io/artha/internal/testing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExport_NewUser(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "fresh@example.com")

	doc, err := svc.Export(userID)
	require.NoError(t, err)

	assert.Equal(t, CurrentExportVersion, doc.ExportVersion)
	assert.Equal(t, "fresh@example.com", doc.ExportedBy)

	_, err = uuid.Parse(doc.DocumentID)
	assert.NoError(t, err, "document_id must be a valid uuid")
	_, err = time.Parse(time.RFC3339, doc.ExportedAt)
	assert.NoError(t, err, "exported_at must be RFC3339")

	// The default portfolio and the shared system taxonomy are always
	// present, even for a user who never entered anything.
	require.Len(t, doc.Portfolios, 1)
	assert.Equal(t, "Default", doc.Portfolios[0].Name)
	assert.NotEmpty(t, doc.ExpenseCategories)
	for _, c := range doc.ExpenseCategories {
		assert.True(t, c.IsSystem, "category %q", c.Name)
	}

	// Empty collections serialize as [], never null.
	assert.NotNil(t, doc.BankAccounts)
	assert.NotNil(t, doc.DematAccounts)
	assert.NotNil(t, doc.CryptoAccounts)
	assert.NotNil(t, doc.Assets)
	assert.NotNil(t, doc.Expenses)
	assert.NotNil(t, doc.Transactions)
	assert.NotNil(t, doc.MutualFundHoldings)
	assert.NotNil(t, doc.Alerts)
	assert.NotNil(t, doc.PortfolioSnapshots)
}

func TestExport_UnknownUser(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()

	_, err := svc.Export(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestExportJSON_FilenameAndPayload(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userID := testingpkg.CreateTestUser(t, db, "fresh@example.com")

	data, filename, err := svc.ExportJSON(userID)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^artha-backup-\d{4}-\d{2}-\d{2}-\d{6}\.json$`), filename)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{
		"export_version", "exported_at", "exported_by", "document_id",
		"portfolios", "bank_accounts", "demat_accounts", "crypto_accounts",
		"assets", "expense_categories", "expenses", "transactions",
		"mutual_fund_holdings", "alerts", "portfolio_snapshots",
	} {
		assert.Contains(t, raw, key)
	}

	// The payload must itself restore cleanly.
	doc, err := ParseDocument(data)
	require.NoError(t, err)
	require.NoError(t, Normalize(doc))
}

func TestExportRestore_RoundTrip(t *testing.T) {
	svc, db, cleanup := newTestService(t)
	defer cleanup()

	userA := testingpkg.CreateTestUser(t, db, "a@example.com")
	userB := testingpkg.CreateTestUser(t, db, "b@example.com")

	_, err := svc.RestoreDocument(userA, mustMarshal(t, fullDocument()))
	require.NoError(t, err)

	exportA, err := svc.Export(userA)
	require.NoError(t, err)

	_, err = svc.RestoreDocument(userB, mustMarshal(t, exportA))
	require.NoError(t, err)

	exportB, err := svc.Export(userB)
	require.NoError(t, err)

	assert.Equal(t, len(exportA.Portfolios), len(exportB.Portfolios))
	assert.Equal(t, len(exportA.BankAccounts), len(exportB.BankAccounts))
	assert.Equal(t, len(exportA.DematAccounts), len(exportB.DematAccounts))
	assert.Equal(t, len(exportA.CryptoAccounts), len(exportB.CryptoAccounts))
	assert.Equal(t, len(exportA.ExpenseCategories), len(exportB.ExpenseCategories))
	assert.Equal(t, len(exportA.Assets), len(exportB.Assets))
	assert.Equal(t, len(exportA.Transactions), len(exportB.Transactions))
	assert.Equal(t, len(exportA.MutualFundHoldings), len(exportB.MutualFundHoldings))
	assert.Equal(t, len(exportA.Expenses), len(exportB.Expenses))
	assert.Equal(t, len(exportA.Alerts), len(exportB.Alerts))
	assert.Equal(t, len(exportA.PortfolioSnapshots), len(exportB.PortfolioSnapshots))

	type lot struct {
		assetType string
		name      string
		invested  string
	}
	lots := func(doc *Document) map[lot]int {
		out := make(map[lot]int)
		for _, a := range doc.Assets {
			out[lot{a.AssetType, a.Name, amountKey(a.TotalInvested)}]++
		}
		return out
	}
	assert.Equal(t, lots(exportA), lots(exportB))

	// A second pass of the same export changes nothing on the far side.
	stats, err := svc.RestoreDocument(userB, mustMarshal(t, exportA))
	require.NoError(t, err)
	assert.Zero(t, stats.Total().Imported)
	assert.Zero(t, stats.Total().Dropped)
}
