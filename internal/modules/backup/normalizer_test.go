package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDocument(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{
			name: "valid minimal document",
			data: `{"export_version": "2.2"}`,
		},
		{
			name:    "truncated payload",
			data:    `{"export_version": "2.2", "assets": [`,
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "not json at all",
			data:    `PK\x03\x04 not a backup`,
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "missing export_version",
			data:    `{"portfolios": []}`,
			wantErr: ErrMalformedDocument,
		},
		{
			name:    "wrong field type",
			data:    `{"export_version": 2.2}`,
			wantErr: ErrMalformedDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDocument([]byte(tt.data))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2.2", doc.ExportVersion)
		})
	}
}

func TestNormalize_VersionGate(t *testing.T) {
	for _, version := range SupportedVersions {
		t.Run("accepts "+version, func(t *testing.T) {
			doc := &Document{ExportVersion: version}
			assert.NoError(t, Normalize(doc))
		})
	}

	for _, version := range []string{"99.0", "0.9", "2", "2.2.1", ""} {
		t.Run("rejects "+version, func(t *testing.T) {
			doc := &Document{ExportVersion: version}
			assert.ErrorIs(t, Normalize(doc), ErrUnsupportedVersion)
		})
	}
}

func TestNormalize_NilCollectionsBecomeEmpty(t *testing.T) {
	doc := &Document{ExportVersion: "1.0"}
	require.NoError(t, Normalize(doc))

	assert.NotNil(t, doc.Portfolios)
	assert.NotNil(t, doc.BankAccounts)
	assert.NotNil(t, doc.DematAccounts)
	assert.NotNil(t, doc.CryptoAccounts)
	assert.NotNil(t, doc.Assets)
	assert.NotNil(t, doc.ExpenseCategories)
	assert.NotNil(t, doc.Expenses)
	assert.NotNil(t, doc.Transactions)
	assert.NotNil(t, doc.MutualFundHoldings)
	assert.NotNil(t, doc.Alerts)
	assert.NotNil(t, doc.PortfolioSnapshots)

	assert.Empty(t, doc.Assets)
}

func TestNormalize_SnapshotChildrenAndSources(t *testing.T) {
	doc := &Document{
		ExportVersion: "2.0",
		PortfolioSnapshots: []PortfolioSnapshotRecord{
			{ID: 1, SnapshotDate: "2025-01-01"},
			{ID: 2, SnapshotDate: "2025-01-02", AssetSnapshots: []AssetSnapshotRecord{
				// Pre-2.2 rows: source empty, classified by asset_type.
				{AssetType: "bank_account"},
				{AssetType: "Bank Account"},
				{AssetType: " Demat Cash "},
				{AssetType: "demat_cash"},
				{AssetType: "stock"},
				{AssetType: ""},
				// Current rows keep their explicit source untouched.
				{Source: "demat_cash", AssetType: "bank_account"},
			}},
		},
	}
	require.NoError(t, Normalize(doc))

	// A parent without children gets an empty slice, not nil.
	assert.NotNil(t, doc.PortfolioSnapshots[0].AssetSnapshots)
	assert.Empty(t, doc.PortfolioSnapshots[0].AssetSnapshots)

	want := []string{
		"bank_account",
		"bank_account",
		"demat_cash",
		"demat_cash",
		"asset",
		"asset",
		"demat_cash",
	}
	children := doc.PortfolioSnapshots[1].AssetSnapshots
	require.Len(t, children, len(want))
	for i, w := range want {
		assert.Equal(t, w, children[i].Source, "child %d", i)
	}
}
