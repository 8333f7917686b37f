package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaturalKey_CompositePartsDoNotCollide(t *testing.T) {
	// "HDFC"+"savings" and "HDFCsav"+"ings" concatenate identically;
	// the separator keeps them distinct.
	a := naturalKey("HDFC", "savings", "XXXX1234")
	b := naturalKey("HDFCsav", "ings", "XXXX1234")
	assert.NotEqual(t, a, b)

	assert.Equal(t, naturalKey("HDFC", "savings"), naturalKey("HDFC", "savings"))
}

func TestAmountKey_StableAcrossSources(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want string
	}{
		{"whole amount", 50000, "50000"},
		{"two decimals", 1234.56, "1234.56"},
		{"zero", 0, "0"},
		{"negative", -250.5, "-250.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, amountKey(tt.in))
		})
	}
}

func TestAssetMatcher_PrefersInvestedWithinTolerance(t *testing.T) {
	m := newAssetMatcher([]assetCandidate{
		{id: 1, assetType: "stock", name: "TCS", totalInvested: 17500},
		{id: 2, assetType: "stock", name: "TCS", totalInvested: 9000},
	})

	// The second lot arrives first; amounts decide, not order.
	id, ok := m.Match("stock", "TCS", 9000.005)
	assert.True(t, ok)
	assert.Equal(t, int64(2), id)

	id, ok = m.Match("stock", "TCS", 17500)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestAssetMatcher_FallsBackToFirstUnconsumedNameMatch(t *testing.T) {
	m := newAssetMatcher([]assetCandidate{
		{id: 1, assetType: "stock", name: "TCS", totalInvested: 17500},
		{id: 2, assetType: "stock", name: "TCS", totalInvested: 9000},
	})

	// No candidate is within tolerance of 12000, so the first name
	// match is claimed instead.
	id, ok := m.Match("stock", "TCS", 12000)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
}

func TestAssetMatcher_ConsumedRowsNeverRematch(t *testing.T) {
	m := newAssetMatcher([]assetCandidate{
		{id: 1, assetType: "stock", name: "TCS", totalInvested: 17500},
	})

	id, ok := m.Match("stock", "TCS", 17500)
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)

	// A second lot with the same name must not collapse into row 1.
	_, ok = m.Match("stock", "TCS", 17500)
	assert.False(t, ok)
}

func TestAssetMatcher_TypeAndNameMustBothMatch(t *testing.T) {
	m := newAssetMatcher([]assetCandidate{
		{id: 1, assetType: "stock", name: "TCS", totalInvested: 17500},
	})

	_, ok := m.Match("mutual_fund", "TCS", 17500)
	assert.False(t, ok)

	_, ok = m.Match("stock", "Infosys", 17500)
	assert.False(t, ok)
}

func TestAssetMatcher_DistinctLotsClaimDistinctRows(t *testing.T) {
	m := newAssetMatcher([]assetCandidate{
		{id: 1, assetType: "stock", name: "TCS", totalInvested: 17500},
		{id: 2, assetType: "stock", name: "TCS", totalInvested: 9000},
		{id: 3, assetType: "stock", name: "TCS", totalInvested: 9000},
	})

	seen := make(map[int64]bool)
	for _, invested := range []float64{9000, 9000, 17500} {
		id, ok := m.Match("stock", "TCS", invested)
		assert.True(t, ok)
		assert.False(t, seen[id], "row %d claimed twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, 3)
}
