package backup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDMap_FirstTranslationWins(t *testing.T) {
	m := NewIDMap()
	m.Put(5, 100)
	m.Put(5, 200)

	id, ok := m.Lookup(5)
	assert.True(t, ok)
	assert.Equal(t, int64(100), id)
	assert.Equal(t, 1, m.Len())
}

func TestIDMap_IgnoresZeroSourceIDs(t *testing.T) {
	m := NewIDMap()
	m.Put(0, 100)

	_, ok := m.Lookup(0)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestIDRegistry_UnresolvedPortfolioFallsBackToDefault(t *testing.T) {
	reg := newIDRegistry(42)
	reg.portfolios.Put(7, 99)

	assert.Equal(t, int64(99), reg.resolvePortfolio(7))
	assert.Equal(t, int64(42), reg.resolvePortfolio(8))
	assert.Equal(t, int64(42), reg.resolvePortfolio(0))
}

func TestResolveOptional(t *testing.T) {
	m := NewIDMap()
	m.Put(3, 30)

	mapped := int64(3)
	unmapped := int64(4)

	tests := []struct {
		name   string
		source *int64
		want   *int64
	}{
		{"nil reference stays nil", nil, nil},
		{"mapped reference translates", &mapped, intPtr(30)},
		{"unmapped reference becomes nil", &unmapped, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveOptional(m, tt.source)
			if tt.want == nil {
				assert.Nil(t, got)
			} else {
				assert.NotNil(t, got)
				assert.Equal(t, *tt.want, *got)
			}
		})
	}
}

func intPtr(i int64) *int64 {
	return &i
}
