package backup

import (
	"errors"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestMergeProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: N source lots sharing a (type, name) always claim N distinct
	// destination rows, whatever their amounts.
	properties.Property("distinct lots never collapse", prop.ForAll(
		func(amounts []float64) bool {
			candidates := make([]assetCandidate, len(amounts))
			for i, inv := range amounts {
				candidates[i] = assetCandidate{
					id: int64(i + 1), assetType: "stock", name: "TCS", totalInvested: inv,
				}
			}
			m := newAssetMatcher(candidates)

			claimed := make(map[int64]bool)
			for _, inv := range amounts {
				id, ok := m.Match("stock", "TCS", inv)
				if !ok || claimed[id] {
					return false
				}
				claimed[id] = true
			}
			return len(claimed) == len(amounts)
		},
		gen.SliceOf(gen.Float64Range(0, 1e9)),
	))

	// Property: amount keys parse back to the exact float they were built
	// from, so database and document amounts always compare equal.
	properties.Property("amount keys round trip exactly", prop.ForAll(
		func(v float64) bool {
			parsed, err := strconv.ParseFloat(amountKey(v), 64)
			return err == nil && parsed == v
		},
		gen.Float64Range(-1e12, 1e12),
	))

	// Property: the first translation recorded for a source id is the one
	// every later lookup sees.
	properties.Property("id translations are write-once", prop.ForAll(
		func(sourceID, first, second int64) bool {
			m := NewIDMap()
			m.Put(sourceID, first)
			m.Put(sourceID, second)
			got, ok := m.Lookup(sourceID)
			return ok && got == first
		},
		gen.Int64Range(1, 1<<40),
		gen.Int64Range(1, 1<<40),
		gen.Int64Range(1, 1<<40),
	))

	// Property: version strings outside the supported set are always
	// rejected before any per-record work.
	properties.Property("unknown versions are rejected", prop.ForAll(
		func(version string) bool {
			err := Normalize(&Document{ExportVersion: version})
			return errors.Is(err, ErrUnsupportedVersion)
		},
		gen.AlphaString().SuchThat(func(s string) bool { return !versionSupported(s) }),
	))

	properties.TestingRun(t)
}
