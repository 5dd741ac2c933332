package normalize

import (
	"strings"
	"testing"
	"time"

	"hsedash/internal/errors"
	"hsedash/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Invariants that must hold on any export, checked over seeded synthetic ones.
func TestNormalizeGeneratedExports(t *testing.T) {
	for _, seed := range []int64{1, 42, 2024} {
		cfg := testkit.DefaultGeneratorConfig()
		cfg.Seed = seed
		cfg.BadDateRate = 0.1
		views := newTestNormalizer().Normalize(testkit.GenerateExport(cfg))

		require.False(t, views.SourceEmpty)

		master := keysOf(views.Master)
		for key, n := range master {
			assert.Equal(t, 1, n, "finding %s appears once in master", key)
		}
		for _, row := range views.Exploded {
			_, ok := master[row.Key()]
			assert.True(t, ok, "exploded row %s has a master row", row.Key())
			assert.NotContains(t, row.ObjectName, ",")
		}
		for _, f := range views.Master {
			assert.NotContains(t, strings.ToLower(f.ObjectName), "dummy")
			if f.ReportedAt != nil {
				require.NotNil(t, f.SLADeadline)
				assert.Equal(t, 7*24*time.Hour, f.SLADeadline.Sub(*f.ReportedAt))
			}
		}

		var unparseable int
		for _, d := range views.Diagnostics {
			if d.Code == errors.CodeUnparseable {
				unparseable += d.Count
			}
		}
		assert.Positive(t, unparseable, "seed %d carries bad dates", seed)
	}
}

func TestCacheOnGeneratedExport(t *testing.T) {
	raw := testkit.GenerateExport(testkit.DefaultGeneratorConfig())
	cache := NewCache(newTestNormalizer(), time.Minute)

	first, hit := cache.Get(raw)
	assert.False(t, hit)
	second, hit := cache.Get(testkit.GenerateExport(testkit.DefaultGeneratorConfig()))
	assert.True(t, hit, "identical content hits regardless of the dataset pointer")
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
}
