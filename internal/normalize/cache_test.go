package normalize

import (
	"sync"
	"testing"
	"time"

	"hsedash/domain/finding"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func cacheDataset(ids ...string) *finding.RawDataset {
	rows := make([]finding.RawRecord, len(ids))
	for i, id := range ids {
		rows[i] = finding.RawRecord{"kode_temuan": id, "temuan.nama": "Pipe"}
	}
	return &finding.RawDataset{Source: "cache.csv", Headers: []string{"kode_temuan", "temuan.nama"}, Rows: rows}
}

func TestCacheHitReturnsPriorResult(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(newTestNormalizer(), 5*time.Minute, WithClock(clock.Now))

	first, hit := cache.Get(cacheDataset("F1", "F2"))
	assert.False(t, hit)

	second, hit := cache.Get(cacheDataset("F1", "F2"))
	assert.True(t, hit)
	assert.Equal(t, first.SnapshotID, second.SnapshotID)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheMissOnDifferentContent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(newTestNormalizer(), time.Minute, WithClock(clock.Now))

	a, _ := cache.Get(cacheDataset("F1"))
	b, hit := cache.Get(cacheDataset("F1", "F2"))

	assert.False(t, hit)
	assert.NotEqual(t, a.SnapshotID, b.SnapshotID)
	assert.Len(t, b.Master, 2)
}

func TestCacheExpiresAfterTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewCache(newTestNormalizer(), time.Minute, WithClock(clock.Now))

	first, _ := cache.Get(cacheDataset("F1"))

	clock.Advance(59 * time.Second)
	_, hit := cache.Get(cacheDataset("F1"))
	assert.True(t, hit)

	clock.Advance(time.Second)
	assert.Equal(t, 0, cache.Len())
	refreshed, hit := cache.Get(cacheDataset("F1"))
	assert.False(t, hit)
	assert.NotEqual(t, first.SnapshotID, refreshed.SnapshotID)
}

func TestCacheDisabledWithZeroTTL(t *testing.T) {
	cache := NewCache(newTestNormalizer(), 0)

	_, hit := cache.Get(cacheDataset("F1"))
	assert.False(t, hit)
	_, hit = cache.Get(cacheDataset("F1"))
	assert.False(t, hit)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewCache(newTestNormalizer(), time.Hour)

	cache.Get(cacheDataset("F1"))
	require.Equal(t, 1, cache.Len())

	cache.Invalidate()
	assert.Equal(t, 0, cache.Len())
	_, hit := cache.Get(cacheDataset("F1"))
	assert.False(t, hit)
}

func TestCacheConcurrentGet(t *testing.T) {
	cache := NewCache(newTestNormalizer(), time.Hour)
	raw := cacheDataset("F1", "F2", "F3")

	var wg sync.WaitGroup
	results := make([]finding.Views, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = cache.Get(raw)
		}(i)
	}
	wg.Wait()

	for _, v := range results {
		assert.Len(t, v.Master, 3)
	}
	assert.Equal(t, 1, cache.Len())
}

func TestCacheNilDataset(t *testing.T) {
	cache := NewCache(newTestNormalizer(), time.Hour)

	views, hit := cache.Get(nil)
	assert.False(t, hit)
	assert.True(t, views.IsEmptySource())
}
