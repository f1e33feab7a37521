package nearcache_test

import (
	"testing"
	"time"

	"github.com/YaCodeDev/GoCacheService/nearcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	c := nearcache.New(10, time.Minute)
	defer c.Close()

	c.Set("character:profile:1", []byte("value"))

	value, ok := c.Get("character:profile:1")
	require.True(t, ok)
	assert.Equal(t, []byte("value"), value)
}

func TestMissIsCounted(t *testing.T) {
	c := nearcache.New(10, time.Minute)
	defer c.Close()

	_, ok := c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, uint64(1), c.Stats().Misses)
}

func TestLRUEvictsOldestOnOverflow(t *testing.T) {
	c := nearcache.New(2, time.Minute)
	defer c.Close()

	c.Set("a", []byte("1"))
	c.Set("b", []byte("2"))
	c.Get("a") // touch a, making b the least-recently-used
	c.Set("c", []byte("3"))

	_, ok := c.Get("b")
	assert.False(t, ok, "least-recently-used entry must be evicted")

	_, ok = c.Get("a")
	assert.True(t, ok)

	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestExpiredEntryCountsAsMissAndEviction(t *testing.T) {
	c := nearcache.New(10, 10*time.Millisecond)
	defer c.Close()

	c.Set("k", []byte("v"))
	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Evictions)
}

func TestClearEmptiesCache(t *testing.T) {
	c := nearcache.New(10, time.Minute)
	defer c.Close()

	c.Set("k", []byte("v"))
	c.Clear()

	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Stats().Entries)
}
