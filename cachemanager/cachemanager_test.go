package cachemanager_test

import (
	"context"
	"testing"
	"time"

	"github.com/YaCodeDev/GoCacheService/breaker"
	"github.com/YaCodeDev/GoCacheService/cachemanager"
	"github.com/YaCodeDev/GoCacheService/codec"
	"github.com/YaCodeDev/GoCacheService/metrics"
	"github.com/YaCodeDev/GoCacheService/nearcache"
	"github.com/YaCodeDev/GoCacheService/transport"
	"github.com/YaCodeDev/GoCacheService/yalogger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupManager(t *testing.T) (*cachemanager.Manager, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)

	log := yalogger.NewBaseLogger(nil).NewLogger()

	tr, terr := transport.New(context.Background(), transport.Config{
		Mode:      transport.ModeStandalone,
		Addresses: []string{mr.Addr()},
		PoolSize:  5,
	}, log)
	require.Nil(t, terr)

	near := nearcache.New(100, time.Minute)
	br := breaker.New(breaker.Config{Threshold: 2, Timeout: time.Minute, HalfOpenMaxRequests: 1})
	sink := metrics.New(false)
	cod := codec.New(codec.DefaultOptions())
	acl := cachemanager.NewACL(map[string][]string{
		"character-service": {"character", "campaign"},
	})

	manager := cachemanager.New(cachemanager.Config{NodeName: "test"}, near, tr, br, sink, cod, acl, log)

	return manager, func() {
		near.Close()
		tr.Close()
		mr.Close()
	}
}

func TestSetThenGetRoundTrip(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, manager.Set(ctx, "character-service:character:1", map[string]any{"name": "Elyndra"}, time.Minute, "character-service", true))

	var out map[string]any
	require.Nil(t, manager.Get(ctx, "character-service:character:1", "character-service", true, &out))
	assert.Equal(t, "Elyndra", out["name"])
}

func TestGetRejectsMalformedKey(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	var out any
	err := manager.Get(context.Background(), "no-colon-here", "character-service", true, &out)
	require.NotNil(t, err)
	assert.Equal(t, 400, err.Code())
}

func TestSetRejectsForbiddenKeyspace(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	err := manager.Set(context.Background(), "character-service:secrets:1", "value", time.Minute, "character-service", true)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Code())
}

// TestKeySegmentCannotImpersonateACL asserts the security-model fix
// directly: a key whose own first segment names a permitted service
// must still be rejected when the out-of-band caller identity is a
// different, unpermitted one. ACL runs against the caller, never
// against the key's own embedded segment.
func TestKeySegmentCannotImpersonateACL(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	err := manager.Set(context.Background(), "character-service:character:1", "value", time.Minute, "image-service", true)
	require.NotNil(t, err)
	assert.Equal(t, 403, err.Code())
}

// TestValidateSkipsACLWithoutCallerIdentity exercises the documented
// "trusted internal caller" path: an empty service identity still gets
// shape validation but bypasses ACL enforcement.
func TestValidateSkipsACLWithoutCallerIdentity(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	err := manager.Set(context.Background(), "character-service:secrets:1", "value", time.Minute, "", true)
	assert.Nil(t, err)
}

func TestDeleteRemovesValue(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	key := "character-service:character:2"

	require.Nil(t, manager.Set(ctx, key, "value", time.Minute, "character-service", true))
	require.Nil(t, manager.Delete(ctx, key, "character-service", true))

	var out any
	err := manager.Get(ctx, key, "character-service", true, &out)
	assert.NotNil(t, err)
}

// TestUseLocalFalseBypassesStaleNearCache exercises scenario S6: once a
// value is cached locally, writing through the transport directly
// (bypassing the near-cache) must be observed immediately by a Get
// that passes useLocal=false, while a Get with useLocal=true still
// serves the stale near-cache entry.
func TestUseLocalFalseBypassesStaleNearCache(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()
	key := "character-service:character:3"

	require.Nil(t, manager.Set(ctx, key, "first", time.Minute, "character-service", true))

	var cached any
	require.Nil(t, manager.Get(ctx, key, "character-service", true, &cached))
	assert.Equal(t, "first", cached)

	// updateLocal=false: the transport now holds "second" but the
	// near-cache still holds "first".
	require.Nil(t, manager.Set(ctx, key, "second", time.Minute, "character-service", false))

	var stale any
	require.Nil(t, manager.Get(ctx, key, "character-service", true, &stale))
	assert.Equal(t, "first", stale, "useLocal=true must still observe the stale near-cache entry")

	var fresh any
	require.Nil(t, manager.Get(ctx, key, "character-service", false, &fresh))
	assert.Equal(t, "second", fresh, "useLocal=false must bypass the near-cache and observe the transport value")
}

func TestBatchSetAndBatchGet(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()

	values := map[string]any{
		"character-service:character:1": "a",
		"character-service:character:2": "b",
	}

	result, err := manager.BatchSet(ctx, values, time.Minute, "character-service", true)
	require.Nil(t, err)
	assert.Empty(t, result.Failed)
	assert.Len(t, result.Succeeded, 2)

	fetched, batchResult, err := manager.BatchGet(ctx, []string{"character-service:character:1", "character-service:character:2"}, "character-service", true)
	require.Nil(t, err)
	assert.Len(t, fetched, 2)
	assert.Empty(t, batchResult.Failed)
}

func TestBatchSetReportsInvalidKeysAsFailed(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()

	values := map[string]any{
		"character-service:character:1": "a",
		"not-a-valid-key":                "b",
	}

	result, err := manager.BatchSet(ctx, values, time.Minute, "character-service", true)
	require.Nil(t, err)
	assert.Contains(t, result.Failed, "not-a-valid-key")
	assert.Contains(t, result.Succeeded, "character-service:character:1")
}

func TestDeleteByPatternRemovesMatches(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, manager.Set(ctx, "character-service:character:1", "a", 0, "character-service", true))
	require.Nil(t, manager.Set(ctx, "character-service:character:2", "b", 0, "character-service", true))

	count, err := manager.DeleteByPattern(ctx, "character-service:character:*")
	require.Nil(t, err)
	assert.Equal(t, 2, count)
}

func TestFlushClearsEverything(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, manager.Set(ctx, "character-service:character:1", "a", 0, "character-service", true))
	require.Nil(t, manager.Flush(ctx))

	var out any
	err := manager.Get(ctx, "character-service:character:1", "character-service", true, &out)
	assert.NotNil(t, err)
}

func TestStatsReportsBackendName(t *testing.T) {
	manager, cleanup := setupManager(t)
	defer cleanup()

	stats := manager.Stats()
	assert.Equal(t, "REDIS", stats.Backend)
}
