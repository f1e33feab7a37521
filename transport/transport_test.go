package transport_test

import (
	"context"
	"testing"
	"time"

	"github.com/YaCodeDev/GoCacheService/transport"
	"github.com/YaCodeDev/GoCacheService/yalogger"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTransport(t *testing.T) (*transport.Transport, func()) {
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

	return tr, func() {
		tr.Close()
		mr.Close()
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, tr.Set(ctx, "character:profile:1", []byte("payload"), time.Minute))

	value, err := tr.Get(ctx, "character:profile:1")
	require.Nil(t, err)
	assert.Equal(t, []byte("payload"), value)
}

func TestGetMissingKeyFails(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	_, err := tr.Get(context.Background(), "character:profile:missing")
	assert.NotNil(t, err)
}

func TestMSetMGetBatch(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	ctx := context.Background()

	values := map[string][]byte{
		"character:profile:1": []byte("a"),
		"character:profile:2": []byte("b"),
	}

	failures, err := tr.MSet(ctx, values, time.Minute)
	require.Nil(t, err)
	assert.Empty(t, failures)

	fetched, err := tr.MGet(ctx, []string{"character:profile:1", "character:profile:2", "character:profile:3"})
	require.Nil(t, err)
	assert.Equal(t, []byte("a"), fetched["character:profile:1"])
	assert.Equal(t, []byte("b"), fetched["character:profile:2"])
	_, ok := fetched["character:profile:3"]
	assert.False(t, ok)
}

func TestScanKeysFindsPattern(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, tr.Set(ctx, "character:profile:1", []byte("a"), 0))
	require.Nil(t, tr.Set(ctx, "campaign:profile:1", []byte("b"), 0))

	keys, err := tr.ScanKeys(ctx, "character:*")
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"character:profile:1"}, keys)
}

func TestFlushDBClearsEverything(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	ctx := context.Background()

	require.Nil(t, tr.Set(ctx, "character:profile:1", []byte("a"), 0))
	require.Nil(t, tr.FlushDB(ctx))

	_, err := tr.Get(ctx, "character:profile:1")
	assert.NotNil(t, err)
}

func TestBackendNameDefaultsToRedis(t *testing.T) {
	tr, cleanup := setupTransport(t)
	defer cleanup()

	assert.Equal(t, "REDIS", tr.BackendName())
}
