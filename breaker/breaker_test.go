package breaker_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/YaCodeDev/GoCacheService/breaker"
	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(ctx context.Context) yaerrors.Error {
	return yaerrors.FromError(http.StatusInternalServerError, errors.New("boom"), "op failed")
}

func ok(ctx context.Context) yaerrors.Error {
	return nil
}

func TestTripsAfterThreshold(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 3, Timeout: time.Minute, HalfOpenMaxRequests: 1})

	for i := 0; i < 3; i++ {
		err := b.Call(context.Background(), "get", "primary", failing)
		require.NotNil(t, err)
	}

	err := b.Call(context.Background(), "get", "primary", ok)
	require.NotNil(t, err, "breaker should be open and reject without calling fn")
}

func TestIsolatedPerOperationNode(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 1, Timeout: time.Minute, HalfOpenMaxRequests: 1})

	err := b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)

	// A different operation on the same node must still be Closed.
	err = b.Call(context.Background(), "set", "primary", ok)
	assert.Nil(t, err)
}

func TestHalfOpenClosesOnSuccess(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxRequests: 1})

	err := b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)

	time.Sleep(20 * time.Millisecond)

	err = b.Call(context.Background(), "get", "primary", ok)
	require.Nil(t, err, "trial call during half-open should be let through")

	snaps := b.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, breaker.Closed, snaps[0].State)
}

func TestHalfOpenRequiresConsecutiveSuccesses(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxRequests: 3})

	err := b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)

	time.Sleep(20 * time.Millisecond)

	for i := 0; i < 2; i++ {
		err = b.Call(context.Background(), "get", "primary", ok)
		require.Nil(t, err, "trial call during half-open should be let through")

		snaps := b.Snapshots()
		require.Len(t, snaps, 1)
		assert.Equal(t, breaker.HalfOpen, snaps[0].State, "must stay half-open before half_open_requests consecutive successes")
	}

	err = b.Call(context.Background(), "get", "primary", ok)
	require.Nil(t, err)

	snaps := b.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, breaker.Closed, snaps[0].State, "must close on the half_open_requests-th consecutive success")
}

func TestHalfOpenFailureResetsConsecutiveSuccessCount(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxRequests: 2})

	err := b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)
	time.Sleep(20 * time.Millisecond)

	err = b.Call(context.Background(), "get", "primary", ok)
	require.Nil(t, err)

	err = b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)

	snaps := b.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, breaker.Open, snaps[0].State, "a half-open failure must re-open regardless of prior successes")
}

func TestHalfOpenReopensOnFailure(t *testing.T) {
	b := breaker.New(breaker.Config{Threshold: 1, Timeout: 10 * time.Millisecond, HalfOpenMaxRequests: 1})

	_ = b.Call(context.Background(), "get", "primary", failing)
	time.Sleep(20 * time.Millisecond)

	err := b.Call(context.Background(), "get", "primary", failing)
	require.NotNil(t, err)

	snaps := b.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, breaker.Open, snaps[0].State)
}
