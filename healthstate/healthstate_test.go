package healthstate_test

import (
	"context"
	"testing"

	"github.com/YaCodeDev/GoCacheService/healthstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartsHealthy(t *testing.T) {
	tracker := healthstate.New(3)
	assert.True(t, tracker.IsHealthy(context.Background()))
}

func TestDegradesAfterThresholdConsecutiveFailures(t *testing.T) {
	tracker := healthstate.New(2)
	ctx := context.Background()

	require.Nil(t, tracker.ReportFailure(ctx, "transport unreachable"))
	assert.True(t, tracker.IsHealthy(ctx), "one failure below threshold must stay healthy")

	require.Nil(t, tracker.ReportFailure(ctx, "transport unreachable"))
	assert.False(t, tracker.IsHealthy(ctx), "threshold consecutive failures must degrade")
}

func TestSuccessResetsFailureStreakAndRecovers(t *testing.T) {
	tracker := healthstate.New(2)
	ctx := context.Background()

	require.Nil(t, tracker.ReportFailure(ctx, "transport unreachable"))
	require.Nil(t, tracker.ReportSuccess(ctx))
	assert.True(t, tracker.IsHealthy(ctx))

	require.Nil(t, tracker.ReportFailure(ctx, "transport unreachable"))
	assert.True(t, tracker.IsHealthy(ctx), "streak must have reset, one failure is not enough to degrade")
}

func TestReportSuccessRecoversFromDegraded(t *testing.T) {
	tracker := healthstate.New(1)
	ctx := context.Background()

	require.Nil(t, tracker.ReportFailure(ctx, "breaker open"))
	assert.False(t, tracker.IsHealthy(ctx))

	require.Nil(t, tracker.ReportSuccess(ctx))
	assert.True(t, tracker.IsHealthy(ctx))
}
