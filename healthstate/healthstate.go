// Package healthstate tracks service-level liveness as an explicit
// finite state machine (Healthy ⇄ Degraded) instead of the ad-hoc
// boolean original_source/services/cache/src/cache_service/main.py
// derives from a single redis_client.health_check() call. It is built
// on the teacher library's yafsm package, backed by an in-memory
// yacache instance (no Redis round-trip needed to answer "am I
// healthy").
package healthstate

import (
	"context"
	"sync/atomic"

	"github.com/YaCodeDev/GoCacheService/yacache"
	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/YaCodeDev/GoCacheService/yafsm"
)

const subjectID = "service"

// Healthy is the FSM's nominal state.
type Healthy struct {
	yafsm.BaseState[Healthy]
}

// Degraded marks sustained failure (the Tracker's threshold of
// consecutive failed reports reached).
type Degraded struct {
	yafsm.BaseState[Degraded]
	Reason string `json:"reason"`
}

// Tracker reports and stores the current service-health state.
type Tracker struct {
	fsm yafsm.FSM

	// degradedSignals counts consecutive ReportFailure calls; it flips
	// the FSM to Degraded once it reaches the configured threshold and
	// resets to zero on any ReportSuccess.
	degradedSignals atomic.Int32
	threshold       int32
}

// New returns a Tracker that flips to Degraded after threshold
// consecutive ReportFailure calls, and back to Healthy on the next
// ReportSuccess.
func New(threshold int) *Tracker {
	if threshold <= 0 {
		threshold = 3
	}

	storage := yacache.NewCache(yacache.NewMemoryContainer())

	return &Tracker{
		fsm:       yafsm.NewDefaultFSMStorage(storage, Healthy{}),
		threshold: int32(threshold),
	}
}

// ReportFailure records one failed dependency check (e.g. a breaker
// transitioning to Open). Once threshold consecutive failures have
// been reported the tracker transitions to Degraded.
func (t *Tracker) ReportFailure(ctx context.Context, reason string) yaerrors.Error {
	count := t.degradedSignals.Add(1)
	if count < t.threshold {
		return nil
	}

	return t.fsm.SetState(ctx, subjectID, Degraded{Reason: reason})
}

// ReportSuccess records one healthy dependency check, resetting the
// failure streak and returning the tracker to Healthy.
func (t *Tracker) ReportSuccess(ctx context.Context) yaerrors.Error {
	t.degradedSignals.Store(0)

	return t.fsm.SetState(ctx, subjectID, Healthy{})
}

// IsHealthy reports whether the tracker currently considers the
// service Healthy.
func (t *Tracker) IsHealthy(ctx context.Context) bool {
	state, _, err := t.fsm.GetState(ctx, subjectID)
	if err != nil {
		return true
	}

	return state == "" || state == (Healthy{}).StateName()
}
