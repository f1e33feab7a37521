// Package cachemanager implements the Cache Manager façade: it
// validates keys and keyspace ACLs before any I/O and orchestrates the
// near-cache, transport, breaker, and metrics sink, in that order for
// reads and transport-then-refresh for writes. Grounded on
// original_source/services/cache/src/cache_service/services/
// cache_manager.py, with its ALLOWED_KEYSPACES dict externalized to
// config per SPEC_FULL.md §9.
package cachemanager

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YaCodeDev/GoCacheService/breaker"
	"github.com/YaCodeDev/GoCacheService/codec"
	"github.com/YaCodeDev/GoCacheService/metrics"
	"github.com/YaCodeDev/GoCacheService/nearcache"
	"github.com/YaCodeDev/GoCacheService/transport"
	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/YaCodeDev/GoCacheService/yalogger"
)

// ErrorCode names a cache-service error taxonomy entry, per
// SPEC_FULL.md §7.
type ErrorCode string

const (
	KeyInvalid          ErrorCode = "KEY_INVALID"
	KeyspaceForbidden    ErrorCode = "KEYSPACE_FORBIDDEN"
	CacheConnectionFail  ErrorCode = "CACHE_CONNECTION_FAIL"
	CacheOperationFail   ErrorCode = "CACHE_OPERATION_FAIL"
	CacheTimeout         ErrorCode = "CACHE_TIMEOUT"
	BreakerOpenCode      ErrorCode = "BREAKER_OPEN"
	BatchPartial         ErrorCode = "BATCH_PARTIAL"
	DecodeFail           ErrorCode = "DECODE_FAIL"
)

// ACL answers whether service may access keyspace.
type ACL interface {
	Allowed(service, keyspace string) bool
}

// staticACL implements ACL over the config-loaded
// service -> comma-joined-keyspaces map.
type staticACL struct {
	allowed map[string]map[string]struct{}
}

// NewACL builds an ACL from a service -> []keyspace map, as loaded
// from appconfig.Config.KeyspaceACL (split on comma).
func NewACL(serviceKeyspaces map[string][]string) ACL {
	allowed := make(map[string]map[string]struct{}, len(serviceKeyspaces))

	for service, keyspaces := range serviceKeyspaces {
		set := make(map[string]struct{}, len(keyspaces))
		for _, ks := range keyspaces {
			set[strings.TrimSpace(ks)] = struct{}{}
		}

		allowed[service] = set
	}

	return &staticACL{allowed: allowed}
}

func (a *staticACL) Allowed(service, keyspace string) bool {
	set, ok := a.allowed[service]
	if !ok {
		return false
	}

	_, ok = set[keyspace]

	return ok
}

// Config controls manager-level policy not owned by its collaborators.
type Config struct {
	// CacheNulls is carried on the config but the manager does not read
	// it: a transport miss is never written back as a tombstone, so every
	// miss reaches Redis again.
	CacheNulls bool
	NodeName   string
}

// Manager is the Cache Manager façade.
type Manager struct {
	cfg       Config
	near      *nearcache.Cache
	transport *transport.Transport
	breaker   *breaker.Breaker
	metrics   *metrics.Sink
	codec     *codec.Codec
	acl       ACL
	log       yalogger.Logger
}

// New wires a Manager from its collaborators.
func New(
	cfg Config,
	near *nearcache.Cache,
	tr *transport.Transport,
	br *breaker.Breaker,
	sink *metrics.Sink,
	cod *codec.Codec,
	acl ACL,
	log yalogger.Logger,
) *Manager {
	if cfg.NodeName == "" {
		cfg.NodeName = "primary"
	}

	return &Manager{cfg: cfg, near: near, transport: tr, breaker: br, metrics: sink, codec: cod, acl: acl, log: log}
}

// validate enforces the `service:keyspace[:id...]` key shape and, when
// a caller identity is supplied, the keyspace ACL — checked against
// that out-of-band identity, never against the key's own first
// segment. Per spec, the key's first segment is namespacing only; the
// calling service identity arrives separately (the X-Service-ID
// header, at the HTTP boundary) and is what authorization runs
// against, so one service can never read another's keyspace merely by
// writing a key that starts with that other service's name.
func (m *Manager) validate(callerService, key string) (keyspace string, err yaerrors.Error) {
	parts := strings.Split(key, ":")
	if key == "" || len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", yaerrors.FromString(
			http.StatusBadRequest,
			fmt.Sprintf("[%s] malformed key %q: expected service:keyspace[:id...]", KeyInvalid, key),
		)
	}

	keyspace = parts[1]

	// A caller identity is optional per spec §4.E rule 3 ("if a service
	// identity is supplied"); trusted internal callers may validate
	// shape only. Every HTTP-originated call supplies one.
	if callerService != "" && !m.acl.Allowed(callerService, keyspace) {
		return "", yaerrors.FromString(
			http.StatusForbidden,
			fmt.Sprintf("[%s] service %q is not permitted to access keyspace %q", KeyspaceForbidden, callerService, keyspace),
		)
	}

	return keyspace, nil
}

// metricLabel normalizes a possibly-absent caller identity into a
// stable Prometheus label value.
func metricLabel(service string) string {
	if service == "" {
		return "anonymous"
	}

	return service
}

// Get resolves key through the near-cache first (unless useLocal is
// false), then the transport (guarded by the breaker), populating the
// near-cache on a transport hit.
func (m *Manager) Get(ctx context.Context, key, service string, useLocal bool, out any) yaerrors.Error {
	if _, verr := m.validate(service, key); verr != nil {
		return verr
	}

	label := metricLabel(service)
	start := time.Now()

	if useLocal {
		if raw, ok := m.near.Get(key); ok {
			m.metrics.RecordOperation("get", "hit", label, time.Since(start))

			return codec.As(codec.Decode(raw), out)
		}
	}

	var raw []byte

	cerr := m.breaker.Call(ctx, "get", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		var err yaerrors.Error
		raw, err = m.transport.Get(ctx, key)

		return err
	})

	if cerr != nil {
		status := classify(cerr)
		m.metrics.RecordOperation("get", string(status), label, time.Since(start))

		return cerr
	}

	if useLocal {
		m.near.Set(key, raw)
	}

	m.metrics.RecordOperation("get", "hit", label, time.Since(start))

	return codec.As(codec.Decode(raw), out)
}

// Set encodes value and writes it through the transport, then, unless
// updateLocal is false, refreshes the near-cache entry.
func (m *Manager) Set(ctx context.Context, key string, value any, ttl time.Duration, service string, updateLocal bool) yaerrors.Error {
	if _, verr := m.validate(service, key); verr != nil {
		return verr
	}

	label := metricLabel(service)
	start := time.Now()

	encoded, eerr := m.codec.Encode(value)
	if eerr != nil {
		m.metrics.RecordOperation("set", string(DecodeFail), label, time.Since(start))

		return eerr
	}

	cerr := m.breaker.Call(ctx, "set", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		return m.transport.Set(ctx, key, encoded.Raw(), ttl)
	})

	if cerr != nil {
		m.metrics.RecordOperation("set", string(classify(cerr)), label, time.Since(start))

		return cerr
	}

	if updateLocal {
		m.near.Set(key, encoded.Raw())
	}

	m.metrics.RecordOperation("set", "ok", label, time.Since(start))

	return nil
}

// Delete removes key from the transport and, unless deleteLocal is
// false, from the near-cache.
func (m *Manager) Delete(ctx context.Context, key, service string, deleteLocal bool) yaerrors.Error {
	if _, verr := m.validate(service, key); verr != nil {
		return verr
	}

	label := metricLabel(service)
	start := time.Now()

	cerr := m.breaker.Call(ctx, "delete", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		return m.transport.Delete(ctx, key)
	})

	if deleteLocal {
		m.near.Delete(key)
	}

	status := "ok"
	if cerr != nil {
		status = string(classify(cerr))
	}

	m.metrics.RecordOperation("delete", status, label, time.Since(start))

	return cerr
}

// BatchResult is the per-key outcome of a batch operation.
type BatchResult struct {
	Succeeded []string
	Failed    map[string]yaerrors.Error
}

// BatchSet validates and writes every (key, value) pair. Keys that
// fail validation never reach the transport; keys that fail in the
// transport are reported individually (BATCH_PARTIAL), matching the
// "validation precedes I/O" and "batch partial" invariants.
func (m *Manager) BatchSet(
	ctx context.Context,
	values map[string]any,
	ttl time.Duration,
	service string,
	updateLocal bool,
) (*BatchResult, yaerrors.Error) {
	encoded := make(map[string][]byte, len(values))
	result := &BatchResult{Failed: make(map[string]yaerrors.Error)}

	for key, value := range values {
		if _, verr := m.validate(service, key); verr != nil {
			result.Failed[key] = verr

			continue
		}

		enc, eerr := m.codec.Encode(value)
		if eerr != nil {
			result.Failed[key] = eerr

			continue
		}

		encoded[key] = enc.Raw()
	}

	if len(encoded) == 0 {
		m.metrics.RecordBatch("set", "failed", len(values))

		return result, nil
	}

	var failures map[string]yaerrors.Error

	cerr := m.breaker.Call(ctx, "batch_set", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		var berr yaerrors.Error
		failures, berr = m.transport.MSet(ctx, encoded, ttl)

		return berr
	})

	if cerr != nil {
		m.metrics.RecordBatch("set", "failed", len(values))

		return nil, cerr
	}

	for key, value := range encoded {
		if err, failed := failures[key]; failed {
			result.Failed[key] = err

			continue
		}

		if updateLocal {
			m.near.Set(key, value)
		}

		result.Succeeded = append(result.Succeeded, key)
	}

	status := "ok"
	if len(result.Failed) > 0 {
		status = string(BatchPartial)
	}

	m.metrics.RecordBatch("set", status, len(values))

	return result, nil
}

// BatchGet resolves every key, preferring the near-cache (unless
// useLocal is false), falling back to a single pipelined transport
// round-trip for the rest.
func (m *Manager) BatchGet(ctx context.Context, keys []string, service string, useLocal bool) (map[string][]byte, *BatchResult, yaerrors.Error) {
	result := &BatchResult{Failed: make(map[string]yaerrors.Error)}
	out := make(map[string][]byte, len(keys))

	var misses []string

	for _, key := range keys {
		if _, verr := m.validate(service, key); verr != nil {
			result.Failed[key] = verr

			continue
		}

		if useLocal {
			if raw, ok := m.near.Get(key); ok {
				out[key] = raw
				result.Succeeded = append(result.Succeeded, key)

				continue
			}
		}

		misses = append(misses, key)
	}

	if len(misses) == 0 {
		m.metrics.RecordBatch("get", "ok", len(keys))

		return out, result, nil
	}

	var fetched map[string][]byte

	cerr := m.breaker.Call(ctx, "batch_get", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		var berr yaerrors.Error
		fetched, berr = m.transport.MGet(ctx, misses)

		return berr
	})

	if cerr != nil {
		m.metrics.RecordBatch("get", "failed", len(keys))

		return nil, nil, cerr
	}

	for _, key := range misses {
		value, ok := fetched[key]
		if !ok {
			result.Failed[key] = yaerrors.FromString(http.StatusNotFound, fmt.Sprintf("[%s] key %q not found", CacheOperationFail, key))

			continue
		}

		if useLocal {
			m.near.Set(key, value)
		}

		out[key] = value
		result.Succeeded = append(result.Succeeded, key)
	}

	status := "ok"
	if len(result.Failed) > 0 {
		status = string(BatchPartial)
	}

	m.metrics.RecordBatch("get", status, len(keys))

	return out, result, nil
}

// DeleteByPattern scans and deletes every key matching pattern,
// invalidating each from the near-cache as it goes.
func (m *Manager) DeleteByPattern(ctx context.Context, pattern string) (int, yaerrors.Error) {
	var keys []string

	cerr := m.breaker.Call(ctx, "pattern_delete", m.cfg.NodeName, func(ctx context.Context) yaerrors.Error {
		var serr yaerrors.Error
		keys, serr = m.transport.ScanKeys(ctx, pattern)

		return serr
	})

	if cerr != nil {
		return 0, cerr
	}

	if len(keys) == 0 {
		return 0, nil
	}

	if err := m.transport.MDelete(ctx, keys); err != nil {
		return 0, err
	}

	for _, key := range keys {
		m.near.Delete(key)
	}

	return len(keys), nil
}

// Flush clears both the near-cache and the entire backing store.
func (m *Manager) Flush(ctx context.Context) yaerrors.Error {
	if err := m.transport.FlushDB(ctx); err != nil {
		return err
	}

	m.near.Clear()

	return nil
}

// Stats summarizes near-cache, transport, and breaker state for the
// /stats endpoint.
type Stats struct {
	NearCache nearcache.Stats
	Backend   string
	Breakers  []breaker.Snapshot
}

// Stats reports a point-in-time snapshot of manager state.
func (m *Manager) Stats() Stats {
	return Stats{
		NearCache: m.near.Stats(),
		Backend:   m.transport.BackendName(),
		Breakers:  m.breaker.Snapshots(),
	}
}

// Ping checks transport connectivity.
func (m *Manager) Ping(ctx context.Context) yaerrors.Error {
	return m.transport.Ping(ctx)
}

func classify(err yaerrors.Error) ErrorCode {
	switch err.Code() {
	case http.StatusServiceUnavailable:
		return BreakerOpenCode
	case http.StatusGatewayTimeout:
		return CacheTimeout
	case http.StatusUnprocessableEntity:
		return DecodeFail
	default:
		return CacheOperationFail
	}
}
