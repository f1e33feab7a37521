// Package transport implements the Redis Transport component: mode
// dispatch (standalone/Sentinel/Cluster), pooling, pipelined batch
// operations, and value routing. It generalizes the teacher library's
// yacache/redis.go wrapper (go-redis v9 calls wrapped in
// yaerrors.Error, Redis-vs-DragonflyDB backend auto-detection via
// INFO) from yacache's hash-field model to the flat key model
// original_source/services/cache/src/cache_service/services/
// redis_client.py implements, including its mode dispatch
// (_get_client / STANDALONE / SENTINEL / CLUSTER).
package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/YaCodeDev/GoCacheService/yabackoff"
	"github.com/YaCodeDev/GoCacheService/yaerrors"
	"github.com/YaCodeDev/GoCacheService/yalogger"
	"github.com/redis/go-redis/v9"
)

// Mode selects how the transport connects to Redis.
type Mode string

const (
	ModeStandalone Mode = "standalone"
	ModeSentinel   Mode = "sentinel"
	ModeCluster    Mode = "cluster"
)

// Config describes how to reach the backing Redis (or DragonflyDB)
// deployment.
type Config struct {
	Mode           Mode
	Addresses      []string
	SentinelMaster string
	Password       string
	DB             int
	PoolSize       int

	// ReplicaAddresses, when set, points STANDALONE reads at a
	// dedicated replica endpoint instead of the primary, mirroring
	// redis_client.py's REDIS_REPLICA_HOST/_connect_standalone split.
	// Ignored outside ModeStandalone: SENTINEL always derives its own
	// read-only replica connection from the sentinel topology.
	ReplicaAddresses []string
}

// Transport wraps a redis.UniversalClient (which itself dispatches to
// a single-node, Sentinel-aware failover, or cluster client depending
// on the options supplied) behind the flat key-value operations the
// Cache Manager needs. Read-only operations prefer readClient, a
// dedicated replica connection, when one is configured and reachable;
// writes and administrative commands always go through client.
type Transport struct {
	client      redis.UniversalClient
	readClient  redis.UniversalClient
	backendName string
	log         yalogger.Logger
}

// New dials Redis per cfg and returns a ready Transport. The initial
// connection is retried with exponential backoff (yabackoff), matching
// redis_client.py's connection-setup retry loop.
func New(ctx context.Context, cfg Config, log yalogger.Logger) (*Transport, yaerrors.Error) {
	if log == nil {
		log = yalogger.NewBaseLogger(nil).NewLogger()
	}

	opts := &redis.UniversalOptions{
		Addrs:    cfg.Addresses,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	switch cfg.Mode {
	case ModeSentinel:
		opts.MasterName = cfg.SentinelMaster
	case ModeCluster:
	default:
		if len(cfg.Addresses) > 1 {
			log.Warnf("transport: mode %q ignores extra addresses beyond the first", cfg.Mode)

			opts.Addrs = cfg.Addresses[:1]
		}
	}

	client := redis.NewUniversalClient(opts)

	retry := yabackoff.NewExponential(200*time.Millisecond, 2, 5*time.Second, 0)

	var lastErr error

	for attempt := 0; attempt < 5; attempt++ {
		if err := client.Ping(ctx).Err(); err == nil {
			lastErr = nil

			break
		} else {
			lastErr = err
		}

		wait := retry.Next()
		log.Warnf("transport: ping attempt %d failed, retrying in %s", attempt+1, wait)

		select {
		case <-ctx.Done():
			return nil, yaerrors.FromError(http.StatusServiceUnavailable, ctx.Err(), "[TRANSPORT] context cancelled while connecting")
		case <-time.After(wait):
		}
	}

	if lastErr != nil {
		return nil, yaerrors.FromError(
			http.StatusServiceUnavailable,
			lastErr,
			fmt.Sprintf("[TRANSPORT] failed to connect in mode %q after retries", cfg.Mode),
		)
	}

	backendName := "REDIS"

	if info, err := client.Info(ctx, "server").Result(); err == nil && strings.Contains(strings.ToLower(info), "dragonfly") {
		backendName = "DRAGONFLY"
	}

	log.Infof("transport: connected to %s in %s mode", backendName, cfg.Mode)

	readClient := connectReplica(ctx, cfg, log)

	return &Transport{client: client, readClient: readClient, backendName: backendName, log: log}, nil
}

// connectReplica builds and pings the read-preferring replica
// connection for modes that support one. SENTINEL derives its
// replica from the sentinel topology itself (sentinel.slave_for in
// redis_client.py); STANDALONE requires an explicit ReplicaAddresses
// entry. A replica that fails its initial ping is dropped rather than
// failing transport setup: reads simply fall back to the primary.
func connectReplica(ctx context.Context, cfg Config, log yalogger.Logger) redis.UniversalClient {
	var replica redis.UniversalClient

	switch cfg.Mode {
	case ModeSentinel:
		replica = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    cfg.SentinelMaster,
			SentinelAddrs: cfg.Addresses,
			Password:      cfg.Password,
			DB:            cfg.DB,
			PoolSize:      cfg.PoolSize,
			ReplicaOnly:   true,
		})
	case ModeStandalone:
		if len(cfg.ReplicaAddresses) > 0 {
			replica = redis.NewClient(&redis.Options{
				Addr:     cfg.ReplicaAddresses[0],
				Password: cfg.Password,
				DB:       cfg.DB,
				PoolSize: cfg.PoolSize,
			})
		}
	case ModeCluster:
		// Cluster read routing is handled by the cluster client itself
		// (hash-slot replicas), not a separate connection.
	}

	if replica == nil {
		return nil
	}

	if err := replica.Ping(ctx).Err(); err != nil {
		log.Warnf("transport: replica unreachable, reads will use the primary connection: %v", err)
		_ = replica.Close()

		return nil
	}

	return replica
}

// reader returns the client read-only operations should use: the
// replica connection when one is configured and healthy at startup,
// the primary connection otherwise.
func (t *Transport) reader() redis.UniversalClient {
	if t.readClient != nil {
		return t.readClient
	}

	return t.client
}

// BackendName reports "REDIS" or "DRAGONFLY", per auto-detection.
func (t *Transport) BackendName() string {
	return t.backendName
}

// PoolStats exposes the underlying connection pool counters for the
// cache_connection_pool_usage gauge.
func (t *Transport) PoolStats() *redis.PoolStats {
	return t.client.PoolStats()
}

// DBSize reports the key count of the currently selected database, for
// the cache_keys_total gauge.
func (t *Transport) DBSize(ctx context.Context) (int64, yaerrors.Error) {
	count, err := t.client.DBSize(ctx).Result()
	if err != nil {
		return 0, yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed DBSIZE", t.backendName))
	}

	return count, nil
}

// Set stores raw (already wire-encoded) bytes under key with ttl. A
// zero ttl stores indefinitely.
func (t *Transport) Set(ctx context.Context, key string, value []byte, ttl time.Duration) yaerrors.Error {
	if err := t.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return t.wrap(err, "SET", key)
	}

	return nil
}

// Get returns the raw bytes stored under key.
func (t *Transport) Get(ctx context.Context, key string) ([]byte, yaerrors.Error) {
	value, err := t.reader().Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, yaerrors.FromError(http.StatusNotFound, err, fmt.Sprintf("[%s] key %q not found", t.backendName, key))
		}

		return nil, t.wrap(err, "GET", key)
	}

	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Transport) Delete(ctx context.Context, key string) yaerrors.Error {
	if err := t.client.Del(ctx, key).Err(); err != nil {
		return t.wrap(err, "DEL", key)
	}

	return nil
}

// Exists reports whether key is present.
func (t *Transport) Exists(ctx context.Context, key string) (bool, yaerrors.Error) {
	n, err := t.reader().Exists(ctx, key).Result()
	if err != nil {
		return false, t.wrap(err, "EXISTS", key)
	}

	return n > 0, nil
}

// MSet writes every (key, value) pair in values in a single pipelined
// round-trip, applying ttl to each. Partial failures are reported
// per-key in the returned map (keys absent from the map succeeded).
func (t *Transport) MSet(ctx context.Context, values map[string][]byte, ttl time.Duration) (map[string]yaerrors.Error, yaerrors.Error) {
	pipe := t.client.Pipeline()

	cmds := make(map[string]*redis.StatusCmd, len(values))
	for key, value := range values {
		cmds[key] = pipe.Set(ctx, key, value, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		t.log.Warnf("transport: MSET pipeline reported an error, inspecting per-key results: %v", err)
	}

	failures := make(map[string]yaerrors.Error)

	for key, cmd := range cmds {
		if err := cmd.Err(); err != nil {
			failures[key] = t.wrap(err, "SET", key)
		}
	}

	if len(failures) > 0 {
		return failures, nil
	}

	return nil, nil
}

// MGet fetches every requested key in a single pipelined round-trip.
// Missing keys are simply absent from the result map; this is not an
// error (batch consistency: "all or nothing" applies to transport
// failures, not to individual cache misses).
func (t *Transport) MGet(ctx context.Context, keys []string) (map[string][]byte, yaerrors.Error) {
	pipe := t.reader().Pipeline()

	cmds := make(map[string]*redis.StringCmd, len(keys))
	for _, key := range keys {
		cmds[key] = pipe.Get(ctx, key)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed pipelined MGET", t.backendName))
	}

	result := make(map[string][]byte, len(keys))

	for key, cmd := range cmds {
		value, err := cmd.Bytes()
		if err != nil {
			continue
		}

		result[key] = value
	}

	return result, nil
}

// MDelete deletes every key in a single round-trip.
func (t *Transport) MDelete(ctx context.Context, keys []string) yaerrors.Error {
	if len(keys) == 0 {
		return nil
	}

	if err := t.client.Del(ctx, keys...).Err(); err != nil {
		return yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed batch DEL", t.backendName))
	}

	return nil
}

// ScanKeys iterates all keys matching pattern using a cursor-based
// SCAN (never KEYS, to avoid blocking the server).
func (t *Transport) ScanKeys(ctx context.Context, pattern string) ([]string, yaerrors.Error) {
	iter := t.reader().Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return nil, yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed SCAN %q", t.backendName, pattern))
	}

	return keys, nil
}

// FlushDB removes every key in the currently selected database.
func (t *Transport) FlushDB(ctx context.Context) yaerrors.Error {
	if err := t.client.FlushDB(ctx).Err(); err != nil {
		return yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed FLUSHDB", t.backendName))
	}

	return nil
}

// Ping verifies connectivity.
func (t *Transport) Ping(ctx context.Context) yaerrors.Error {
	if err := t.client.Ping(ctx).Err(); err != nil {
		return yaerrors.FromError(http.StatusServiceUnavailable, err, fmt.Sprintf("[%s] failed PING", t.backendName))
	}

	return nil
}

// Close releases all pooled connections, primary and replica.
func (t *Transport) Close() yaerrors.Error {
	if t.readClient != nil {
		if err := t.readClient.Close(); err != nil {
			t.log.Warnf("transport: failed to close replica client: %v", err)
		}
	}

	if err := t.client.Close(); err != nil {
		return yaerrors.FromError(http.StatusInternalServerError, err, fmt.Sprintf("[%s] failed to close client", t.backendName))
	}

	return nil
}

func (t *Transport) wrap(err error, op, key string) yaerrors.Error {
	return yaerrors.FromError(
		http.StatusInternalServerError,
		err,
		fmt.Sprintf("[%s] failed `%s` for key %q", t.backendName, op, key),
	)
}
