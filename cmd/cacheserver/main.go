// Command cacheserver wires the Near-Cache, Redis Transport, Circuit
// Breaker, Metrics Sink, Cache Manager, and HTTP API Surface into a
// runnable service, then serves it until SIGINT/SIGTERM with a graceful
// shutdown window.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/YaCodeDev/GoCacheService/appconfig"
	"github.com/YaCodeDev/GoCacheService/breaker"
	"github.com/YaCodeDev/GoCacheService/cachemanager"
	"github.com/YaCodeDev/GoCacheService/codec"
	"github.com/YaCodeDev/GoCacheService/healthstate"
	"github.com/YaCodeDev/GoCacheService/httpapi"
	"github.com/YaCodeDev/GoCacheService/metrics"
	"github.com/YaCodeDev/GoCacheService/nearcache"
	"github.com/YaCodeDev/GoCacheService/transport"
	"github.com/YaCodeDev/GoCacheService/yalogger"
)

func main() {
	cfg := appconfig.Load()

	log := yalogger.NewBaseLogger(&yalogger.Config{Level: parseLevel(cfg.LogLevel)}).NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tr, err := transport.New(ctx, transport.Config{
		Mode:             cfg.TransportMode(),
		Addresses:        cfg.RedisAddresses,
		ReplicaAddresses: cfg.RedisReplicaAddresses,
		SentinelMaster:   cfg.RedisSentinelMaster,
		Password:         cfg.RedisPassword,
		DB:               cfg.RedisDB,
		PoolSize:         cfg.RedisPoolSize,
	}, log)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer tr.Close()

	near := nearcache.New(cfg.NearcacheMaxEntries, time.Duration(cfg.NearcacheTTLSeconds)*time.Second)
	defer near.Close()

	br := breaker.New(breaker.Config{
		Threshold:           cfg.BreakerThreshold,
		Timeout:             time.Duration(cfg.BreakerTimeoutSeconds) * time.Second,
		HalfOpenMaxRequests: cfg.BreakerHalfOpenMax,
	})

	sink := metrics.New(cfg.MetricsEnabled)

	cod := codec.New(codec.Options{
		CompressionEnabled:   cfg.CompressionEnabled,
		CompressionThreshold: cfg.CompressionThresholdBytes,
		CompressionLevel:     cfg.CompressionLevel,
	})

	acl := cachemanager.NewACL(splitACL(cfg))

	manager := cachemanager.New(
		cachemanager.Config{CacheNulls: cfg.CacheNulls, NodeName: tr.BackendName()},
		near, tr, br, sink, cod, acl, log,
	)

	health := healthstate.New(cfg.BreakerThreshold)

	go sampleMetrics(ctx, tr, manager, sink, log)

	server := httpapi.New(manager, health, sink, log, cfg.RateLimitPerMinute)

	httpServer := &http.Server{
		Addr:              cfg.HTTPBindAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("listening on %s", cfg.HTTPBindAddress)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	stop()

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("error during shutdown: %v", err)
	}

	log.Info("exited")
}

// sampleMetrics resamples connection-pool, breaker, and cache state
// every 30 seconds and refreshes the corresponding gauges, matching
// monitoring.py's expectation of a periodically-refreshed
// cache_connection_pool_usage/circuit_breaker_state/cache_keys_total/
// cache_hit_rate/cache_evictions_total. It never blocks foreground
// request handling: every read here is either in-memory (PoolStats,
// breaker/near-cache snapshots) or a single DBSIZE round-trip, and the
// loop exits as soon as ctx is cancelled.
func sampleMetrics(
	ctx context.Context,
	tr *transport.Transport,
	manager *cachemanager.Manager,
	sink *metrics.Sink,
	log yalogger.Logger,
) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	var lastEvictions uint64

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		stats := manager.Stats()

		for _, snap := range stats.Breakers {
			sink.SetBreakerState(snap.Operation, snap.Node, int(snap.State))
		}

		pool := tr.PoolStats()
		sink.SetConnectionPoolUsage("redis", "active", float64(pool.TotalConns-pool.IdleConns))
		sink.SetConnectionPoolUsage("redis", "idle", float64(pool.IdleConns))
		sink.SetConnectionPoolUsage("redis", "total", float64(pool.TotalConns))

		if count, derr := tr.DBSize(ctx); derr == nil {
			sink.SetKeysTotal(stats.Backend, float64(count))
		} else {
			log.Warnf("metrics sampler: DBSIZE failed: %v", derr)
		}

		near := stats.NearCache
		if total := near.Hits + near.Misses; total > 0 {
			sink.SetHitRate("near_cache", float64(near.Hits)/float64(total)*100)
		}

		if near.Evictions > lastEvictions {
			sink.RecordEviction("lru", stats.Backend, float64(near.Evictions-lastEvictions))
			lastEvictions = near.Evictions
		}
	}
}

func splitACL(cfg *appconfig.Config) map[string][]string {
	out := make(map[string][]string, len(cfg.KeyspaceACL))

	for service := range cfg.KeyspaceACL {
		keyspaces, _ := cfg.KeyspacesFor(service)
		out[service] = keyspaces
	}

	return out
}

func parseLevel(name string) yalogger.Level {
	level, err := yalogger.ParseLevel(name)
	if err != nil {
		return yalogger.InfoLevel
	}

	return level
}
