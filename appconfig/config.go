// Package appconfig defines the service's configuration surface and
// loads it with the generic, reflection-driven
// config.LoadConfigStructFromEnv: one struct, field names mapped to
// SCREAMING_SNAKE_CASE env vars, `default:"..."` tags for optional
// fields, godotenv-backed .env loading.
package appconfig

import (
	"strings"

	"github.com/YaCodeDev/GoCacheService/config"
	"github.com/YaCodeDev/GoCacheService/transport"
	"github.com/sirupsen/logrus"
)

// Config is the complete set of environment-driven settings for the
// cache service, per SPEC_FULL.md §6.
type Config struct {
	RedisMode             string `default:"standalone"`
	RedisAddresses        []string
	RedisReplicaAddresses []string `default:""`
	RedisSentinelMaster   string   `default:""`
	RedisPassword         string   `default:""`
	RedisDB               int      `default:"0"`
	RedisPoolSize         int      `default:"10"`

	NearcacheMaxEntries int `default:"10000"`
	NearcacheTTLSeconds int `default:"30"`

	BreakerThreshold       int `default:"5"`
	BreakerTimeoutSeconds  int `default:"30"`
	BreakerHalfOpenMax     int `default:"1"`

	CompressionEnabled         bool `default:"true"`
	CompressionThresholdBytes  int  `default:"256"`
	CompressionLevel           int  `default:"6"`

	// KeyspaceACL maps a service identity to the keyspace it may access,
	// written as comma-separated service:keyspace entries, e.g.
	// "character:character,campaign:campaign". Entries are split on commas
	// before they are read, so each service holds a single keyspace; a
	// service cannot be given several keyspaces through this value.
	// Externalized per SPEC_FULL.md §9 (no hardcoded ALLOWED_KEYSPACES).
	KeyspaceACL map[string]string

	CacheNulls bool `default:"false"`

	RateLimitPerMinute uint8 `default:"0"`

	MetricsEnabled bool `default:"true"`

	HTTPBindAddress string `default:":8080"`

	LogLevel string `default:"info"`
}

// TransportMode converts the free-form RedisMode string into a
// transport.Mode, defaulting to standalone for unrecognised values.
func (c Config) TransportMode() transport.Mode {
	switch strings.ToLower(c.RedisMode) {
	case string(transport.ModeSentinel):
		return transport.ModeSentinel
	case string(transport.ModeCluster):
		return transport.ModeCluster
	default:
		return transport.ModeStandalone
	}
}

// KeyspacesFor splits a KeyspaceACL entry into its component keyspaces.
func (c Config) KeyspacesFor(service string) ([]string, bool) {
	raw, ok := c.KeyspaceACL[service]
	if !ok {
		return nil, false
	}

	return strings.Split(raw, ","), true
}

// Load reads the environment (and any .env file in the working
// directory) into a Config.
func Load() *Config {
	var cfg Config

	config.LoadConfigStructFromEnv(&cfg, logrus.NewEntry(logrus.StandardLogger()))

	return &cfg
}
