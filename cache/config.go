package cache

import (
	"time"

	"github.com/goliatone/go-repository-audit/internal/cacheinfra"
	"github.com/prometheus/client_golang/prometheus"
)

// Config exposes cache configuration options for consumers of the cache package.
type Config struct {
	Capacity           int
	NumShards          int
	TTL                time.Duration
	EvictionPercentage int
	EvictionInterval   time.Duration

	// MetricsNamespace prefixes the hit/miss/set/delete counters.
	MetricsNamespace string
	// Registerer receives the counters. Nil leaves them unregistered.
	Registerer prometheus.Registerer
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return convertFromInternal(cacheinfra.DefaultConfig())
}

// Validate checks whether the configuration values are valid.
func (c Config) Validate() error {
	return c.toInternal().Validate()
}

var (
	_ Cache             = (*cacheinfra.SturdycService)(nil)
	_ PrefixInvalidator = (*cacheinfra.SturdycService)(nil)
)

// NewCacheService constructs the default cache implementation using the provided configuration.
func NewCacheService(cfg Config) (Cache, error) {
	svc, err := cacheinfra.NewSturdycService(cfg.toInternal())
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func (c Config) toInternal() cacheinfra.Config {
	return cacheinfra.Config{
		Capacity:           c.Capacity,
		NumShards:          c.NumShards,
		TTL:                c.TTL,
		EvictionPercentage: c.EvictionPercentage,
		EvictionInterval:   c.EvictionInterval,
		MetricsNamespace:   c.MetricsNamespace,
		Registerer:         c.Registerer,
	}
}

func convertFromInternal(cfg cacheinfra.Config) Config {
	return Config{
		Capacity:           cfg.Capacity,
		NumShards:          cfg.NumShards,
		TTL:                cfg.TTL,
		EvictionPercentage: cfg.EvictionPercentage,
		EvictionInterval:   cfg.EvictionInterval,
		MetricsNamespace:   cfg.MetricsNamespace,
		Registerer:         cfg.Registerer,
	}
}
