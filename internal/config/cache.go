package config

import "time"

// CacheConfig defines settings for the response cache placed in front of
// the screening listing.  When Enabled is false or no Redis client is
// configured, caching is disabled.  TTL bounds how stale a cached
// reservation_amount can be.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      envList("CACHE_METHODS", "GET"),
		TTL:          envDur("CACHE_TTL", 10*time.Second),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cache:screenings"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}
