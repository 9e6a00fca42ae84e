package config

import "time"

// RateLimitConfig describes one token bucket. Buckets are keyed per client
// IP and route, so each endpoint carries its own budget.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int           // burst size
	RefillTokens   int           // tokens added per interval
	RefillInterval time.Duration // refill cadence
	TTL            time.Duration // redis key lifetime
	Prefix         string        // key namespace
	Debug          bool
}

// LoadRateLimitConfig reads the global limiter switches. Per-route budgets
// come from RouteLimit; this only controls whether limiting runs at all.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled: envBool("RATE_LIMIT_ENABLED", true),
		Prefix:  envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:   envBool("RATE_LIMIT_DEBUG", false),
	}
}

// RouteLimit derives a per-route bucket from the global config: capacity
// requests per window, refilled evenly across the window. The key TTL is
// kept well past the window so idle buckets expire on their own.
func (c RateLimitConfig) RouteLimit(capacity int, window time.Duration) RateLimitConfig {
	if capacity < 1 {
		capacity = 1
	}
	interval := window / time.Duration(capacity)
	if interval <= 0 {
		interval = time.Second
	}
	ttl := 5 * window
	if ttl < time.Minute {
		ttl = time.Minute
	}
	out := c
	out.Capacity = capacity
	out.RefillTokens = 1
	out.RefillInterval = interval
	out.TTL = ttl
	return out
}
