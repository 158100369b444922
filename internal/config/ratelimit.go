package config

import (
    "os"
    "strconv"
    "time"
)

// RateLimitConfig configures the per-route limiter.  Every limited route
// allows Capacity requests per Window for one key (by default client IP
// plus route).
type RateLimitConfig struct {
    Enabled     bool
    Capacity    int
    Window      time.Duration
    TTL         time.Duration
    KeyStrategy string
    Prefix      string
    Debug       bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:     envBool("RATE_LIMIT_ENABLED", true),
        Capacity:    envInt("RATE_LIMIT_CAPACITY", 5),
        Window:      envDur("RATE_LIMIT_WINDOW", time.Minute),
        TTL:         envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy: envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:      envStr("RATE_LIMIT_PREFIX", "rl"),
        Debug:       envBool("RATE_LIMIT_DEBUG", false),
    }
    return def.Normalize()
}

// Normalize clamps nonsensical values so the limiter never divides by zero
// or forgets a key before its window has passed.
func (c RateLimitConfig) Normalize() RateLimitConfig {
    if c.Capacity < 1 { c.Capacity = 1 }
    if c.Window <= 0 { c.Window = time.Minute }
    if minTTL := 2 * c.Window; c.TTL < minTTL { c.TTL = minTTL }
    if c.Prefix == "" { c.Prefix = "rl" }
    return c
}

func envStr(k, d string) string { if v := os.Getenv(k); v != "" { return v }; return d }
func envBool(k string, d bool) bool {
    v := os.Getenv(k)
    if v == "" { return d }
    switch v {
    case "1","true","TRUE","True","yes","YES","on","ON": return true
    case "0","false","FALSE","False","no","NO","off","OFF": return false
    }
    return d
}
func envInt(k string, d int) int {
    v := os.Getenv(k); if v == "" { return d }
    if n, err := strconv.Atoi(v); err == nil { return n }
    return d
}
func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k); if v == "" { return d }
    if dur, err := time.ParseDuration(v); err == nil { return dur }
    return d
}
