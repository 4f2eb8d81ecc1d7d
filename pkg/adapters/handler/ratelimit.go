package handler

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 3 * time.Minute

// IPRateLimiter manages rate limiters for each IP
type IPRateLimiter struct {
	ips         map[string]*rateLimiterEntry
	mu          sync.Mutex
	r           rate.Limit
	burst       int
	lastCleanup time.Time
}

type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter creates a new IP-based rate limiter
// r = requests per second, burst = max burst size
func NewIPRateLimiter(r rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:         make(map[string]*rateLimiterEntry),
		r:           r,
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

// GetLimiter returns the rate limiter for the given IP. Idle entries are
// swept at most once a minute.
func (rl *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.Sub(rl.lastCleanup) > time.Minute {
		for key, entry := range rl.ips {
			if now.Sub(entry.lastSeen) > limiterIdleTTL {
				delete(rl.ips, key)
			}
		}
		rl.lastCleanup = now
	}

	entry, exists := rl.ips[ip]
	if !exists {
		entry = &rateLimiterEntry{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.ips[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}
