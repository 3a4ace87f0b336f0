package game

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipRateLimiters tracks one token bucket per remote address. Entries idle
// past the ttl are swept so the map stays bounded.
type ipRateLimiters struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	limit    rate.Limit
	burst    int
	ttl      time.Duration
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiters(limit rate.Limit, burst int, ttl time.Duration) *ipRateLimiters {
	l := &ipRateLimiters{
		limiters: make(map[string]*ipLimiterEntry),
		limit:    limit,
		burst:    burst,
		ttl:      ttl,
	}
	go l.sweep()
	return l
}

// reserve reports whether the caller may proceed and, when it may not, how
// long to wait before retrying.
func (l *ipRateLimiters) reserve(ip string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	reservation := entry.limiter.Reserve()
	if delay := reservation.Delay(); delay > 0 {
		reservation.Cancel()
		return false, delay
	}
	return true, 0
}

func (l *ipRateLimiters) sweep() {
	ticker := time.NewTicker(l.ttl)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-l.ttl)
		l.mu.Lock()
		for ip, entry := range l.limiters {
			if entry.lastSeen.Before(cutoff) {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}
