package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const idleTTL = 10 * time.Minute

type entry struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps one token bucket per key (client address). Buckets idle for
// longer than idleTTL are evicted.
type Limiter struct {
	mu        sync.Mutex
	m         map[string]*entry
	capacity  int
	refill    rate.Limit
	lastSweep time.Time
	now       func() time.Time
}

func New(capacity int, refillPerSec float64) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{
		m:        make(map[string]*entry),
		capacity: capacity,
		refill:   rate.Limit(refillPerSec),
		now:      time.Now,
	}
}

// Allow returns true if one token can be consumed for key.
func (l *Limiter) Allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > idleTTL {
		for k, e := range l.m {
			if now.Sub(e.lastSeen) > idleTTL {
				delete(l.m, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.m[key]
	if !ok {
		e = &entry{lim: rate.NewLimiter(l.refill, l.capacity)}
		l.m[key] = e
	}
	e.lastSeen = now
	return e.lim.AllowN(now, 1)
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.m)
}
