package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket refilled per minute
type Limiter struct {
	limiter   *rate.Limiter
	name      string
	perMinute int
}

// NewLimiter creates a new rate limiter
// requestsPerMinute: maximum number of requests allowed per minute
func NewLimiter(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0

	// Allow burst of 10% of per-minute limit
	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &Limiter{
		limiter:   rate.NewLimiter(rate.Limit(rps), burst),
		name:      name,
		perMinute: requestsPerMinute,
	}
}

// Allow checks if a request is allowed without blocking
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// AllowAt checks the bucket as of now
func (l *Limiter) AllowAt(now time.Time) bool {
	return l.limiter.AllowN(now, 1)
}

// refillTime is how long an untouched bucket takes to become full again
func (l *Limiter) refillTime() time.Duration {
	if l.perMinute <= 0 {
		return time.Minute
	}
	return time.Duration(l.limiter.Burst()) * time.Minute / time.Duration(l.perMinute)
}

type entry struct {
	limiter  *Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one bucket per caller key (client address). Buckets idle long enough
// to have refilled completely are dropped; recreating them later starts from the same state.
type KeyedLimiter struct {
	name      string
	perMinute int
	idleAfter time.Duration
	now       func() time.Time

	mu        sync.Mutex
	limiters  map[string]*entry
	lastSweep time.Time
}

// NewKeyedLimiter creates buckets lazily, each allowing requestsPerMinute
func NewKeyedLimiter(name string, requestsPerMinute int) *KeyedLimiter {
	idle := NewLimiter(name, requestsPerMinute).refillTime()
	if idle < time.Minute {
		idle = time.Minute
	}

	return &KeyedLimiter{
		name:      name,
		perMinute: requestsPerMinute,
		idleAfter: idle,
		now:       time.Now,
		limiters:  make(map[string]*entry),
	}
}

// Allow consumes a token from key's bucket
func (k *KeyedLimiter) Allow(key string) bool {
	now := k.now()

	k.mu.Lock()
	if now.Sub(k.lastSweep) >= k.idleAfter {
		k.sweep(now)
	}
	e, ok := k.limiters[key]
	if !ok {
		e = &entry{limiter: NewLimiter(k.name+":"+key, k.perMinute)}
		k.limiters[key] = e
	}
	e.lastSeen = now
	k.mu.Unlock()

	return e.limiter.AllowAt(now)
}

// sweep drops idle buckets. Caller holds mu.
func (k *KeyedLimiter) sweep(now time.Time) {
	for key, e := range k.limiters {
		if now.Sub(e.lastSeen) >= k.idleAfter {
			delete(k.limiters, key)
		}
	}
	k.lastSweep = now
}

// Len returns the number of tracked keys
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.limiters)
}
