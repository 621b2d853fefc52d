package handlers

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginThrottle is a token bucket per client key.
// A nil *LoginThrottle allows everything.
type LoginThrottle struct {
	mu      sync.Mutex
	buckets map[string]*throttleBucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
}

type throttleBucket struct {
	limiter *rate.Limiter
	seen    time.Time
}

// NewLoginThrottle allows perMinute attempts per key with the given burst.
// perMinute <= 0 disables throttling.
func NewLoginThrottle(perMinute, burst int) *LoginThrottle {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &LoginThrottle{
		buckets: make(map[string]*throttleBucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		ttl:     10 * time.Minute,
		now:     time.Now,
	}
}

// Allow reports whether key may attempt a login now.
func (t *LoginThrottle) Allow(key string) bool {
	if t == nil {
		return true
	}
	if key == "" {
		key = "unknown"
	}
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.prune(now)
	b, ok := t.buckets[key]
	if !ok {
		b = &throttleBucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[key] = b
	}
	b.seen = now
	return b.limiter.AllowN(now, 1)
}

func (t *LoginThrottle) prune(now time.Time) {
	for key, b := range t.buckets {
		if now.Sub(b.seen) > t.ttl {
			delete(t.buckets, key)
		}
	}
}
