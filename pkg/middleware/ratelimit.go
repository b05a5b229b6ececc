package middleware

import (
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/helium-dev/helium/pkg/procedure"
	"github.com/helium-dev/helium/pkg/protocol"
	"github.com/helium-dev/helium/pkg/transport"
)

// KeyedLimiter applies a token bucket per key and evicts idle keys.
// A nil *KeyedLimiter allows everything.
type KeyedLimiter struct {
	limit   rate.Limit
	burst   int
	idleTTL time.Duration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter returns a limiter allowing rps calls per second with the
// given burst for each key. It returns nil when rps or burst is not positive.
func NewKeyedLimiter(rps float64, burst int, idleTTL time.Duration) *KeyedLimiter {
	if rps <= 0 || burst <= 0 {
		return nil
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		idleTTL: idleTTL,
		byKey:   make(map[string]*bucket),
	}
}

// Allow reports whether one call for key may proceed at now.
// Empty keys are never limited.
func (l *KeyedLimiter) Allow(key string, now time.Time) bool {
	if l == nil {
		return true
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	l.hits++
	if l.hits%512 == 0 {
		cutoff := now.Add(-l.idleTTL)
		for k, v := range l.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(l.byKey, k)
			}
		}
	}

	return allowed
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byKey)
}

// RateLimitOption configures RateLimit.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	key     func(ctx context.Context, req *protocol.Request) string
	idleTTL time.Duration
	now     func() time.Time
}

// WithKeyFunc sets how calls are grouped into buckets.
// Default: the host part of the caller's remote address.
func WithKeyFunc(fn func(ctx context.Context, req *protocol.Request) string) RateLimitOption {
	return func(c *rateLimitConfig) {
		if fn != nil {
			c.key = fn
		}
	}
}

// WithIdleTTL sets how long an unused bucket is kept. Default: 10 minutes.
func WithIdleTTL(ttl time.Duration) RateLimitOption {
	return func(c *rateLimitConfig) {
		c.idleTTL = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) RateLimitOption {
	return func(c *rateLimitConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// RemoteHost keys calls by the host of CallInfo.RemoteAddr.
func RemoteHost(ctx context.Context, _ *protocol.Request) string {
	info, ok := procedure.InfoFromContext(ctx)
	if !ok {
		return ""
	}
	host, _, err := net.SplitHostPort(info.RemoteAddr)
	if err != nil {
		return info.RemoteAddr
	}
	return host
}

// RateLimit refuses calls beyond rps per second (with burst) per key with a
// RateLimited failure. A non-positive rps or burst disables limiting.
func RateLimit(rps float64, burst int, opts ...RateLimitOption) transport.Middleware {
	config := rateLimitConfig{key: RemoteHost, now: time.Now}
	for _, opt := range opts {
		opt(&config)
	}
	limiter := NewKeyedLimiter(rps, burst, config.idleTTL)

	return func(next transport.Invoker) transport.Invoker {
		if limiter == nil {
			return next
		}
		return func(ctx context.Context, req *protocol.Request) *protocol.Response {
			if !limiter.Allow(config.key(ctx, req), config.now()) {
				return protocol.Failure(req.CorrelationID, protocol.KindRateLimited, "rate limit exceeded")
			}
			return next(ctx, req)
		}
	}
}
