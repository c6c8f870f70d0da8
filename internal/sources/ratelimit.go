package sources

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/medterm/internal/core/domain"
)

// RateLimitConfig holds rate limiting configuration for a service.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate limit.
	RequestsPerSecond float64
	// BurstSize is the maximum burst size.
	BurstSize int
}

// DefaultRateLimits are conservative per-service limits. NLM asks callers
// to stay below 20 requests per second per IP across its services; OpenFDA
// allows 240 per minute without a key.
var DefaultRateLimits = map[domain.SourceKind]RateLimitConfig{
	domain.SourceConditions:   {RequestsPerSecond: 10, BurstSize: 10},
	domain.SourceHealthTopics: {RequestsPerSecond: 5, BurstSize: 5},
	domain.SourceRxNorm:       {RequestsPerSecond: 15, BurstSize: 15},
	domain.SourceOpenFDA:      {RequestsPerSecond: 4, BurstSize: 8},
	domain.SourceUMLS:         {RequestsPerSecond: 15, BurstSize: 15},
}

// DefaultBackoff applies when a 429 carries no usable Retry-After.
const DefaultBackoff = 60 * time.Second

// RateLimiter is a token bucket with a backoff window set by 429 responses.
// While the backoff window is open, calls fail fast with domain.ErrRateLimited
// instead of queueing behind the server's limit.
type RateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter with the default limits for kind.
func NewRateLimiter(kind domain.SourceKind) *RateLimiter {
	cfg, ok := DefaultRateLimits[kind]
	if !ok {
		cfg = RateLimitConfig{RequestsPerSecond: 5, BurstSize: 10}
	}
	return NewRateLimiterWithConfig(cfg)
}

// NewRateLimiterWithConfig creates a rate limiter with custom configuration.
func NewRateLimiterWithConfig(cfg RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.BurstSize),
		now:     time.Now,
	}
}

// Wait blocks until a request may be sent.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if r.now().Before(retryAt) {
		return fmt.Errorf("%w: backing off until %s", domain.ErrRateLimited, retryAt.Format(time.RFC3339))
	}

	if err := r.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		// The token would arrive after the deadline.
		return fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}
	return nil
}

// RecordRateLimit opens a backoff window. A non-positive wait uses DefaultBackoff.
func (r *RateLimiter) RecordRateLimit(wait time.Duration) {
	if wait <= 0 {
		wait = DefaultBackoff
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if until := r.now().Add(wait); until.After(r.retryAt) {
		r.retryAt = until
	}
}

// BackingOff reports whether the backoff window is open.
func (r *RateLimiter) BackingOff() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.now().Before(r.retryAt)
}

// ParseRetryAfter reads a Retry-After header given in seconds or as an HTTP date.
// Returns zero when the header is absent or unparsable.
func ParseRetryAfter(value string, now time.Time) time.Duration {
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
