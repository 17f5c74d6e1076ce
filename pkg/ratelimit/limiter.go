package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter paces outgoing requests
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter to its burst capacity
	Reset()
}

// TokenBucket is a Limiter backed by golang.org/x/time/rate
type TokenBucket struct {
	mu    sync.Mutex
	every time.Duration
	burst int
	lim   *rate.Limiter
}

// NewTokenBucket creates a bucket holding burst tokens that gains one token every interval
func NewTokenBucket(burst int, every time.Duration) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{
		every: every,
		burst: burst,
		lim:   rate.NewLimiter(rate.Every(every), burst),
	}
}

// NewPerMinute returns a Limiter allowing requestsPerMinute on average.
// A non-positive rate disables pacing.
func NewPerMinute(requestsPerMinute, burst int) Limiter {
	if requestsPerMinute <= 0 {
		return Unlimited{}
	}
	return NewTokenBucket(burst, time.Minute/time.Duration(requestsPerMinute))
}

func (tb *TokenBucket) limiter() *rate.Limiter {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.lim
}

func (tb *TokenBucket) Allow() bool {
	return tb.limiter().Allow()
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.limiter().Wait(ctx)
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.lim = rate.NewLimiter(rate.Every(tb.every), tb.burst)
}

// Unlimited never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
