package pipeline

import (
	"context"
	"sync"

	"github.com/fwojciec/canillita"
	"golang.org/x/time/rate"
)

var _ canillita.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter provides per-origin rate limiting using token buckets.
// Requests to different origins proceed concurrently while requests to
// one origin are spaced out.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per
// second to each origin, with a burst of 1.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

var _ canillita.Fetcher = (*RateLimitedFetcher)(nil)

// RateLimitedFetcher waits on a DomainLimiter before each fetch.
type RateLimitedFetcher struct {
	fetcher canillita.Fetcher
	limiter canillita.DomainLimiter
}

// NewRateLimitedFetcher wraps fetcher with per-origin pacing.
func NewRateLimitedFetcher(fetcher canillita.Fetcher, limiter canillita.DomainLimiter) *RateLimitedFetcher {
	return &RateLimitedFetcher{fetcher: fetcher, limiter: limiter}
}

// Fetch waits for the URL's origin slot and then fetches it.
func (f *RateLimitedFetcher) Fetch(ctx context.Context, url string) (string, error) {
	origin, err := canillita.OriginOf(url)
	if err != nil {
		return "", err
	}
	if err := f.limiter.Wait(ctx, origin); err != nil {
		return "", err
	}
	return f.fetcher.Fetch(ctx, url)
}

// Close closes the underlying fetcher.
func (f *RateLimitedFetcher) Close() error {
	return f.fetcher.Close()
}
