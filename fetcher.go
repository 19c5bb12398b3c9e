package canillita

import "context"

// Fetcher retrieves raw markup from URLs.
type Fetcher interface {
	// Fetch returns the markup served for the URL.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// DomainLimiter paces requests per origin.
type DomainLimiter interface {
	// Wait blocks until a request to the domain is allowed or ctx is done.
	Wait(ctx context.Context, domain string) error
}
