package canillita

import "context"

// Channel delivers rendered messages to an external posting channel.
// Implementations post the first message as the root and each following
// message in order as a reply to the previous one.
type Channel interface {
	Deliver(ctx context.Context, item *Item, messages []string) error
}

// ClaimLock claims item IDs across processes that do not share a record
// store. A second claim for the same ID fails until the claim is released
// or expires.
type ClaimLock interface {
	// Claim reports whether the caller now owns the item.
	Claim(ctx context.Context, itemID string) (bool, error)

	// Release drops a claim so the item can be processed again.
	Release(ctx context.Context, itemID string) error
}
