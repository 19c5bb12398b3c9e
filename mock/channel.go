package mock

import (
	"context"

	"github.com/fwojciec/canillita"
)

var _ canillita.Channel = (*Channel)(nil)

// Channel is a mock implementation of canillita.Channel.
type Channel struct {
	DeliverFn func(ctx context.Context, item *canillita.Item, messages []string) error
}

func (c *Channel) Deliver(ctx context.Context, item *canillita.Item, messages []string) error {
	return c.DeliverFn(ctx, item, messages)
}

var _ canillita.ClaimLock = (*ClaimLock)(nil)

// ClaimLock is a mock implementation of canillita.ClaimLock.
type ClaimLock struct {
	ClaimFn   func(ctx context.Context, itemID string) (bool, error)
	ReleaseFn func(ctx context.Context, itemID string) error
}

func (l *ClaimLock) Claim(ctx context.Context, itemID string) (bool, error) {
	return l.ClaimFn(ctx, itemID)
}

func (l *ClaimLock) Release(ctx context.Context, itemID string) error {
	return l.ReleaseFn(ctx, itemID)
}

var _ canillita.ItemSource = (*ItemSource)(nil)

// ItemSource is a mock implementation of canillita.ItemSource.
type ItemSource struct {
	ItemsFn func(ctx context.Context) ([]*canillita.Item, error)
}

func (s *ItemSource) Items(ctx context.Context) ([]*canillita.Item, error) {
	return s.ItemsFn(ctx)
}
