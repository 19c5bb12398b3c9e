// Package redis provides a canillita.ClaimLock backed by Redis, for
// deployments where several processes share one posting channel but not
// one record store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/canillita"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultPrefix namespaces claim keys.
	DefaultPrefix = "canillita:claim"

	// DefaultTTL keeps claims as long as records are retained.
	DefaultTTL = 30 * 24 * time.Hour
)

// Ensure ClaimLock implements canillita.ClaimLock at compile time.
var _ canillita.ClaimLock = (*ClaimLock)(nil)

// Client is the subset of redis.Cmdable used by ClaimLock.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ClaimLock claims item IDs with SET NX.
type ClaimLock struct {
	client Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a ClaimLock.
type Option func(*ClaimLock)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(l *ClaimLock) {
		l.prefix = prefix
	}
}

// WithTTL sets how long a claim lives. Zero keeps claims forever.
func WithTTL(ttl time.Duration) Option {
	return func(l *ClaimLock) {
		l.ttl = ttl
	}
}

// NewClaimLock creates a ClaimLock over client.
func NewClaimLock(client Client, opts ...Option) *ClaimLock {
	l := &ClaimLock{
		client: client,
		prefix: DefaultPrefix,
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Dial connects to the Redis server at url and verifies the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Key returns the Redis key for an item.
func (l *ClaimLock) Key(itemID string) string {
	return l.prefix + ":" + itemID
}

// Claim sets the item's key if it is absent. The stored value is the
// claim time.
func (l *ClaimLock) Claim(ctx context.Context, itemID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.Key(itemID), l.now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", itemID, err)
	}
	return ok, nil
}

// Release deletes the item's key.
func (l *ClaimLock) Release(ctx context.Context, itemID string) error {
	if err := l.client.Del(ctx, l.Key(itemID)).Err(); err != nil {
		return fmt.Errorf("release %s: %w", itemID, err)
	}
	return nil
}
