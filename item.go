package canillita

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Item is one unit of work: a link discovered by an external source.
type Item struct {
	// ID uniquely identifies the item. Deduplication is keyed on it.
	ID string

	// Source names where the item was discovered, such as a feed URL.
	Source string

	URL       string
	Title     string
	Author    string
	CreatedAt time.Time
}

// Validate returns an error if the item contains invalid fields.
func (i *Item) Validate() error {
	if i.ID == "" {
		return Errorf(EINVALID, "item ID required")
	}
	if i.URL == "" {
		return Errorf(EINVALID, "item URL required")
	}
	if _, err := OriginOf(i.URL); err != nil {
		return err
	}
	return nil
}

// ItemSource lists candidate items. Deciding which items exist is left
// to the source; the pipeline only deduplicates them.
type ItemSource interface {
	Items(ctx context.Context) ([]*Item, error)
}

// ItemIDFromURL derives a stable item ID from a URL. The scheme and host
// are lowercased, a leading "www." and the fragment are dropped.
func ItemIDFromURL(rawURL string) string {
	key := strings.TrimSpace(rawURL)
	if u, err := url.Parse(key); err == nil && u.Host != "" {
		u.Scheme = strings.ToLower(u.Scheme)
		u.Host = NormalizeOrigin(u.Host)
		u.Fragment = ""
		key = u.String()
	}
	return fmt.Sprintf("url:%x", xxhash.Sum64String(key))
}

// NewItemFromURL returns an item for a bare URL.
func NewItemFromURL(rawURL string) *Item {
	rawURL = strings.TrimSpace(rawURL)
	return &Item{
		ID:        ItemIDFromURL(rawURL),
		URL:       rawURL,
		CreatedAt: time.Now().UTC(),
	}
}
