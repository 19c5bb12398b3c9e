// Package gofeed discovers items from RSS and Atom feeds.
package gofeed

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/canillita"
	"github.com/mmcdole/gofeed"
)

// Ensure Source implements canillita.ItemSource at compile time.
var _ canillita.ItemSource = (*Source)(nil)

// Source lists the items of one feed.
type Source struct {
	fetcher canillita.Fetcher
	feedURL string
	parser  *gofeed.Parser
	now     func() time.Time
}

// NewSource creates a Source reading feedURL through fetcher.
func NewSource(fetcher canillita.Fetcher, feedURL string) *Source {
	return &Source{
		fetcher: fetcher,
		feedURL: feedURL,
		parser:  gofeed.NewParser(),
		now:     time.Now,
	}
}

// Items fetches and parses the feed. Entries without a link are skipped.
func (s *Source) Items(ctx context.Context) ([]*canillita.Item, error) {
	data, err := s.fetcher.Fetch(ctx, s.feedURL)
	if err != nil {
		return nil, err
	}
	return s.Parse(data)
}

// Parse converts feed markup to items.
func (s *Source) Parse(data string) ([]*canillita.Item, error) {
	feed, err := s.parser.ParseString(data)
	if err != nil {
		return nil, canillita.Errorf(canillita.EINVALID, "failed to parse feed %s: %v", s.feedURL, err)
	}

	items := make([]*canillita.Item, 0, len(feed.Items))
	for _, fi := range feed.Items {
		if fi == nil || strings.TrimSpace(fi.Link) == "" {
			continue
		}
		items = append(items, s.normalizeItem(fi))
	}
	return items, nil
}

func (s *Source) normalizeItem(fi *gofeed.Item) *canillita.Item {
	link := strings.TrimSpace(fi.Link)
	item := &canillita.Item{
		ID:        canillita.ItemIDFromURL(link),
		Source:    s.feedURL,
		URL:       link,
		Title:     strings.TrimSpace(fi.Title),
		Author:    author(fi),
		CreatedAt: s.now().UTC(),
	}
	if guid := strings.TrimSpace(fi.GUID); guid != "" {
		item.ID = "guid:" + guid
	}
	if t := cmp.Or(fi.PublishedParsed, fi.UpdatedParsed); t != nil {
		item.CreatedAt = t.UTC()
	}
	return item
}

func author(fi *gofeed.Item) string {
	var names []string
	for _, a := range fi.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			names = append(names, strings.TrimSpace(a.Name))
		}
	}
	if len(names) == 0 && fi.Author != nil {
		names = append(names, strings.TrimSpace(fi.Author.Name))
	}
	return strings.Join(names, ", ")
}

// String describes the source for logs.
func (s *Source) String() string {
	return fmt.Sprintf("feed %s", s.feedURL)
}
