// Package trafilatura implements canillita.LibraryParser with go-trafilatura.
package trafilatura

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/canillita"
	"github.com/markusmobius/go-trafilatura"
)

// Ensure Parser implements canillita.LibraryParser at compile time.
var _ canillita.LibraryParser = (*Parser)(nil)

// Parser fetches a URL and extracts its article with go-trafilatura.
type Parser struct {
	fetcher canillita.Fetcher
}

// NewParser creates a new Parser that fetches documents with fetcher.
func NewParser(fetcher canillita.Fetcher) *Parser {
	return &Parser{fetcher: fetcher}
}

// Parse fetches the URL and returns the parsed article.
func (p *Parser) Parse(ctx context.Context, rawURL string) (*canillita.ParsedDocument, error) {
	html, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ParseHTML(html, rawURL)
}

// ParseHTML extracts the article from already fetched HTML.
func ParseHTML(html, rawURL string) (*canillita.ParsedDocument, error) {
	if strings.TrimSpace(html) == "" {
		return nil, canillita.Errorf(canillita.EINVALID, "empty HTML input")
	}

	opts := trafilatura.Options{
		EnableFallback: true,
	}
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		opts.OriginalURL = u
	}

	result, err := trafilatura.Extract(strings.NewReader(html), opts)
	if err != nil {
		return nil, canillita.Errorf(canillita.EREJECTED, "trafilatura: %v", err)
	}

	doc := &canillita.ParsedDocument{
		Title:   strings.TrimSpace(result.Metadata.Title),
		Text:    strings.TrimSpace(result.ContentText),
		Authors: splitAuthors(result.Metadata.Author),
	}
	if !result.Metadata.Date.IsZero() {
		date := result.Metadata.Date.UTC()
		doc.PublishedAt = &date
	}
	return doc, nil
}

// splitAuthors splits trafilatura's "A; B" author list.
func splitAuthors(s string) []string {
	return canillita.UniqueStrings(strings.Split(s, ";"))
}
