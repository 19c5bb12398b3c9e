// Package readability implements canillita.LibraryParser with go-readability.
package readability

import (
	"context"
	"net/url"
	"strings"

	"github.com/fwojciec/canillita"
	"github.com/go-shiori/go-readability"
)

// Ensure Parser implements canillita.LibraryParser at compile time.
var _ canillita.LibraryParser = (*Parser)(nil)

// Parser fetches a URL and extracts its article with go-readability. When
// a converter is set, the article HTML is converted to markdown so that
// headings and lists survive; otherwise the plain text is used.
type Parser struct {
	fetcher   canillita.Fetcher
	converter canillita.Converter
}

// NewParser creates a new Parser. The converter may be nil.
func NewParser(fetcher canillita.Fetcher, converter canillita.Converter) *Parser {
	return &Parser{fetcher: fetcher, converter: converter}
}

// Parse fetches the URL and returns the parsed article.
func (p *Parser) Parse(ctx context.Context, rawURL string) (*canillita.ParsedDocument, error) {
	html, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return p.ParseHTML(html, rawURL)
}

// ParseHTML extracts the article from already fetched HTML.
func (p *Parser) ParseHTML(html, rawURL string) (*canillita.ParsedDocument, error) {
	if strings.TrimSpace(html) == "" {
		return nil, canillita.Errorf(canillita.EINVALID, "empty HTML input")
	}

	var pageURL *url.URL
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		pageURL = u
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, canillita.Errorf(canillita.EREJECTED, "readability: %v", err)
	}

	text := article.TextContent
	if p.converter != nil && strings.TrimSpace(article.Content) != "" {
		md, err := p.converter.Convert(article.Content)
		if err != nil {
			return nil, err
		}
		text = md
	}

	return &canillita.ParsedDocument{
		Title:   strings.TrimSpace(article.Title),
		Text:    strings.TrimSpace(text),
		Authors: canillita.UniqueStrings([]string{article.Byline}),
	}, nil
}
