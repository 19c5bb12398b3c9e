package goquery

import (
	"context"

	"github.com/fwojciec/canillita"
)

// Ensure LibraryStrategy implements canillita.Strategy at compile time.
var _ canillita.Strategy = (*LibraryStrategy)(nil)

// LibraryStrategy extracts articles with a general-purpose parser and
// restores headings from the raw document: lines of the parsed text that
// repeat a document heading verbatim are promoted to heading markup.
type LibraryStrategy struct {
	name   string
	parser canillita.LibraryParser
}

// NewLibraryStrategy creates a LibraryStrategy registered under name.
func NewLibraryStrategy(name string, parser canillita.LibraryParser) *LibraryStrategy {
	return &LibraryStrategy{name: name, parser: parser}
}

// Name returns the strategy identifier.
func (s *LibraryStrategy) Name() string {
	return s.name
}

// Extract parses the URL with the library parser and cleans the result
// with the ruleset.
func (s *LibraryStrategy) Extract(ctx context.Context, src canillita.Source, rs *canillita.Ruleset) (*canillita.Article, error) {
	parsed, err := s.parser.Parse(ctx, src.URL())
	if err != nil {
		return nil, err
	}

	text := parsed.Text
	if doc, err := src.Document(ctx); err == nil {
		if headings, err := Headings(doc.HTML, rs); err == nil {
			text = canillita.PromoteHeadings(text, headings)
		}
	}

	body := canillita.Cleanup(text, rs)
	if body == "" {
		return nil, canillita.Errorf(canillita.EREJECTED, "%s parser found no text", s.name)
	}

	return &canillita.Article{
		URL:         src.URL(),
		Title:       rs.CleanTitle(parsed.Title),
		Body:        body,
		Authors:     canillita.UniqueStrings(parsed.Authors),
		PublishedAt: parsed.PublishedAt,
		Method:      s.name,
		Ruleset:     rs.Name,
	}, nil
}
