package canillita

import (
	"context"
	"sort"
	"strings"
	"time"
)

// RawDocument is fetched markup for one extraction attempt.
type RawDocument struct {
	URL       string
	HTML      string
	FetchedAt time.Time
}

// Article is an extracted news article.
type Article struct {
	URL         string
	Title       string
	Body        string
	Authors     []string
	PublishedAt *time.Time

	// Method is the identifier of the strategy that produced the article.
	Method string

	// Ruleset is the name of the ruleset used during extraction.
	Ruleset string
}

// Element is one structural element retained from a content container.
type Element struct {
	// Kind is the lowercase tag name: h1-h6, p, ul, ol or blockquote.
	Kind string

	// Text is the visible text of the element.
	Text string

	// Items holds list item texts for ul and ol elements.
	Items []string
}

// Source gives a strategy access to the document behind one extraction
// attempt. The document is fetched at most once per attempt, on first use.
type Source interface {
	URL() string
	Document(ctx context.Context) (*RawDocument, error)
}

// Strategy is one extraction algorithm, selected by name from a ruleset's
// method priority list.
type Strategy interface {
	// Name returns the identifier used in Ruleset.MethodPriority.
	Name() string

	// Extract produces an article candidate. It returns an EREJECTED error
	// when the strategy does not apply to the document (nothing matched),
	// and other errors for fetch or parse failures.
	Extract(ctx context.Context, src Source, rs *Ruleset) (*Article, error)
}

// ParsedDocument is the output of a general-purpose article parser.
type ParsedDocument struct {
	Title       string
	Text        string
	Authors     []string
	PublishedAt *time.Time
}

// LibraryParser parses a URL with a heuristic article extraction library.
type LibraryParser interface {
	Parse(ctx context.Context, url string) (*ParsedDocument, error)
}

// UniqueStrings trims values, drops empty ones and removes duplicates.
// The result is sorted.
func UniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	"02/01/2006",
}

// ParseDate parses a publish date in one of the common layouts found in
// article markup. It returns nil when no layout matches.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// Converter converts HTML content to markdown-light text.
type Converter interface {
	Convert(html string) (string, error)
}
