package mock

import (
	"context"

	"github.com/fwojciec/canillita"
)

var _ canillita.Strategy = (*Strategy)(nil)

// Strategy is a mock implementation of canillita.Strategy.
type Strategy struct {
	NameFn    func() string
	ExtractFn func(ctx context.Context, src canillita.Source, rs *canillita.Ruleset) (*canillita.Article, error)
}

func (s *Strategy) Name() string {
	return s.NameFn()
}

func (s *Strategy) Extract(ctx context.Context, src canillita.Source, rs *canillita.Ruleset) (*canillita.Article, error) {
	return s.ExtractFn(ctx, src, rs)
}

var _ canillita.Source = (*Source)(nil)

// Source is a mock implementation of canillita.Source.
type Source struct {
	URLFn      func() string
	DocumentFn func(ctx context.Context) (*canillita.RawDocument, error)
}

func (s *Source) URL() string {
	return s.URLFn()
}

func (s *Source) Document(ctx context.Context) (*canillita.RawDocument, error) {
	return s.DocumentFn(ctx)
}

var _ canillita.LibraryParser = (*LibraryParser)(nil)

// LibraryParser is a mock implementation of canillita.LibraryParser.
type LibraryParser struct {
	ParseFn func(ctx context.Context, url string) (*canillita.ParsedDocument, error)
}

func (p *LibraryParser) Parse(ctx context.Context, url string) (*canillita.ParsedDocument, error) {
	return p.ParseFn(ctx, url)
}

var _ canillita.RuleResolver = (*RuleResolver)(nil)

// RuleResolver is a mock implementation of canillita.RuleResolver.
type RuleResolver struct {
	ResolveFn func(origin string) *canillita.Ruleset
}

func (r *RuleResolver) Resolve(origin string) *canillita.Ruleset {
	return r.ResolveFn(origin)
}
