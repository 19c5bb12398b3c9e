// Package pipeline runs news items through extraction, validation,
// chunking and delivery.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/fwojciec/canillita"
)

// Engine tries the strategies named by a ruleset in priority order and
// returns the first article that passes the quality gate.
type Engine struct {
	strategies map[string]canillita.Strategy
	fetcher    canillita.Fetcher
	logger     *slog.Logger
	now        func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger for strategy outcomes.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an Engine that fetches documents with fetcher and
// knows the given strategies by name.
func NewEngine(fetcher canillita.Fetcher, strategies []canillita.Strategy, opts ...EngineOption) *Engine {
	e := &Engine{
		strategies: make(map[string]canillita.Strategy, len(strategies)),
		fetcher:    fetcher,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:        time.Now,
	}
	for _, s := range strategies {
		e.strategies[s.Name()] = s
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs one extraction attempt for url. The document is fetched at
// most once and shared by all strategies.
//
// When every strategy was rejected or none applied, the returned error is
// EREJECTED and carries the last rejection reason. When a strategy failed
// with a transient error, that error is returned instead so the attempt
// can be retried.
func (e *Engine) Extract(ctx context.Context, url string, rs *canillita.Ruleset) (*canillita.Article, error) {
	src := &lazySource{url: url, fetcher: e.fetcher, now: e.now}

	var rejection, transient error
	for _, id := range rs.MethodPriority {
		s, ok := e.strategies[id]
		if !ok {
			e.logger.Warn("unknown extraction method", "method", id, "ruleset", rs.Name)
			continue
		}

		a, err := s.Extract(ctx, src, rs)
		if err == nil {
			a.URL = url
			a.Method = id
			a.Ruleset = rs.Name
			err = canillita.CheckQuality(a, rs)
		}
		if err == nil {
			return a, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		e.logger.Debug("strategy failed", "method", id, "url", url, "err", err)
		if canillita.ErrorCode(err) == canillita.EREJECTED || canillita.ErrorCode(err) == canillita.EINVALID {
			rejection = err
		} else {
			transient = err
		}
	}

	switch {
	case transient != nil:
		return nil, fmt.Errorf("extraction failed: %w", transient)
	case rejection != nil:
		return nil, canillita.Errorf(canillita.EREJECTED, "extraction failed: %s", canillita.ErrorMessage(rejection))
	default:
		return nil, canillita.Errorf(canillita.EREJECTED, "extraction failed: no known method in ruleset %q", rs.Name)
	}
}

var _ canillita.Source = (*lazySource)(nil)

// lazySource fetches its document on first use and memoizes the result,
// including a failure.
type lazySource struct {
	url     string
	fetcher canillita.Fetcher
	now     func() time.Time

	once sync.Once
	doc  *canillita.RawDocument
	err  error
}

func (s *lazySource) URL() string {
	return s.url
}

func (s *lazySource) Document(ctx context.Context) (*canillita.RawDocument, error) {
	s.once.Do(func() {
		html, err := s.fetcher.Fetch(ctx, s.url)
		if err != nil {
			s.err = err
			return
		}
		s.doc = &canillita.RawDocument{URL: s.url, HTML: html, FetchedAt: s.now()}
	})
	return s.doc, s.err
}
