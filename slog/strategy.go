package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
)

// Ensure LoggingStrategy implements canillita.Strategy.
var _ canillita.Strategy = (*LoggingStrategy)(nil)

// LoggingStrategy wraps a Strategy and logs each extraction attempt.
type LoggingStrategy struct {
	next   canillita.Strategy
	logger *slog.Logger
}

// NewLoggingStrategy creates a new LoggingStrategy.
func NewLoggingStrategy(next canillita.Strategy, logger *slog.Logger) *LoggingStrategy {
	return &LoggingStrategy{next: next, logger: logger}
}

// Name delegates to the wrapped strategy.
func (s *LoggingStrategy) Name() string {
	return s.next.Name()
}

// Extract logs the strategy outcome. Rejections are logged at debug level
// since falling through to the next strategy is routine.
func (s *LoggingStrategy) Extract(ctx context.Context, src canillita.Source, rs *canillita.Ruleset) (a *canillita.Article, err error) {
	defer func(begin time.Time) {
		var title string
		var length int
		if a != nil {
			title = a.Title
			length = len([]rune(a.Body))
		}
		level := slog.LevelInfo
		if canillita.ErrorCode(err) == canillita.EREJECTED {
			level = slog.LevelDebug
		}
		s.logger.Log(ctx, level, "extract",
			"strategy", s.next.Name(),
			"ruleset", rs.Name,
			"url", src.URL(),
			"title", title,
			"length", length,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Extract(ctx, src, rs)
}
