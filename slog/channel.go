package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
)

// Ensure LoggingChannel implements canillita.Channel.
var _ canillita.Channel = (*LoggingChannel)(nil)

// LoggingChannel wraps a Channel with logging.
type LoggingChannel struct {
	next   canillita.Channel
	logger *slog.Logger
}

// NewLoggingChannel creates a new LoggingChannel.
func NewLoggingChannel(next canillita.Channel, logger *slog.Logger) *LoggingChannel {
	return &LoggingChannel{next: next, logger: logger}
}

// Deliver logs the delivery and delegates to the wrapped channel.
func (c *LoggingChannel) Deliver(ctx context.Context, item *canillita.Item, messages []string) (err error) {
	defer func(begin time.Time) {
		c.logger.Info("deliver",
			"item", item.ID,
			"url", item.URL,
			"chunks", len(messages),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Deliver(ctx, item, messages)
}
