package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/fwojciec/canillita"
)

// DefaultMaxMessage is the default message size ceiling in bytes.
const DefaultMaxMessage = 2000

// Result classifies how the processing of one item ended.
type Result int

const (
	ResultDelivered Result = iota
	ResultSkipped
	ResultExtractionFailed
	ResultDeliveryFailed
)

// String returns the result name used in logs.
func (r Result) String() string {
	switch r {
	case ResultDelivered:
		return "delivered"
	case ResultSkipped:
		return "skipped"
	case ResultExtractionFailed:
		return "extraction_failed"
	case ResultDeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Processor runs one item through the whole pipeline: ruleset lookup,
// extraction with retries, chunking and delivery. Processing one item is
// sequential; concurrency exists only across items.
type Processor struct {
	resolver    canillita.RuleResolver
	engine      *Engine
	coordinator *Coordinator
	retry       RetryPolicy
	templates   canillita.Templates
	maxMessage  int
	logger      *slog.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithRetryPolicy sets the retry policy for extraction attempts.
func WithRetryPolicy(p RetryPolicy) ProcessorOption {
	return func(pr *Processor) {
		pr.retry = p
	}
}

// WithTemplates sets the message templates.
func WithTemplates(t canillita.Templates) ProcessorOption {
	return func(pr *Processor) {
		pr.templates = t
	}
}

// WithMaxMessage sets the message size ceiling in bytes.
func WithMaxMessage(n int) ProcessorOption {
	return func(pr *Processor) {
		pr.maxMessage = n
	}
}

// WithProcessorLogger sets the processor's logger.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(pr *Processor) {
		pr.logger = logger
	}
}

// NewProcessor creates a Processor.
func NewProcessor(resolver canillita.RuleResolver, engine *Engine, coordinator *Coordinator, opts ...ProcessorOption) *Processor {
	p := &Processor{
		resolver:    resolver,
		engine:      engine,
		coordinator: coordinator,
		retry:       DefaultRetryPolicy(),
		templates:   canillita.DefaultTemplates(),
		maxMessage:  DefaultMaxMessage,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prepare extracts the item's article and renders its messages without
// delivering or recording anything.
func (p *Processor) Prepare(ctx context.Context, item *canillita.Item) (*canillita.Article, []string, error) {
	origin, err := canillita.OriginOf(item.URL)
	if err != nil {
		return nil, nil, err
	}
	rs := p.resolver.Resolve(origin)

	article, err := Retry(ctx, p.retry, func(ctx context.Context) (*canillita.Article, error) {
		return p.engine.Extract(ctx, item.URL, rs)
	})
	if err != nil {
		return nil, nil, err
	}

	title := article.Title
	if title == "" {
		title = item.Title
	}
	messages, err := p.templates.Split(title, item.URL, article.Body, p.maxMessage)
	if err != nil {
		return article, nil, err
	}
	return article, messages, nil
}

// Process runs the pipeline for item. Extraction and delivery failures
// are recorded and reported through the Result; the returned error is
// reserved for cancellation and record store failures.
func (p *Processor) Process(ctx context.Context, item *canillita.Item) (Result, error) {
	if err := item.Validate(); err != nil {
		return ResultExtractionFailed, err
	}

	done, err := p.coordinator.Processed(ctx, item.ID)
	if err != nil {
		return ResultSkipped, err
	} else if done {
		p.logger.Debug("skip processed item", "item", item.ID)
		return ResultSkipped, nil
	}

	article, messages, err := p.Prepare(ctx, item)
	if err != nil {
		if ctx.Err() != nil {
			return ResultSkipped, ctx.Err()
		}
		reason := failureReason(err)
		p.logger.Warn("extraction failed", "item", item.ID, "url", item.URL, "reason", reason)
		if err := p.coordinator.Fail(ctx, item, reason); err != nil {
			return ResultExtractionFailed, err
		}
		return ResultExtractionFailed, nil
	}

	res, err := p.coordinator.Deliver(ctx, item, canillita.NewFingerprint(article), messages)
	if err != nil {
		return res, err
	}
	switch res {
	case ResultSkipped:
		p.logger.Debug("skip claimed item", "item", item.ID)
	case ResultDeliveryFailed:
		p.logger.Warn("delivery failed", "item", item.ID, "url", item.URL)
	default:
		p.logger.Info("processed item", "item", item.ID, "method", article.Method, "messages", len(messages))
	}
	return res, nil
}

// failureReason returns a human-readable failure reason that always
// mentions the failed stage.
func failureReason(err error) string {
	msg := err.Error()
	if code := canillita.ErrorCode(err); code != canillita.EINTERNAL {
		msg = canillita.ErrorMessage(err)
	}
	if !strings.HasPrefix(msg, "extraction failed") {
		msg = "extraction failed: " + msg
	}
	return msg
}
