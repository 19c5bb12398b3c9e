// Package glamour renders delivery messages for terminal preview.
package glamour

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultWordWrap is the column at which rendered text wraps.
const DefaultWordWrap = 80

// Renderer renders message chunks as styled terminal markdown.
type Renderer struct {
	tr *glamour.TermRenderer
}

type config struct {
	style    string
	wordWrap int
}

// Option configures a Renderer.
type Option func(*config)

// WithStyle selects a standard glamour style such as "dark" or "notty".
// The default detects the terminal background.
func WithStyle(name string) Option {
	return func(c *config) {
		c.style = name
	}
}

// WithWordWrap sets the wrap column.
func WithWordWrap(n int) Option {
	return func(c *config) {
		c.wordWrap = n
	}
}

// NewRenderer creates a Renderer.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := config{wordWrap: DefaultWordWrap}
	for _, opt := range opts {
		opt(&cfg)
	}

	styleOpt := glamour.WithAutoStyle()
	if cfg.style != "" {
		styleOpt = glamour.WithStandardStyle(cfg.style)
	}

	tr, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(cfg.wordWrap))
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return &Renderer{tr: tr}, nil
}

// Render renders each message and joins them with a horizontal rule.
func (r *Renderer) Render(messages []string) (string, error) {
	var b strings.Builder
	for i, msg := range messages {
		out, err := r.tr.Render(msg)
		if err != nil {
			return "", fmt.Errorf("failed to render message %d: %w", i+1, err)
		}
		if i > 0 {
			b.WriteString("\n---\n")
		}
		b.WriteString(out)
	}
	return b.String(), nil
}
