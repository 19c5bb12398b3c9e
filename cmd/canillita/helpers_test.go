package main_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
	main "github.com/fwojciec/canillita/cmd/canillita"
	"github.com/fwojciec/canillita/pipeline"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// processor is a function-field ItemProcessor.
type processor struct {
	PrepareFn func(ctx context.Context, item *canillita.Item) (*canillita.Article, []string, error)
	ProcessFn func(ctx context.Context, item *canillita.Item) (pipeline.Result, error)
}

func (p *processor) Prepare(ctx context.Context, item *canillita.Item) (*canillita.Article, []string, error) {
	return p.PrepareFn(ctx, item)
}

func (p *processor) Process(ctx context.Context, item *canillita.Item) (pipeline.Result, error) {
	return p.ProcessFn(ctx, item)
}

type renderFn func(messages []string) (string, error)

func (f renderFn) Render(messages []string) (string, error) {
	return f(messages)
}

func newDeps() (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return now },
	}, stdout, stderr
}
