package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/fwojciec/canillita"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default number of concurrent workers.
const DefaultWorkers = 4

// ProcessFunc processes one item.
type ProcessFunc func(ctx context.Context, item *canillita.Item) (Result, error)

// Summary counts the results of a pool run.
type Summary struct {
	Delivered        int
	Skipped          int
	ExtractionFailed int
	DeliveryFailed   int

	// Errored counts items that stopped on a store or lock error.
	Errored int

	// Canceled counts items never started because ctx was done.
	Canceled int
}

// Pool runs items through a ProcessFunc with bounded concurrency. Items
// are independent: an error in one never stops the others.
type Pool struct {
	Workers int
	Logger  *slog.Logger
}

// Run processes items and returns once every started item has finished.
// Cancellation is checked before each item starts, so a canceled ctx
// drains in-flight work without starting new items.
func (p *Pool) Run(ctx context.Context, items []*canillita.Item, process ProcessFunc) Summary {
	workers := p.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var mu sync.Mutex
	var sum Summary

	var g errgroup.Group
	g.SetLimit(workers)

	for _, item := range items {
		if ctx.Err() != nil {
			mu.Lock()
			sum.Canceled++
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				mu.Lock()
				sum.Canceled++
				mu.Unlock()
				return nil
			}

			res, err := process(ctx, item)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				logger.Error("process item", "item", item.ID, "url", item.URL, "err", err)
				sum.Errored++
				return nil
			}
			switch res {
			case ResultDelivered:
				sum.Delivered++
			case ResultSkipped:
				sum.Skipped++
			case ResultExtractionFailed:
				sum.ExtractionFailed++
			case ResultDeliveryFailed:
				sum.DeliveryFailed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return sum
}
