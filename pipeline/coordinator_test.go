package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/mock"
	"github.com/fwojciec/canillita/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingChannel(calls *atomic.Int32, err error) *mock.Channel {
	return &mock.Channel{
		DeliverFn: func(_ context.Context, _ *canillita.Item, _ []string) error {
			calls.Add(1)
			return err
		},
	}
}

func TestCoordinator_Deliver(t *testing.T) {
	t.Parallel()

	fp := &canillita.Fingerprint{Title: "Titular", Length: 120, Method: canillita.MethodStructured}

	t.Run("delivers once and records success", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		var calls atomic.Int32
		c := pipeline.NewCoordinator(store.service(), countingChannel(&calls, nil))
		item := testItem("a1")

		res, err := c.Deliver(context.Background(), item, fp, []string{"uno", "dos"})
		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultDelivered, res)

		res, err = c.Deliver(context.Background(), item, fp, []string{"uno", "dos"})
		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultSkipped, res)

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, store.len())
		rec := store.get("a1")
		assert.Equal(t, canillita.StatusSuccess, rec.Status)
		assert.Equal(t, fp, rec.Fingerprint)
		assert.Equal(t, "diario.example", rec.Origin)
		assert.NotNil(t, rec.ProcessedAt)
	})

	t.Run("concurrent deliveries of one item reach the channel once", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		var calls atomic.Int32
		c := pipeline.NewCoordinator(store.service(), countingChannel(&calls, nil))

		var wg sync.WaitGroup
		for range 8 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, 1, store.len())
	})

	t.Run("records channel failures without retrying", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		var calls atomic.Int32
		c := pipeline.NewCoordinator(store.service(), countingChannel(&calls, errors.New("429 too many requests")))

		res, err := c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})
		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultDeliveryFailed, res)

		res, err = c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})
		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultSkipped, res)

		assert.Equal(t, int32(1), calls.Load())
		rec := store.get("a1")
		assert.Equal(t, canillita.StatusFailure, rec.Status)
		assert.Equal(t, "delivery failed: 429 too many requests", rec.ErrorMessage)
	})

	t.Run("skips the item when the claim lock is held elsewhere", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		var calls atomic.Int32
		lock := &mock.ClaimLock{
			ClaimFn: func(_ context.Context, _ string) (bool, error) {
				return false, nil
			},
		}
		c := pipeline.NewCoordinator(store.service(), countingChannel(&calls, nil), pipeline.WithClaimLock(lock))

		res, err := c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})

		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultSkipped, res)
		assert.Zero(t, calls.Load())
		assert.Zero(t, store.len())
	})

	t.Run("releases the claim lock when the record claim fails", func(t *testing.T) {
		t.Parallel()

		var mu sync.Mutex
		held := map[string]bool{}
		lock := &mock.ClaimLock{
			ClaimFn: func(_ context.Context, id string) (bool, error) {
				mu.Lock()
				defer mu.Unlock()
				if held[id] {
					return false, nil
				}
				held[id] = true
				return true, nil
			},
			ReleaseFn: func(ctx context.Context, id string) error {
				mu.Lock()
				defer mu.Unlock()
				if ctx.Err() != nil {
					return ctx.Err()
				}
				delete(held, id)
				return nil
			},
		}

		store := newRecords()
		svc := store.service()
		claim := svc.ClaimRecordFn
		var failed atomic.Bool
		svc.ClaimRecordFn = func(ctx context.Context, rec *canillita.ProcessingRecord) error {
			if failed.CompareAndSwap(false, true) {
				return errors.New("database is locked")
			}
			return claim(ctx, rec)
		}

		var calls atomic.Int32
		c := pipeline.NewCoordinator(svc, countingChannel(&calls, nil), pipeline.WithClaimLock(lock))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := c.Deliver(ctx, testItem("a1"), fp, []string{"uno"})
		require.EqualError(t, err, "database is locked")

		mu.Lock()
		assert.False(t, held["a1"])
		mu.Unlock()

		res, err := c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})

		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultDelivered, res)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, canillita.StatusSuccess, store.get("a1").Status)
	})

	t.Run("returns store errors before delivering", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		svc := &mock.RecordService{
			ClaimRecordFn: func(_ context.Context, _ *canillita.ProcessingRecord) error {
				return errors.New("database is locked")
			},
		}
		c := pipeline.NewCoordinator(svc, countingChannel(&calls, nil))

		_, err := c.Deliver(context.Background(), testItem("a1"), fp, []string{"uno"})

		assert.EqualError(t, err, "database is locked")
		assert.Zero(t, calls.Load())
	})

	t.Run("records the outcome even when ctx is canceled during delivery", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		ctx, cancel := context.WithCancel(context.Background())
		ch := &mock.Channel{
			DeliverFn: func(_ context.Context, _ *canillita.Item, _ []string) error {
				cancel()
				return nil
			},
		}
		svc := store.service()
		finish := svc.FinishRecordFn
		svc.FinishRecordFn = func(ctx context.Context, itemID string, out canillita.Outcome) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return finish(ctx, itemID, out)
		}
		c := pipeline.NewCoordinator(svc, ch)

		res, err := c.Deliver(ctx, testItem("a1"), fp, []string{"uno"})

		require.NoError(t, err)
		assert.Equal(t, pipeline.ResultDelivered, res)
		assert.Equal(t, canillita.StatusSuccess, store.get("a1").Status)
	})
}

func TestCoordinator_Fail(t *testing.T) {
	t.Parallel()

	t.Run("records a failure", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		c := pipeline.NewCoordinator(store.service(), &mock.Channel{})

		require.NoError(t, c.Fail(context.Background(), testItem("a1"), "extraction failed: too short"))

		rec := store.get("a1")
		assert.Equal(t, canillita.StatusFailure, rec.Status)
		assert.Equal(t, "extraction failed: too short", rec.ErrorMessage)
	})

	t.Run("leaves an existing record untouched", func(t *testing.T) {
		t.Parallel()

		store := newRecords()
		var calls atomic.Int32
		c := pipeline.NewCoordinator(store.service(), countingChannel(&calls, nil))
		_, err := c.Deliver(context.Background(), testItem("a1"), nil, []string{"uno"})
		require.NoError(t, err)

		require.NoError(t, c.Fail(context.Background(), testItem("a1"), "extraction failed"))

		assert.Equal(t, canillita.StatusSuccess, store.get("a1").Status)
	})
}

func TestCoordinator_Processed(t *testing.T) {
	t.Parallel()

	store := newRecords()
	c := pipeline.NewCoordinator(store.service(), &mock.Channel{})

	done, err := c.Processed(context.Background(), "a1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, c.Fail(context.Background(), testItem("a1"), "extraction failed"))

	done, err = c.Processed(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, done)
}
