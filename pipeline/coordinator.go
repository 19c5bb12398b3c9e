package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
)

// Coordinator delivers messages at most once per item. An item is claimed
// in the record store before any message is sent; a second claim for the
// same item fails and turns the delivery into a no-op.
type Coordinator struct {
	records canillita.RecordService
	channel canillita.Channel
	lock    canillita.ClaimLock
	logger  *slog.Logger
	now     func() time.Time
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithClaimLock adds a cross-process claim taken before the record claim.
func WithClaimLock(lock canillita.ClaimLock) CoordinatorOption {
	return func(c *Coordinator) {
		c.lock = lock
	}
}

// WithCoordinatorLogger sets the coordinator's logger.
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithClock overrides the time source used for record timestamps.
func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

// NewCoordinator creates a Coordinator over a record store and a channel.
func NewCoordinator(records canillita.RecordService, channel canillita.Channel, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		records: records,
		channel: channel,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Processed reports whether a record exists for the item.
func (c *Coordinator) Processed(ctx context.Context, itemID string) (bool, error) {
	_, err := c.records.FindRecord(ctx, itemID)
	switch canillita.ErrorCode(err) {
	case "":
		return true, nil
	case canillita.ENOTFOUND:
		return false, nil
	default:
		return false, err
	}
}

// Deliver claims the item, sends messages through the channel and records
// the outcome. An item already claimed by another worker or process is
// ResultSkipped. A channel failure is recorded with the reason
// "delivery failed: <err>" and is ResultDeliveryFailed with a nil error;
// the returned error is reserved for record store and lock failures.
func (c *Coordinator) Deliver(ctx context.Context, item *canillita.Item, fp *canillita.Fingerprint, messages []string) (Result, error) {
	claimed, err := c.claim(ctx, item)
	if err != nil {
		return ResultDeliveryFailed, err
	} else if !claimed {
		return ResultSkipped, nil
	}

	out := canillita.Outcome{Success: true, Fingerprint: fp}
	if err := c.channel.Deliver(ctx, item, messages); err != nil {
		out = canillita.Outcome{ErrorMessage: "delivery failed: " + err.Error(), Fingerprint: fp}
	}

	if err := c.finish(ctx, item.ID, out); err != nil {
		return ResultDeliveryFailed, err
	}
	if !out.Success {
		return ResultDeliveryFailed, nil
	}
	return ResultDelivered, nil
}

// Fail records a failed outcome for an item that never reached delivery.
// An item that is already claimed is left untouched.
func (c *Coordinator) Fail(ctx context.Context, item *canillita.Item, reason string) error {
	claimed, err := c.claim(ctx, item)
	if err != nil || !claimed {
		return err
	}
	return c.finish(ctx, item.ID, canillita.Outcome{ErrorMessage: reason})
}

// claim returns false when another worker or process owns the item.
func (c *Coordinator) claim(ctx context.Context, item *canillita.Item) (bool, error) {
	if c.lock != nil {
		ok, err := c.lock.Claim(ctx, item.ID)
		if err != nil {
			return false, err
		} else if !ok {
			c.logger.Info("item claimed elsewhere", "item", item.ID)
			return false, nil
		}
	}

	rec := canillita.NewRecord(item)
	rec.ClaimedAt = c.now().UTC()
	err := c.records.ClaimRecord(ctx, rec)
	switch canillita.ErrorCode(err) {
	case "":
		return true, nil
	case canillita.ECONFLICT:
		c.logger.Info("item already processed", "item", item.ID)
		return false, nil
	default:
		c.release(ctx, item.ID)
		return false, err
	}
}

// release drops the cross-process claim of an item that has no record,
// so that a later attempt can claim it again.
func (c *Coordinator) release(ctx context.Context, itemID string) {
	if c.lock == nil {
		return
	}
	if err := c.lock.Release(context.WithoutCancel(ctx), itemID); err != nil {
		c.logger.Error("release claim", "item", itemID, "err", err)
	}
}

// finish stores the outcome even if ctx was canceled after the claim.
// A row left pending still blocks redelivery.
func (c *Coordinator) finish(ctx context.Context, itemID string, out canillita.Outcome) error {
	return c.records.FinishRecord(context.WithoutCancel(ctx), itemID, out)
}
