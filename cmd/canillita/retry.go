package main

import (
	"fmt"

	"github.com/fwojciec/canillita"
)

// Run executes the retry command.
func (c *RetryCmd) Run(deps *Dependencies) error {
	if err := deps.Records.DeleteFailedRecord(deps.Ctx, c.ItemID); err != nil {
		if canillita.ErrorCode(err) != canillita.ENOTFOUND {
			fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
			return err
		}

		stale, ferr := c.staleClaim(deps)
		if ferr != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(ferr))
			return ferr
		}
		if !stale {
			fmt.Fprintf(deps.Stderr, "error: no failed record for %q. Use 'canillita recent --failed' to list failed items.\n", c.ItemID)
			return err
		}
	}

	if deps.Lock != nil {
		if err := deps.Lock.Release(deps.Ctx, c.ItemID); err != nil {
			fmt.Fprintf(deps.Stderr, "error: failed to release claim: %s\n", canillita.ErrorMessage(err))
			return err
		}
	}

	fmt.Fprintf(deps.Stdout, "Item %q will be processed again on the next run\n", c.ItemID)
	return nil
}

// staleClaim reports whether the item has no record at all, in which case
// a claim left in the lock is the only thing blocking it.
func (c *RetryCmd) staleClaim(deps *Dependencies) (bool, error) {
	if deps.Lock == nil {
		return false, nil
	}
	_, err := deps.Records.FindRecord(deps.Ctx, c.ItemID)
	switch canillita.ErrorCode(err) {
	case canillita.ENOTFOUND:
		return true, nil
	case "":
		return false, nil
	default:
		return false, err
	}
}
