package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/canillita"
)

// Run executes the sweep command.
func (c *SweepCmd) Run(deps *Dependencies) error {
	if c.Days <= 0 {
		fmt.Fprintln(deps.Stderr, "error: --days must be positive")
		return canillita.Errorf(canillita.EINVALID, "--days must be positive")
	}

	cutoff := deps.Now().Add(-time.Duration(c.Days) * 24 * time.Hour)
	n, err := deps.Records.DeleteRecordsBefore(deps.Ctx, cutoff)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Deleted %d records older than %d days\n", n, c.Days)
	return nil
}
