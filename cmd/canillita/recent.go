package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/canillita"
)

// Run executes the recent command.
func (c *RecentCmd) Run(deps *Dependencies) error {
	filter := canillita.RecordFilter{Limit: c.Limit}
	if c.Failed {
		status := canillita.StatusFailure
		filter.Status = &status
	}

	records, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No records found. Use 'canillita run' to process items.")
		return nil
	}

	for _, r := range records {
		fmt.Fprintf(deps.Stdout, "%s  %-7s  %s  %s\n", r.ClaimedAt.Local().Format(time.DateTime), r.Status, r.ItemID, r.URL)
		if r.ErrorMessage != "" {
			fmt.Fprintf(deps.Stdout, "    %s\n", r.ErrorMessage)
		}
	}
	return nil
}
