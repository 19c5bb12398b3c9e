package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/fwojciec/canillita"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	if c.Days <= 0 {
		fmt.Fprintln(deps.Stderr, "error: --days must be positive")
		return canillita.Errorf(canillita.EINVALID, "--days must be positive")
	}

	since := deps.Now().Add(-time.Duration(c.Days) * 24 * time.Hour)
	stats, err := deps.Records.RecordStats(deps.Ctx, since)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Last %d days\n", c.Days)
	fmt.Fprintf(deps.Stdout, "  Total:     %d\n", stats.Total)
	fmt.Fprintf(deps.Stdout, "  Delivered: %d\n", stats.Succeeded)
	fmt.Fprintf(deps.Stdout, "  Failed:    %d\n", stats.Failed)
	fmt.Fprintf(deps.Stdout, "  Pending:   %d\n", stats.Pending)
	fmt.Fprintf(deps.Stdout, "  Success:   %.1f%%\n", stats.SuccessRate()*100)

	if len(stats.ByMethod) == 0 {
		return nil
	}

	methods := make([]string, 0, len(stats.ByMethod))
	for m := range stats.ByMethod {
		methods = append(methods, m)
	}
	sort.Strings(methods)

	fmt.Fprintln(deps.Stdout, "By method:")
	for _, m := range methods {
		name := m
		if name == "" {
			name = "(none)"
		}
		fmt.Fprintf(deps.Stdout, "  %-12s %d\n", name, stats.ByMethod[m])
	}
	return nil
}
