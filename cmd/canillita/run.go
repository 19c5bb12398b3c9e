package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/pipeline"
)

// Run executes the run command.
func (c *RunCmd) Run(deps *Dependencies) error {
	items, err := c.collect(deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(deps.Stderr, "error: no items to process. Pass URLs, --file or --feed.")
		return canillita.Errorf(canillita.EINVALID, "no items to process")
	}

	pool := &pipeline.Pool{Workers: c.Workers, Logger: deps.Logger}
	sum := pool.Run(deps.Ctx, items, deps.Processor.Process)

	fmt.Fprintf(deps.Stdout, "Processed %d items: %d delivered, %d skipped, %d extraction failed, %d delivery failed\n",
		len(items), sum.Delivered, sum.Skipped, sum.ExtractionFailed, sum.DeliveryFailed)

	if err := deps.Ctx.Err(); err != nil {
		fmt.Fprintf(deps.Stderr, "interrupted: %d items not started\n", sum.Canceled)
		return err
	}
	if sum.Errored > 0 {
		return fmt.Errorf("%d items stopped on a record store error", sum.Errored)
	}
	return nil
}

// collect gathers items from arguments, the URL file and feeds. Items
// repeated across inputs are kept once.
func (c *RunCmd) collect(deps *Dependencies) ([]*canillita.Item, error) {
	var items []*canillita.Item
	for _, u := range c.URLs {
		items = append(items, canillita.NewItemFromURL(u))
	}

	if c.File != "" {
		urls, err := readURLFile(c.File)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			items = append(items, canillita.NewItemFromURL(u))
		}
	}

	for _, feedURL := range c.Feed {
		feedItems, err := deps.Feeds(feedURL).Items(deps.Ctx)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "skip feed %s: %s\n", feedURL, canillita.ErrorMessage(err))
			continue
		}
		items = append(items, feedItems...)
	}

	seen := make(map[string]struct{}, len(items))
	unique := items[:0]
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		unique = append(unique, item)
	}
	return unique, nil
}

// readURLFile reads one URL per line. Blank lines and lines starting with
// '#' are ignored.
func readURLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return urls, nil
}
