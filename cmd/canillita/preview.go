package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fwojciec/canillita"
)

// Run executes the preview command.
func (c *PreviewCmd) Run(deps *Dependencies) error {
	item := canillita.NewItemFromURL(c.URL)
	if err := item.Validate(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}

	article, messages, err := deps.Processor.Prepare(deps.Ctx, item)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", canillita.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Title:    %s\n", article.Title)
	if len(article.Authors) > 0 {
		fmt.Fprintf(deps.Stdout, "Authors:  %s\n", strings.Join(article.Authors, ", "))
	}
	if article.PublishedAt != nil {
		fmt.Fprintf(deps.Stdout, "Date:     %s\n", article.PublishedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(deps.Stdout, "Method:   %s (ruleset %s)\n", article.Method, article.Ruleset)
	fmt.Fprintf(deps.Stdout, "Length:   %d characters\n", utf8.RuneCountInString(article.Body))
	fmt.Fprintf(deps.Stdout, "Messages: %d\n\n", len(messages))

	if deps.Renderer != nil {
		out, err := deps.Renderer.Render(messages)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %v\n", err)
			return err
		}
		fmt.Fprint(deps.Stdout, out)
		return nil
	}

	for i, msg := range messages {
		fmt.Fprintf(deps.Stdout, "--- message %d/%d (%d bytes) ---\n%s\n\n", i+1, len(messages), len(msg), msg)
	}
	return nil
}
