// Package fs provides file-based delivery channels.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/canillita"
	"github.com/google/uuid"
)

// Ensure Channel implements canillita.Channel at compile time.
var _ canillita.Channel = (*Channel)(nil)

// Channel writes each item's messages into its own directory under
// baseDir. Messages are saved to a temporary directory and moved into
// place once all of them are written, so an item directory is always
// complete. An item whose directory already exists is skipped.
type Channel struct {
	baseDir string
	now     func() time.Time
}

// NewChannel creates a Channel writing under baseDir.
func NewChannel(baseDir string) *Channel {
	return &Channel{baseDir: baseDir, now: time.Now}
}

// ItemDir returns the directory holding an item's messages.
func (c *Channel) ItemDir(itemID string) string {
	return filepath.Join(c.baseDir, dirName(itemID))
}

// Deliver writes messages as <nn>-<uuid>.md files. Each file references
// the previous message ID in its reply_to header.
func (c *Channel) Deliver(ctx context.Context, item *canillita.Item, messages []string) error {
	finalDir := c.ItemDir(item.ID)
	if _, err := os.Stat(finalDir); err == nil {
		return nil
	}

	tempDir := finalDir + ".tmp"
	if err := os.RemoveAll(tempDir); err != nil {
		return err
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return err
	}

	if err := c.write(ctx, tempDir, item, messages); err != nil {
		_ = os.RemoveAll(tempDir)
		return err
	}

	if err := os.Rename(tempDir, finalDir); err != nil {
		_ = os.RemoveAll(tempDir)
		if _, statErr := os.Stat(finalDir); statErr == nil {
			return nil
		}
		return err
	}
	return nil
}

func (c *Channel) write(ctx context.Context, dir string, item *canillita.Item, messages []string) error {
	var replyTo string
	for i, content := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := uuid.New().String()
		name := fmt.Sprintf("%02d-%s.md", i+1, id)
		if err := os.WriteFile(filepath.Join(dir, name), []byte(FormatMessage(id, replyTo, item, c.now(), content)), 0644); err != nil {
			return err
		}
		replyTo = id
	}
	return nil
}

// FormatMessage formats a message with YAML frontmatter.
func FormatMessage(id, replyTo string, item *canillita.Item, at time.Time, content string) string {
	var b strings.Builder
	b.WriteString("---\n")
	b.WriteString("id: ")
	b.WriteString(id)
	b.WriteString("\nitem: ")
	b.WriteString(item.ID)
	b.WriteString("\nsource: ")
	b.WriteString(item.URL)
	b.WriteString("\nreply_to: ")
	b.WriteString(replyTo)
	b.WriteString("\nposted: ")
	b.WriteString(at.UTC().Format(time.RFC3339))
	b.WriteString("\n---\n\n")
	b.WriteString(content)
	b.WriteString("\n")
	return b.String()
}

// maxDirPrefix bounds the readable part of an item directory name.
const maxDirPrefix = 40

// dirName maps an item ID to a safe directory name: a readable prefix
// followed by the xxhash of the full ID, so distinct IDs never share a
// directory.
func dirName(itemID string) string {
	prefix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			return r
		default:
			return '_'
		}
	}, itemID)
	if len(prefix) > maxDirPrefix {
		prefix = prefix[:maxDirPrefix]
	}
	return fmt.Sprintf("%s-%016x", prefix, xxhash.Sum64String(itemID))
}

// Ensure WriterChannel implements canillita.Channel at compile time.
var _ canillita.Channel = (*WriterChannel)(nil)

// Separator is written between messages by WriterChannel.
const Separator = "\n----------------------------------------\n\n"

// WriterChannel writes messages to a stream, separated by a rule line.
// It does no duplicate suppression of its own.
type WriterChannel struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterChannel creates a WriterChannel writing to w.
func NewWriterChannel(w io.Writer) *WriterChannel {
	return &WriterChannel{w: w}
}

// Deliver writes all messages of an item in one go.
func (c *WriterChannel) Deliver(ctx context.Context, item *canillita.Item, messages []string) error {
	if len(messages) == 0 {
		return errors.New("no messages")
	}

	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m)
		b.WriteString(Separator)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, b.String())
	return err
}
