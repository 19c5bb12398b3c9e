package canillita_test

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fwojciec/canillita"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks(t *testing.T) {
	t.Parallel()

	t.Run("returns text that fits as single chunk", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, []string{"short text"}, canillita.SplitChunks("short text", 100, 50))
	})

	t.Run("prefers paragraph break", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 72) + ". More.\n\n" + strings.Repeat("b", 50)

		got := canillita.SplitChunks(text, 100, 100)

		require.Len(t, got, 2)
		assert.Equal(t, strings.Repeat("a", 72)+". More.\n\n", got[0])
		assert.Equal(t, strings.Repeat("b", 50), got[1])
	})

	t.Run("falls back to sentence end", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 75) + ". " + strings.Repeat("b", 50)

		got := canillita.SplitChunks(text, 100, 100)

		require.Len(t, got, 2)
		assert.Equal(t, strings.Repeat("a", 75)+". ", got[0])
		assert.Equal(t, strings.Repeat("b", 50), got[1])
	})

	t.Run("ignores early paragraph break in favor of late sentence end", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("a", 20) + "\n\n" + strings.Repeat("c", 60) + "! " + strings.Repeat("d", 60)

		got := canillita.SplitChunks(text, 100, 100)

		require.Len(t, got, 2)
		assert.True(t, strings.HasSuffix(got[0], "! "))
	})

	t.Run("falls back to word boundary", func(t *testing.T) {
		t.Parallel()

		text := strings.Repeat("abcdefghi ", 20)

		got := canillita.SplitChunks(text, 95, 95)

		require.NotEmpty(t, got)
		assert.Len(t, got[0], 90)
		assert.True(t, strings.HasSuffix(got[0], " "))
	})

	t.Run("hard cuts unbroken text using continuation budget", func(t *testing.T) {
		t.Parallel()

		got := canillita.SplitChunks(strings.Repeat("x", 250), 100, 80)

		require.Len(t, got, 3)
		assert.Len(t, got[0], 100)
		assert.Len(t, got[1], 80)
		assert.Len(t, got[2], 70)
	})

	t.Run("never splits a multibyte character", func(t *testing.T) {
		t.Parallel()

		got := canillita.SplitChunks(strings.Repeat("ñ", 100), 51, 51)

		for _, seg := range got {
			assert.LessOrEqual(t, len(seg), 51)
			assert.True(t, utf8.ValidString(seg))
		}
		assert.Equal(t, strings.Repeat("ñ", 100), strings.Join(got, ""))
	})

	t.Run("segments fit budgets and reassemble prose", func(t *testing.T) {
		t.Parallel()

		var paragraphs []string
		for p := 0; p < 6; p++ {
			var sentences []string
			for i := 0; i < 7; i++ {
				sentences = append(sentences, fmt.Sprintf("Sentence %d.%d talks about the budget debate in congress.", p, i))
			}
			paragraphs = append(paragraphs, strings.Join(sentences, " "))
		}
		text := strings.Join(paragraphs, "\n\n")

		for _, budgets := range [][2]int{{500, 400}, {300, 300}, {120, 90}} {
			got := canillita.SplitChunks(text, budgets[0], budgets[1])

			require.NotEmpty(t, got)
			assert.LessOrEqual(t, len(got[0]), budgets[0])
			for _, seg := range got[1:] {
				assert.LessOrEqual(t, len(seg), budgets[1])
			}
			assert.Equal(t, text, strings.Join(got, ""))
		}
	})
}

func TestTemplates(t *testing.T) {
	t.Parallel()

	t.Run("budgets subtract rendered template overhead", func(t *testing.T) {
		t.Parallel()

		tmpl := canillita.Templates{First: "# {title}\n\n{content}\n\n{url}", Continuation: "(cont.) {content}"}

		first, next := tmpl.Budgets("Title", "https://x.io", 100)

		assert.Equal(t, 100-len("# Title\n\n\n\nhttps://x.io"), first)
		assert.Equal(t, 100-len("(cont.) "), next)
	})

	t.Run("split renders messages within limit", func(t *testing.T) {
		t.Parallel()

		tmpl := canillita.DefaultTemplates()
		body := strings.Repeat("Una oración completa sobre la economía. ", 30)

		msgs, err := tmpl.Split("Titular de la nota", "https://diario.example/nota", body, 300)

		require.NoError(t, err)
		require.Greater(t, len(msgs), 1)
		assert.True(t, strings.HasPrefix(msgs[0], "# Titular de la nota\n\n"))
		assert.Contains(t, msgs[0], "https://diario.example/nota")
		for _, m := range msgs {
			assert.LessOrEqual(t, len(m), 300)
		}
	})

	t.Run("split fails when template exceeds limit", func(t *testing.T) {
		t.Parallel()

		tmpl := canillita.DefaultTemplates()

		_, err := tmpl.Split(strings.Repeat("t", 50), "https://x.io", "body", 40)

		assert.Equal(t, canillita.EINVALID, canillita.ErrorCode(err))
	})
}
