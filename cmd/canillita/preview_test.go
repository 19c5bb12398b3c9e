package main_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/canillita"
	main "github.com/fwojciec/canillita/cmd/canillita"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func previewProcessor(err error) *processor {
	published := time.Date(2025, 3, 1, 13, 30, 0, 0, time.UTC)
	return &processor{
		PrepareFn: func(_ context.Context, item *canillita.Item) (*canillita.Article, []string, error) {
			if err != nil {
				return nil, nil, err
			}
			return &canillita.Article{
					URL:         item.URL,
					Title:       "El Congreso aprobó el presupuesto",
					Body:        "La Cámara de Diputados aprobó anoche el proyecto.",
					Authors:     []string{"María Gómez"},
					PublishedAt: &published,
					Method:      canillita.MethodStructured,
					Ruleset:     "diario.example",
				}, []string{
					"**El Congreso aprobó el presupuesto**\n" + item.URL + "\n\nLa Cámara de Diputados",
					"aprobó anoche el proyecto.",
				}, nil
		},
	}
}

func TestPreviewCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("prints article metadata and messages", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps()
		deps.Processor = previewProcessor(nil)

		err := (&main.PreviewCmd{URL: "https://diario.example/nota/1"}).Run(deps)

		require.NoError(t, err)
		out := stdout.String()
		assert.Contains(t, out, "Title:    El Congreso aprobó el presupuesto")
		assert.Contains(t, out, "Authors:  María Gómez")
		assert.Contains(t, out, "Date:     2025-03-01 13:30")
		assert.Contains(t, out, "Method:   structured (ruleset diario.example)")
		assert.Contains(t, out, "Messages: 2")
		assert.Contains(t, out, "--- message 1/2")
		assert.Contains(t, out, "--- message 2/2")
		assert.Contains(t, out, "aprobó anoche el proyecto.")
	})

	t.Run("uses the renderer when set", func(t *testing.T) {
		t.Parallel()

		deps, stdout, _ := newDeps()
		deps.Processor = previewProcessor(nil)
		deps.Renderer = renderFn(func(messages []string) (string, error) {
			return "rendered 2 messages\n", nil
		})

		err := (&main.PreviewCmd{URL: "https://diario.example/nota/1"}).Run(deps)

		require.NoError(t, err)
		assert.Contains(t, stdout.String(), "rendered 2 messages")
		assert.NotContains(t, stdout.String(), "--- message")
	})

	t.Run("reports extraction failure", func(t *testing.T) {
		t.Parallel()

		deps, _, stderr := newDeps()
		deps.Processor = previewProcessor(canillita.Errorf(canillita.EREJECTED, "extraction failed: too short: 12 characters (min 200)"))

		err := (&main.PreviewCmd{URL: "https://diario.example/nota/1"}).Run(deps)

		assert.Equal(t, canillita.EREJECTED, canillita.ErrorCode(err))
		assert.Contains(t, stderr.String(), "error: extraction failed: too short")
	})

	t.Run("rejects invalid URL before extraction", func(t *testing.T) {
		t.Parallel()

		deps, _, _ := newDeps()
		deps.Processor = previewProcessor(errors.New("should not be called"))

		err := (&main.PreviewCmd{URL: "not a url"}).Run(deps)

		assert.Equal(t, canillita.EINVALID, canillita.ErrorCode(err))
	})
}
