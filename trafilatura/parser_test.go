package trafilatura_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/mock"
	"github.com/fwojciec/canillita/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Ensure Parser implements canillita.LibraryParser at compile time.
var _ canillita.LibraryParser = (*trafilatura.Parser)(nil)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
<title>Inflación de febrero: los datos oficiales</title>
<meta property="og:title" content="Inflación de febrero: los datos oficiales">
</head>
<body>
<nav><a href="/">Inicio</a><a href="/economia">Economía</a></nav>
<article>
<h1>Inflación de febrero: los datos oficiales</h1>
<p>El instituto de estadística informó hoy que la inflación de febrero fue menor a la esperada por los analistas privados del mercado.</p>
<p>Los precios de los alimentos subieron por debajo del promedio general, mientras que los servicios regulados mostraron los mayores aumentos del mes.</p>
<p>Según el informe, la variación interanual continúa desacelerándose por quinto mes consecutivo, lo que refuerza las expectativas del gobierno.</p>
</article>
<footer>Copyright 2025</footer>
</body>
</html>`

func TestParseHTML(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and text", func(t *testing.T) {
		t.Parallel()

		doc, err := trafilatura.ParseHTML(articleHTML, "https://diario.example/economia/inflacion")

		require.NoError(t, err)
		assert.NotEmpty(t, doc.Title)
		assert.Contains(t, doc.Text, "inflación de febrero fue menor")
		assert.NotContains(t, doc.Text, "Copyright")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.ParseHTML("  ", "https://diario.example/x")

		assert.Equal(t, canillita.EINVALID, canillita.ErrorCode(err))
	})
}

func TestParser_Parse(t *testing.T) {
	t.Parallel()

	t.Run("fetches and parses url", func(t *testing.T) {
		t.Parallel()

		var fetched string
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (string, error) {
				fetched = url
				return articleHTML, nil
			},
		}

		doc, err := trafilatura.NewParser(fetcher).Parse(context.Background(), "https://diario.example/nota")

		require.NoError(t, err)
		assert.Equal(t, "https://diario.example/nota", fetched)
		assert.True(t, strings.Contains(doc.Text, "servicios regulados"))
	})

	t.Run("returns fetch error", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, _ string) (string, error) {
				return "", errors.New("connection reset")
			},
		}

		_, err := trafilatura.NewParser(fetcher).Parse(context.Background(), "https://diario.example/nota")

		assert.EqualError(t, err, "connection reset")
	})
}
