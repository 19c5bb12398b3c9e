package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/mock"
	canillitaslog "github.com/fwojciec/canillita/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingStrategy_Extract(t *testing.T) {
	t.Parallel()

	src := &mock.Source{URLFn: func() string { return "https://diario.example/nota" }}
	rs := canillita.DefaultRuleset()

	t.Run("logs the extracted article", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Strategy{
			NameFn: func() string { return "structured" },
			ExtractFn: func(_ context.Context, _ canillita.Source, _ *canillita.Ruleset) (*canillita.Article, error) {
				return &canillita.Article{Title: "Titular", Body: "Educación"}, nil
			},
		}

		s := canillitaslog.NewLoggingStrategy(inner, logger)
		a, err := s.Extract(context.Background(), src, rs)

		require.NoError(t, err)
		assert.Equal(t, "Titular", a.Title)
		assert.Equal(t, "structured", s.Name())
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "strategy=structured")
		assert.Contains(t, output, "ruleset=default")
		assert.Contains(t, output, "url=https://diario.example/nota")
		assert.Contains(t, output, "length=9")
	})

	t.Run("logs rejections at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Strategy{
			NameFn: func() string { return "structured" },
			ExtractFn: func(_ context.Context, _ canillita.Source, _ *canillita.Ruleset) (*canillita.Article, error) {
				return nil, canillita.Errorf(canillita.EREJECTED, "no title selector matched")
			},
		}

		_, err := canillitaslog.NewLoggingStrategy(inner, logger).Extract(context.Background(), src, rs)

		require.Error(t, err)
		assert.Empty(t, buf.String())
	})
}
