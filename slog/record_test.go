package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/mock"
	canillitaslog "github.com/fwojciec/canillita/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingRecordService(t *testing.T) {
	t.Parallel()

	t.Run("logs claim conflicts", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			ClaimRecordFn: func(_ context.Context, _ *canillita.ProcessingRecord) error {
				return canillita.Errorf(canillita.ECONFLICT, "item already claimed")
			},
		}

		err := canillitaslog.NewLoggingRecordService(inner, logger).ClaimRecord(context.Background(), &canillita.ProcessingRecord{ItemID: "a1", Origin: "diario.example"})

		assert.Equal(t, canillita.ECONFLICT, canillita.ErrorCode(err))
		output := buf.String()
		assert.Contains(t, output, `msg="claim record"`)
		assert.Contains(t, output, "item=a1")
		assert.Contains(t, output, "origin=diario.example")
		assert.Contains(t, output, "code=conflict")
	})

	t.Run("logs outcome with reason and fingerprint", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			FinishRecordFn: func(_ context.Context, _ string, _ canillita.Outcome) error {
				return nil
			},
		}
		out := canillita.Outcome{
			ErrorMessage: "delivery failed: timeout",
			Fingerprint:  &canillita.Fingerprint{Title: "Titular", Length: 500, Method: "library"},
		}

		err := canillitaslog.NewLoggingRecordService(inner, logger).FinishRecord(context.Background(), "a1", out)

		require.NoError(t, err)
		output := buf.String()
		assert.Contains(t, output, "success=false")
		assert.Contains(t, output, `reason="delivery failed: timeout"`)
		assert.Contains(t, output, "fingerprint=Titular|500|library")
	})

	t.Run("delegates queries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.RecordService{
			DeleteRecordsBeforeFn: func(_ context.Context, _ time.Time) (int, error) {
				return 7, nil
			},
			FindRecordFn: func(_ context.Context, itemID string) (*canillita.ProcessingRecord, error) {
				return &canillita.ProcessingRecord{ItemID: itemID}, nil
			},
		}
		s := canillitaslog.NewLoggingRecordService(inner, logger)

		n, err := s.DeleteRecordsBefore(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Equal(t, 7, n)

		rec, err := s.FindRecord(context.Background(), "a1")
		require.NoError(t, err)
		assert.Equal(t, "a1", rec.ItemID)

		assert.Contains(t, buf.String(), "deleted=7")
	})
}
