package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/canillita"
)

// Ensure LoggingRecordService implements canillita.RecordService.
var _ canillita.RecordService = (*LoggingRecordService)(nil)

// LoggingRecordService wraps a RecordService and logs record lifecycle
// changes. Read-only queries are logged at debug level.
type LoggingRecordService struct {
	next   canillita.RecordService
	logger *slog.Logger
}

// NewLoggingRecordService creates a new LoggingRecordService.
func NewLoggingRecordService(next canillita.RecordService, logger *slog.Logger) *LoggingRecordService {
	return &LoggingRecordService{next: next, logger: logger}
}

func (s *LoggingRecordService) ClaimRecord(ctx context.Context, rec *canillita.ProcessingRecord) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("claim record",
			"item", rec.ItemID,
			"origin", rec.Origin,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ClaimRecord(ctx, rec)
}

func (s *LoggingRecordService) FinishRecord(ctx context.Context, itemID string, out canillita.Outcome) (err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"item", itemID,
			"success", out.Success,
			"duration", time.Since(begin),
			"err", err,
		}
		if out.ErrorMessage != "" {
			attrs = append(attrs, "reason", out.ErrorMessage)
		}
		if out.Fingerprint != nil {
			attrs = append(attrs, "fingerprint", out.Fingerprint.String())
		}
		s.logger.Info("finish record", attrs...)
	}(time.Now())
	return s.next.FinishRecord(ctx, itemID, out)
}

func (s *LoggingRecordService) FindRecord(ctx context.Context, itemID string) (rec *canillita.ProcessingRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find record",
			"item", itemID,
			"found", rec != nil,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindRecord(ctx, itemID)
}

func (s *LoggingRecordService) FindRecords(ctx context.Context, filter canillita.RecordFilter) (recs []*canillita.ProcessingRecord, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("find records",
			"n", len(recs),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.FindRecords(ctx, filter)
}

func (s *LoggingRecordService) RecordStats(ctx context.Context, since time.Time) (stats *canillita.RecordStats, err error) {
	defer func(begin time.Time) {
		s.logger.Debug("record stats",
			"since", since,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.RecordStats(ctx, since)
}

func (s *LoggingRecordService) DeleteRecordsBefore(ctx context.Context, t time.Time) (n int, err error) {
	defer func(begin time.Time) {
		s.logger.Info("sweep records",
			"before", t,
			"deleted", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteRecordsBefore(ctx, t)
}

func (s *LoggingRecordService) DeleteFailedRecord(ctx context.Context, itemID string) (err error) {
	defer func(begin time.Time) {
		s.logger.Info("delete failed record",
			"item", itemID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DeleteFailedRecord(ctx, itemID)
}
