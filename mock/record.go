package mock

import (
	"context"
	"time"

	"github.com/fwojciec/canillita"
)

var _ canillita.RecordService = (*RecordService)(nil)

// RecordService is a mock implementation of canillita.RecordService.
type RecordService struct {
	ClaimRecordFn         func(ctx context.Context, rec *canillita.ProcessingRecord) error
	FinishRecordFn        func(ctx context.Context, itemID string, out canillita.Outcome) error
	FindRecordFn          func(ctx context.Context, itemID string) (*canillita.ProcessingRecord, error)
	FindRecordsFn         func(ctx context.Context, filter canillita.RecordFilter) ([]*canillita.ProcessingRecord, error)
	RecordStatsFn         func(ctx context.Context, since time.Time) (*canillita.RecordStats, error)
	DeleteRecordsBeforeFn func(ctx context.Context, t time.Time) (int, error)
	DeleteFailedRecordFn  func(ctx context.Context, itemID string) error
}

func (s *RecordService) ClaimRecord(ctx context.Context, rec *canillita.ProcessingRecord) error {
	return s.ClaimRecordFn(ctx, rec)
}

func (s *RecordService) FinishRecord(ctx context.Context, itemID string, out canillita.Outcome) error {
	return s.FinishRecordFn(ctx, itemID, out)
}

func (s *RecordService) FindRecord(ctx context.Context, itemID string) (*canillita.ProcessingRecord, error) {
	return s.FindRecordFn(ctx, itemID)
}

func (s *RecordService) FindRecords(ctx context.Context, filter canillita.RecordFilter) ([]*canillita.ProcessingRecord, error) {
	return s.FindRecordsFn(ctx, filter)
}

func (s *RecordService) RecordStats(ctx context.Context, since time.Time) (*canillita.RecordStats, error) {
	return s.RecordStatsFn(ctx, since)
}

func (s *RecordService) DeleteRecordsBefore(ctx context.Context, t time.Time) (int, error) {
	return s.DeleteRecordsBeforeFn(ctx, t)
}

func (s *RecordService) DeleteFailedRecord(ctx context.Context, itemID string) error {
	return s.DeleteFailedRecordFn(ctx, itemID)
}
