package bloom

import (
	"context"
	"time"

	"github.com/fwojciec/canillita"
)

// Ensure RecordService implements canillita.RecordService at compile time.
var _ canillita.RecordService = (*RecordService)(nil)

// loadPageSize is the page size used when warming the filter.
const loadPageSize = 500

// RecordService answers FindRecord misses from a Bloom filter of claimed
// item IDs and delegates everything else. Claims always reach the
// wrapped store, which stays the only authority on duplicates.
type RecordService struct {
	next   canillita.RecordService
	filter *Filter
}

// NewRecordService wraps next with a filter.
func NewRecordService(next canillita.RecordService, filter *Filter) *RecordService {
	return &RecordService{next: next, filter: filter}
}

// Load adds the IDs of every stored record to the filter.
func (s *RecordService) Load(ctx context.Context) (int, error) {
	var n int
	for offset := 0; ; offset += loadPageSize {
		recs, err := s.next.FindRecords(ctx, canillita.RecordFilter{Offset: offset, Limit: loadPageSize})
		if err != nil {
			return n, err
		}
		for _, rec := range recs {
			s.filter.Add(rec.ItemID)
		}
		n += len(recs)
		if len(recs) < loadPageSize {
			return n, nil
		}
	}
}

func (s *RecordService) ClaimRecord(ctx context.Context, rec *canillita.ProcessingRecord) error {
	err := s.next.ClaimRecord(ctx, rec)
	if err == nil || canillita.ErrorCode(err) == canillita.ECONFLICT {
		s.filter.Add(rec.ItemID)
	}
	return err
}

func (s *RecordService) FinishRecord(ctx context.Context, itemID string, out canillita.Outcome) error {
	return s.next.FinishRecord(ctx, itemID, out)
}

// FindRecord returns ENOTFOUND without a store lookup when the filter has
// never seen the ID.
func (s *RecordService) FindRecord(ctx context.Context, itemID string) (*canillita.ProcessingRecord, error) {
	if !s.filter.Test(itemID) {
		return nil, canillita.Errorf(canillita.ENOTFOUND, "record not found")
	}
	return s.next.FindRecord(ctx, itemID)
}

func (s *RecordService) FindRecords(ctx context.Context, filter canillita.RecordFilter) ([]*canillita.ProcessingRecord, error) {
	return s.next.FindRecords(ctx, filter)
}

func (s *RecordService) RecordStats(ctx context.Context, since time.Time) (*canillita.RecordStats, error) {
	return s.next.RecordStats(ctx, since)
}

func (s *RecordService) DeleteRecordsBefore(ctx context.Context, t time.Time) (int, error) {
	return s.next.DeleteRecordsBefore(ctx, t)
}

func (s *RecordService) DeleteFailedRecord(ctx context.Context, itemID string) error {
	return s.next.DeleteFailedRecord(ctx, itemID)
}
