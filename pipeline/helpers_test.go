package pipeline_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/canillita"
	"github.com/fwojciec/canillita/mock"
)

// prose returns n distinct words grouped into sentences of ten words.
func prose(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "palabra%d", i)
		if i%10 == 9 {
			b.WriteString(".")
		}
	}
	return b.String()
}

// records is an in-memory record store honoring the claim-then-finish
// contract of canillita.RecordService.
type records struct {
	mu   sync.Mutex
	rows map[string]*canillita.ProcessingRecord
}

func newRecords() *records {
	return &records{rows: make(map[string]*canillita.ProcessingRecord)}
}

func (r *records) get(id string) *canillita.ProcessingRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *records) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *records) service() *mock.RecordService {
	return &mock.RecordService{
		ClaimRecordFn: func(_ context.Context, rec *canillita.ProcessingRecord) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			if _, ok := r.rows[rec.ItemID]; ok {
				return canillita.Errorf(canillita.ECONFLICT, "item %q already claimed", rec.ItemID)
			}
			cp := *rec
			r.rows[rec.ItemID] = &cp
			return nil
		},
		FinishRecordFn: func(_ context.Context, itemID string, out canillita.Outcome) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			rec, ok := r.rows[itemID]
			if !ok || rec.Status != canillita.StatusPending {
				return canillita.Errorf(canillita.ENOTFOUND, "no pending record")
			}
			now := time.Now().UTC()
			rec.ProcessedAt = &now
			rec.Status = canillita.StatusFailure
			if out.Success {
				rec.Status = canillita.StatusSuccess
			}
			rec.ErrorMessage = out.ErrorMessage
			rec.Fingerprint = out.Fingerprint
			return nil
		},
		FindRecordFn: func(_ context.Context, itemID string) (*canillita.ProcessingRecord, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			rec, ok := r.rows[itemID]
			if !ok {
				return nil, canillita.Errorf(canillita.ENOTFOUND, "record not found")
			}
			return rec, nil
		},
	}
}

func staticFetcher(html string) *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, _ string) (string, error) {
			return html, nil
		},
		CloseFn: func() error { return nil },
	}
}

func fixedStrategy(name string, a *canillita.Article, err error) *mock.Strategy {
	return &mock.Strategy{
		NameFn: func() string { return name },
		ExtractFn: func(_ context.Context, _ canillita.Source, _ *canillita.Ruleset) (*canillita.Article, error) {
			if err != nil {
				return nil, err
			}
			cp := *a
			return &cp, nil
		},
	}
}

func testItem(id string) *canillita.Item {
	return &canillita.Item{
		ID:        id,
		Source:    "test",
		URL:       "https://diario.example/nota/" + id,
		Title:     "Titular de la nota",
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}
