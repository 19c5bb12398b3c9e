package canillita

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// RecordStatus is the lifecycle state of a ProcessingRecord.
type RecordStatus string

// RecordStatus constants.
const (
	// StatusPending marks a claimed item whose outcome is not yet recorded.
	StatusPending RecordStatus = "pending"
	StatusSuccess RecordStatus = "success"
	StatusFailure RecordStatus = "failure"
)

// Fingerprint summarizes the extracted content of a processed item.
type Fingerprint struct {
	Title  string `json:"title"`
	Length int    `json:"length"`
	Method string `json:"method"`

	// Hash is the hex xxhash digest of the article body.
	Hash string `json:"hash"`
}

// NewFingerprint returns the fingerprint of an article.
func NewFingerprint(a *Article) *Fingerprint {
	return &Fingerprint{
		Title:  a.Title,
		Length: len([]rune(a.Body)),
		Method: a.Method,
		Hash:   fmt.Sprintf("%016x", xxhash.Sum64String(a.Body)),
	}
}

// String returns the fingerprint as "title|length|method".
func (f *Fingerprint) String() string {
	return fmt.Sprintf("%s|%d|%s", f.Title, f.Length, f.Method)
}

// ProcessingRecord is the durable, unique-per-item audit row that prevents
// an item from being delivered twice.
type ProcessingRecord struct {
	ItemID       string       `json:"itemId"`
	Origin       string       `json:"origin"`
	Source       string       `json:"source"`
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	Author       string       `json:"author"`
	CreatedAt    time.Time    `json:"createdAt"`
	ClaimedAt    time.Time    `json:"claimedAt"`
	ProcessedAt  *time.Time   `json:"processedAt"`
	Status       RecordStatus `json:"status"`
	ErrorMessage string       `json:"errorMessage"`
	Fingerprint  *Fingerprint `json:"fingerprint"`
}

// Success reports whether the item was delivered.
func (r *ProcessingRecord) Success() bool {
	return r.Status == StatusSuccess
}

// Validate returns an error if the record contains invalid fields.
func (r *ProcessingRecord) Validate() error {
	if r.ItemID == "" {
		return Errorf(EINVALID, "record item ID required")
	}
	if r.URL == "" {
		return Errorf(EINVALID, "record URL required")
	}
	return nil
}

// NewRecord returns a pending record for an item.
func NewRecord(item *Item) *ProcessingRecord {
	origin, _ := OriginOf(item.URL)
	return &ProcessingRecord{
		ItemID:    item.ID,
		Origin:    origin,
		Source:    item.Source,
		Title:     item.Title,
		URL:       item.URL,
		Author:    item.Author,
		CreatedAt: item.CreatedAt,
		Status:    StatusPending,
	}
}

// Outcome is the final result of processing one item.
type Outcome struct {
	Success      bool
	ErrorMessage string
	Fingerprint  *Fingerprint
}

// RecordService manages processing records.
type RecordService interface {
	// ClaimRecord inserts a pending record. It returns ECONFLICT if a
	// record for the item already exists; an existing record is never
	// overwritten.
	ClaimRecord(ctx context.Context, rec *ProcessingRecord) error

	// FinishRecord stores the outcome of a pending record.
	// Returns ENOTFOUND if no pending record exists for the item.
	FinishRecord(ctx context.Context, itemID string, out Outcome) error

	// FindRecord retrieves a record by item ID.
	// Returns ENOTFOUND if the record does not exist.
	FindRecord(ctx context.Context, itemID string) (*ProcessingRecord, error)

	// FindRecords retrieves records matching the filter, newest first.
	FindRecords(ctx context.Context, filter RecordFilter) ([]*ProcessingRecord, error)

	// RecordStats summarizes records claimed at or after since.
	RecordStats(ctx context.Context, since time.Time) (*RecordStats, error)

	// DeleteRecordsBefore removes records claimed before t and returns
	// the number removed.
	DeleteRecordsBefore(ctx context.Context, t time.Time) (int, error)

	// DeleteFailedRecord removes a failed record so that the item can be
	// processed again. Returns ENOTFOUND if no failed record exists.
	DeleteFailedRecord(ctx context.Context, itemID string) error
}

// RecordFilter represents a filter for FindRecords.
type RecordFilter struct {
	Status *RecordStatus `json:"status"`
	Origin *string       `json:"origin"`
	Since  *time.Time    `json:"since"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// RecordStats summarizes processing outcomes.
type RecordStats struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Pending   int            `json:"pending"`
	ByMethod  map[string]int `json:"byMethod"`
}

// SuccessRate returns the share of finished records that succeeded.
func (s *RecordStats) SuccessRate() float64 {
	finished := s.Succeeded + s.Failed
	if finished == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(finished)
}
