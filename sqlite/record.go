package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/fwojciec/canillita"
)

// Compile-time interface verification.
var _ canillita.RecordService = (*RecordService)(nil)

const recordTable = "processing_records"

var recordColumns = []string{
	"item_id", "origin", "source", "title", "url", "author",
	"created_at", "claimed_at", "processed_at", "status", "error_message",
	"article_title", "article_length", "extraction_method", "content_hash",
}

// RecordService implements canillita.RecordService using SQLite.
type RecordService struct {
	db  *DB
	now func() time.Time
}

// NewRecordService creates a new RecordService.
func NewRecordService(db *DB) *RecordService {
	return &RecordService{db: db, now: time.Now}
}

// ClaimRecord inserts a pending record for the item. The insert is a
// no-op when the item already has a row, which is reported as ECONFLICT.
func (s *RecordService) ClaimRecord(ctx context.Context, rec *canillita.ProcessingRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ClaimedAt.IsZero() {
		rec.ClaimedAt = s.now().UTC()
	}
	rec.Status = canillita.StatusPending

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO processing_records (item_id, origin, source, title, url, author, created_at, claimed_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id) DO NOTHING
	`, rec.ItemID, rec.Origin, rec.Source, rec.Title, rec.URL, rec.Author,
		formatTime(rec.CreatedAt), formatTime(rec.ClaimedAt), string(canillita.StatusPending))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return canillita.Errorf(canillita.ECONFLICT, "item %q already claimed", rec.ItemID)
	}
	return nil
}

// FinishRecord stores the outcome of a pending record. Finished records
// are never overwritten.
func (s *RecordService) FinishRecord(ctx context.Context, itemID string, out canillita.Outcome) error {
	status := canillita.StatusFailure
	if out.Success {
		status = canillita.StatusSuccess
	}

	var errMsg, articleTitle, method, hash sql.NullString
	var length sql.NullInt64
	if out.ErrorMessage != "" {
		errMsg = sql.NullString{String: out.ErrorMessage, Valid: true}
	}
	if fp := out.Fingerprint; fp != nil {
		articleTitle = sql.NullString{String: fp.Title, Valid: true}
		length = sql.NullInt64{Int64: int64(fp.Length), Valid: true}
		method = sql.NullString{String: fp.Method, Valid: true}
		hash = sql.NullString{String: fp.Hash, Valid: fp.Hash != ""}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE processing_records
		SET status = ?, success = ?, processed_at = ?, error_message = ?,
			article_title = ?, article_length = ?, extraction_method = ?, content_hash = ?
		WHERE item_id = ? AND status = ?
	`, string(status), out.Success, formatTime(s.now()), errMsg,
		articleTitle, length, method, hash,
		itemID, string(canillita.StatusPending))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return canillita.Errorf(canillita.ENOTFOUND, "no pending record for item %q", itemID)
	}
	return nil
}

// FindRecord retrieves a record by item ID.
func (s *RecordService) FindRecord(ctx context.Context, itemID string) (*canillita.ProcessingRecord, error) {
	query, args, err := sq.Select(recordColumns...).
		From(recordTable).
		Where(sq.Eq{"item_id": itemID}).
		ToSql()
	if err != nil {
		return nil, err
	}

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, canillita.Errorf(canillita.ENOTFOUND, "record not found")
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, most recently
// claimed first.
func (s *RecordService) FindRecords(ctx context.Context, filter canillita.RecordFilter) ([]*canillita.ProcessingRecord, error) {
	q := sq.Select(recordColumns...).
		From(recordTable).
		OrderBy("claimed_at DESC", "item_id")

	if filter.Status != nil {
		q = q.Where(sq.Eq{"status": string(*filter.Status)})
	}
	if filter.Origin != nil {
		q = q.Where(sq.Eq{"origin": canillita.NormalizeOrigin(*filter.Origin)})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"claimed_at": formatTime(*filter.Since)})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			q = q.Limit(uint64(1<<63 - 1))
		}
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*canillita.ProcessingRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// RecordStats summarizes records claimed at or after since.
func (s *RecordService) RecordStats(ctx context.Context, since time.Time) (*canillita.RecordStats, error) {
	query, args, err := sq.Select("status", "COALESCE(extraction_method, '')", "COUNT(*)").
		From(recordTable).
		Where(sq.GtOrEq{"claimed_at": formatTime(since)}).
		GroupBy("status", "extraction_method").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &canillita.RecordStats{ByMethod: make(map[string]int)}
	for rows.Next() {
		var status, method string
		var n int
		if err := rows.Scan(&status, &method, &n); err != nil {
			return nil, err
		}

		stats.Total += n
		switch canillita.RecordStatus(status) {
		case canillita.StatusSuccess:
			stats.Succeeded += n
			if method != "" {
				stats.ByMethod[method] += n
			}
		case canillita.StatusFailure:
			stats.Failed += n
		case canillita.StatusPending:
			stats.Pending += n
		}
	}
	return stats, rows.Err()
}

// DeleteRecordsBefore removes records claimed before t.
func (s *RecordService) DeleteRecordsBefore(ctx context.Context, t time.Time) (int, error) {
	query, args, err := sq.Delete(recordTable).
		Where(sq.Lt{"claimed_at": formatTime(t)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteFailedRecord removes a failed record so the item can be processed
// again. Successful and pending records are kept.
func (s *RecordService) DeleteFailedRecord(ctx context.Context, itemID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM processing_records WHERE item_id = ? AND status = ?
	`, itemID, string(canillita.StatusFailure))
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return canillita.Errorf(canillita.ENOTFOUND, "no failed record for item %q", itemID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*canillita.ProcessingRecord, error) {
	var rec canillita.ProcessingRecord
	var createdAt, claimedAt, status string
	var processedAt, errMsg, articleTitle, method, hash sql.NullString
	var length sql.NullInt64

	if err := row.Scan(&rec.ItemID, &rec.Origin, &rec.Source, &rec.Title, &rec.URL, &rec.Author,
		&createdAt, &claimedAt, &processedAt, &status, &errMsg,
		&articleTitle, &length, &method, &hash); err != nil {
		return nil, err
	}

	var err error
	if rec.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
		return nil, err
	}
	if rec.ClaimedAt, err = parseRFC3339(claimedAt, "claimed_at"); err != nil {
		return nil, err
	}
	if rec.ProcessedAt, err = parseNullRFC3339(processedAt, "processed_at"); err != nil {
		return nil, err
	}

	rec.Status = canillita.RecordStatus(status)
	rec.ErrorMessage = errMsg.String
	if method.Valid {
		rec.Fingerprint = &canillita.Fingerprint{
			Title:  articleTitle.String,
			Length: int(length.Int64),
			Method: method.String,
			Hash:   hash.String,
		}
	}
	return &rec, nil
}
