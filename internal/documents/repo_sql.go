package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"documind-backend/internal/shared/storage/db"
)

const table = "documents"

var recordColumns = []string{
	"id",
	"upload_timestamp",
	"filename",
	"mime_type",
	"size_bytes",
	"checksum",
	"storage_key",
	"category",
	"confidence",
	"extracted_text",
	"summary",
}

// SQLRepo implements Repo on Postgres or SQLite.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func (r *SQLRepo) builder() sq.StatementBuilderType {
	return r.Dialect.Builder()
}

// Create inserts the record in its own transaction and returns the new id.
func (r *SQLRepo) Create(ctx context.Context, rec Record) (int64, error) {
	query, args, err := r.builder().
		Insert(table).
		Columns(recordColumns[1:]...).
		Values(
			rec.UploadedAt.UTC(),
			rec.FileName,
			rec.MimeType,
			rec.SizeBytes,
			rec.Checksum,
			rec.StorageKey,
			rec.Category,
			rec.Confidence,
			rec.ExtractedText,
			rec.Summary,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// List returns records ordered newest first.
func (r *SQLRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	q := r.builder().
		Select(recordColumns...).
		From(table).
		OrderBy("upload_timestamp DESC", "id DESC")
	if f.Category != "" {
		q = q.Where(sq.Eq{"category": f.Category})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
		if f.Offset > 0 {
			q = q.Offset(uint64(f.Offset))
		}
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByID fetches one record.
func (r *SQLRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	query, args, err := r.builder().
		Select(recordColumns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return Record{}, fmt.Errorf("build get: %w", err)
	}
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// DeleteByIDs collects the storage keys and deletes the rows in one transaction.
func (r *SQLRepo) DeleteByIDs(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	selectQuery, selectArgs, err := r.builder().
		Select("storage_key").
		From(table).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select keys: %w", err)
	}
	deleteQuery, deleteArgs, err := r.builder().
		Delete(table).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build delete: %w", err)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, selectQuery, selectArgs...)
	if err != nil {
		return nil, err
	}
	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, err
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, deleteQuery, deleteArgs...); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return keys, nil
}

// CategoryCounts groups the archive by category, largest first.
func (r *SQLRepo) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	query, args, err := r.builder().
		Select("category", "COUNT(*)").
		From(table).
		GroupBy("category").
		OrderBy("COUNT(*) DESC", "category ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build counts: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CategoryCount{}
	for rows.Next() {
		var cc CategoryCount
		if err := rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// ConfidenceTrend returns confidence samples oldest first.
func (r *SQLRepo) ConfidenceTrend(ctx context.Context) ([]TrendPoint, error) {
	query, args, err := r.builder().
		Select("id", "upload_timestamp", "category", "confidence").
		From(table).
		OrderBy("upload_timestamp ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build trend: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.ID, &p.UploadedAt, &p.Category, &p.Confidence); err != nil {
			return nil, err
		}
		p.UploadedAt = p.UploadedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner) (Record, error) {
	var rec Record
	err := s.Scan(
		&rec.ID,
		&rec.UploadedAt,
		&rec.FileName,
		&rec.MimeType,
		&rec.SizeBytes,
		&rec.Checksum,
		&rec.StorageKey,
		&rec.Category,
		&rec.Confidence,
		&rec.ExtractedText,
		&rec.Summary,
	)
	if err != nil {
		return Record{}, err
	}
	rec.UploadedAt = rec.UploadedAt.UTC()
	return rec, nil
}

var _ Repo = (*SQLRepo)(nil)
