package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/storage/object"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/shared/util"
)

// Service is the document archive. Originals live in the object store and
// rows reference them by storage key.
type Service struct {
	Store object.ObjectStore
	Repo  Repo
	Now   func() time.Time
	// PresignTTL enables direct download URLs when the store supports them.
	PresignTTL time.Duration
}

// Insert archives the original bytes under the category folder and records
// the row. A failed row insert removes the blob again.
func (s *Service) Insert(ctx context.Context, rec Record) (Record, error) {
	if err := validate(rec); err != nil {
		return Record{}, err
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, rec.Category, rec.FileName, bytes.NewReader(rec.File))
	if err != nil {
		return Record{}, fmt.Errorf("%w: save original: %w", ErrStorage, err)
	}

	rec.StorageKey = storageKey
	rec.SizeBytes = size
	if rec.MimeType == "" {
		rec.MimeType = mimeType
	}
	rec.Checksum = util.Checksum(rec.File)
	rec.UploadedAt = s.now().UTC().Truncate(time.Microsecond)
	rec.File = nil

	id, err := s.Repo.Create(ctx, rec)
	if err != nil {
		if delErr := s.Store.Delete(context.WithoutCancel(ctx), storageKey); delErr != nil && !errors.Is(delErr, object.ErrNotFound) {
			telemetry.Error("archive.rollback_failed", map[string]any{
				"storage_key": storageKey,
				"error":       delErr,
			})
		}
		return Record{}, fmt.Errorf("%w: insert record: %w", ErrStorage, err)
	}
	rec.ID = id

	telemetry.Info("archive.insert", map[string]any{
		"document_id": id,
		"category":    rec.Category,
		"size_bytes":  rec.SizeBytes,
		"storage_key": storageKey,
	})
	return rec, nil
}

// List returns history records, newest first.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	f.Category = strings.TrimSpace(f.Category)
	recs, err := s.Repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}
	return recs, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	if id <= 0 {
		return Record{}, ErrInvalidInput
	}
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, err
		}
		return Record{}, fmt.Errorf("%w: get: %w", ErrStorage, err)
	}
	return rec, nil
}

// OpenFile returns the archived original. The caller closes the reader.
func (s *Service) OpenFile(ctx context.Context, id int64) (Record, io.ReadCloser, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return Record{}, nil, err
	}
	rc, err := s.Store.Open(ctx, rec.StorageKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			return Record{}, nil, ErrNotFound
		}
		return Record{}, nil, fmt.Errorf("%w: open original: %w", ErrStorage, err)
	}
	return rec, rc, nil
}

// FileURL returns a time-limited direct URL for the original, or "" when
// the store cannot presign or presigning is disabled.
func (s *Service) FileURL(ctx context.Context, id int64) (string, error) {
	presigner, ok := s.Store.(object.Presigner)
	if !ok || s.PresignTTL <= 0 {
		return "", nil
	}
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	url, err := presigner.PresignGet(ctx, rec.StorageKey, s.PresignTTL)
	if err != nil {
		return "", fmt.Errorf("%w: presign original: %w", ErrStorage, err)
	}
	return url, nil
}

// Delete removes the records in one transaction and returns how many
// existed. Unknown ids, including non-positive ones, are ignored. Blobs are
// removed afterwards on a best effort basis.
func (s *Service) Delete(ctx context.Context, ids []int64) (int, error) {
	valid := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			valid = append(valid, id)
		}
	}
	ids = valid
	if len(ids) == 0 {
		return 0, nil
	}

	keys, err := s.Repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}

	for _, key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil && !errors.Is(err, object.ErrNotFound) {
			telemetry.Warn("archive.blob_delete_failed", map[string]any{
				"storage_key": key,
				"error":       err,
			})
		}
	}
	metrics.AddDocumentsDeleted(len(keys))
	telemetry.Info("archive.delete", map[string]any{
		"requested": len(ids),
		"deleted":   len(keys),
	})
	return len(keys), nil
}

// Analytics returns counts by category and the confidence trend.
func (s *Service) Analytics(ctx context.Context) (Analytics, error) {
	counts, err := s.Repo.CategoryCounts(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("%w: category counts: %w", ErrStorage, err)
	}
	trend, err := s.Repo.ConfidenceTrend(ctx)
	if err != nil {
		return Analytics{}, fmt.Errorf("%w: confidence trend: %w", ErrStorage, err)
	}
	out := Analytics{Categories: counts, ConfidenceTrend: trend}
	for _, c := range counts {
		out.Total += c.Count
	}
	return out, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validate(rec Record) error {
	if strings.TrimSpace(rec.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if strings.TrimSpace(rec.Category) == "" {
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	}
	if math.IsNaN(rec.Confidence) || rec.Confidence < 0 || rec.Confidence > 1 {
		return fmt.Errorf("%w: confidence %v outside [0,1]", ErrInvalidInput, rec.Confidence)
	}
	return nil
}

// ConfidencePct renders a confidence as a percentage with two decimals.
func ConfidencePct(confidence float64) string {
	return fmt.Sprintf("%.2f%%", confidence*100)
}
