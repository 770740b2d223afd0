package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	data   map[int64]Record
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[int64]Record),
	}
}

// Create stores the record under the next id.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rec.ID = r.nextID
	rec.File = nil
	r.data[rec.ID] = rec
	return rec.ID, nil
}

// List returns records newest first, honoring the filter.
func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]Record, 0, len(r.data))
	for _, rec := range r.data {
		if f.Category != "" && rec.Category != f.Category {
			continue
		}
		out = append(out, rec)
	}
	r.mu.RUnlock()

	sortNewestFirst(out)

	if f.Limit <= 0 {
		return out, nil
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(out) {
		return []Record{}, nil
	}
	end := len(out)
	if offset+f.Limit < end {
		end = offset + f.Limit
	}
	return out[offset:end], nil
}

// GetByID returns a record by id.
func (r *MemoryRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.data[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// DeleteByIDs removes every known id under a single lock.
func (r *MemoryRepo) DeleteByIDs(ctx context.Context, ids []int64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, id := range ids {
		rec, ok := r.data[id]
		if !ok {
			continue
		}
		keys = append(keys, rec.StorageKey)
		delete(r.data, id)
	}
	return keys, nil
}

// CategoryCounts returns counts per category, largest first.
func (r *MemoryRepo) CategoryCounts(ctx context.Context) ([]CategoryCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	counts := make(map[string]int)
	for _, rec := range r.data {
		counts[rec.Category]++
	}
	r.mu.RUnlock()

	out := make([]CategoryCount, 0, len(counts))
	for category, n := range counts {
		out = append(out, CategoryCount{Category: category, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// ConfidenceTrend returns confidence samples oldest first.
func (r *MemoryRepo) ConfidenceTrend(ctx context.Context) ([]TrendPoint, error) {
	recs, err := r.List(ctx, Filter{})
	if err != nil {
		return nil, err
	}
	out := make([]TrendPoint, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		out = append(out, TrendPoint{
			ID:         recs[i].ID,
			UploadedAt: recs[i].UploadedAt,
			Category:   recs[i].Category,
			Confidence: recs[i].Confidence,
		})
	}
	return out, nil
}

func sortNewestFirst(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].UploadedAt.Equal(recs[j].UploadedAt) {
			return recs[i].UploadedAt.After(recs[j].UploadedAt)
		}
		return recs[i].ID > recs[j].ID
	})
}

var _ Repo = (*MemoryRepo)(nil)
