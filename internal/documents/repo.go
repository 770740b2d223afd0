package documents

import "context"

// Repo defines persistence operations for archived documents.
type Repo interface {
	Create(ctx context.Context, rec Record) (int64, error)
	List(ctx context.Context, f Filter) ([]Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
	// DeleteByIDs removes the rows in one transaction and returns the storage
	// keys of the rows that existed. Unknown ids are ignored.
	DeleteByIDs(ctx context.Context, ids []int64) ([]string, error)
	CategoryCounts(ctx context.Context) ([]CategoryCount, error)
	ConfidenceTrend(ctx context.Context) ([]TrendPoint, error)
}
