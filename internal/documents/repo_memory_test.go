package documents

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepoListNewestFirstWithTies(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, ts := range []time.Time{base, base.Add(time.Hour), base.Add(time.Hour)} {
		if _, err := repo.Create(ctx, Record{FileName: "f", Category: "email", UploadedAt: ts, Confidence: float64(i) / 10}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	recs, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := []int64{recs[0].ID, recs[1].ID, recs[2].ID}
	want := []int64{3, 2, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestMemoryRepoFilterAndPaging(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		category := "invoice"
		if i%2 == 0 {
			category = "email"
		}
		_, _ = repo.Create(ctx, Record{FileName: "f", Category: category, UploadedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	emails, _ := repo.List(ctx, Filter{Category: "email"})
	if len(emails) != 3 {
		t.Fatalf("expected 3 emails, got %d", len(emails))
	}

	page, _ := repo.List(ctx, Filter{Limit: 2, Offset: 2})
	if len(page) != 2 || page[0].ID != 3 || page[1].ID != 2 {
		t.Fatalf("unexpected page: %+v", page)
	}

	past, _ := repo.List(ctx, Filter{Limit: 2, Offset: 10})
	if len(past) != 0 {
		t.Fatalf("expected empty page, got %d", len(past))
	}
}

func TestMemoryRepoDeleteIsIdempotent(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	id, _ := repo.Create(ctx, Record{FileName: "f", Category: "email", StorageKey: "email/x"})

	keys, err := repo.DeleteByIDs(ctx, []int64{id, 404})
	if err != nil || len(keys) != 1 || keys[0] != "email/x" {
		t.Fatalf("first delete: %v %v", keys, err)
	}
	keys, err = repo.DeleteByIDs(ctx, []int64{id})
	if err != nil || len(keys) != 0 {
		t.Fatalf("second delete: %v %v", keys, err)
	}
	if _, err := repo.GetByID(ctx, id); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRepoAnalytics(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, _ = repo.Create(ctx, Record{Category: "invoice", UploadedAt: base, Confidence: 0.5})
	_, _ = repo.Create(ctx, Record{Category: "invoice", UploadedAt: base.Add(time.Minute), Confidence: 0.6})
	_, _ = repo.Create(ctx, Record{Category: "email", UploadedAt: base.Add(2 * time.Minute), Confidence: 0.7})

	counts, _ := repo.CategoryCounts(ctx)
	if len(counts) != 2 || counts[0] != (CategoryCount{Category: "invoice", Count: 2}) {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	trend, _ := repo.ConfidenceTrend(ctx)
	if len(trend) != 3 || trend[0].Confidence != 0.5 || trend[2].Confidence != 0.7 {
		t.Fatalf("expected chronological trend, got %+v", trend)
	}
}
