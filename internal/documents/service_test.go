package documents

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"documind-backend/internal/shared/storage/object/local"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

type failingRepo struct {
	*MemoryRepo
}

func (failingRepo) Create(context.Context, Record) (int64, error) {
	return 0, errors.New("insert failed")
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()
	fixed := time.Date(2026, 5, 4, 12, 30, 15, 123456789, time.UTC)
	return &Service{
		Store: local.New(dir),
		Repo:  NewMemoryRepo(),
		Now:   func() time.Time { return fixed },
	}, dir
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			n++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk: %v", err)
	}
	return n
}

func TestServiceInsertRoundTrip(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Insert(ctx, Record{
		FileName:      "scan 01.png",
		Category:      "invoice",
		Confidence:    0.87654321,
		ExtractedText: "Total: $12.00",
		Summary:       "Document is too short to summarize",
		File:          pngBytes,
	})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected id assigned")
	}
	if !strings.HasPrefix(created.StorageKey, "invoice/") {
		t.Fatalf("expected category folder, got %s", created.StorageKey)
	}
	if created.UploadedAt.Nanosecond()%1000 != 0 {
		t.Fatalf("expected microsecond precision, got %v", created.UploadedAt)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != "scan 01.png" || got.Category != "invoice" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if math.Float64bits(got.Confidence) != math.Float64bits(0.87654321) {
		t.Fatalf("confidence changed: %v", got.Confidence)
	}
	if got.MimeType != "image/png" || got.SizeBytes != int64(len(pngBytes)) || got.Checksum == "" {
		t.Fatalf("unexpected file metadata: %+v", got)
	}

	_, rc, err := svc.OpenFile(ctx, created.ID)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if !bytes.Equal(data, pngBytes) {
		t.Fatalf("original bytes differ")
	}
}

func TestServiceInsertRemovesBlobWhenRowFails(t *testing.T) {
	svc, dir := newTestService(t)
	svc.Repo = failingRepo{NewMemoryRepo()}

	_, err := svc.Insert(context.Background(), Record{
		FileName:   "a.png",
		Category:   "email",
		Confidence: 0.5,
		File:       pngBytes,
	})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if n := countFiles(t, dir); n != 0 {
		t.Fatalf("expected no orphan blobs, found %d", n)
	}
}

func TestServiceInsertValidates(t *testing.T) {
	svc, dir := newTestService(t)
	cases := []Record{
		{FileName: "", Category: "email", Confidence: 0.5},
		{FileName: "a.png", Category: "", Confidence: 0.5},
		{FileName: "a.png", Category: "email", Confidence: 1.5},
		{FileName: "a.png", Category: "email", Confidence: math.NaN()},
	}
	for _, rec := range cases {
		if _, err := svc.Insert(context.Background(), rec); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", rec, err)
		}
	}
	if n := countFiles(t, dir); n != 0 {
		t.Fatalf("expected nothing written, found %d", n)
	}
}

func TestServiceDeleteIsIdempotent(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Insert(ctx, Record{FileName: "a.png", Category: "email", Confidence: 0.5, File: pngBytes})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	n, err := svc.Delete(ctx, []int64{rec.ID})
	if err != nil || n != 1 {
		t.Fatalf("first delete: n=%d err=%v", n, err)
	}
	n, err = svc.Delete(ctx, []int64{rec.ID})
	if err != nil || n != 0 {
		t.Fatalf("second delete: n=%d err=%v", n, err)
	}
	if _, err := svc.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if countFiles(t, dir) != 0 {
		t.Fatalf("expected blob removed")
	}
}

func TestServiceDeleteIgnoresNonPositiveIDs(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	rec, err := svc.Insert(ctx, Record{FileName: "a.png", Category: "email", Confidence: 0.5, File: pngBytes})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	n, err := svc.Delete(ctx, []int64{0, -3, rec.ID})
	if err != nil || n != 1 {
		t.Fatalf("expected 1 deleted, got %d %v", n, err)
	}
	if _, err := svc.Get(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected record gone, got %v", err)
	}
}

func TestServiceOpenFileMissingBlob(t *testing.T) {
	svc, dir := newTestService(t)
	ctx := context.Background()
	rec, _ := svc.Insert(ctx, Record{FileName: "a.png", Category: "email", Confidence: 0.5, File: pngBytes})
	if err := os.RemoveAll(filepath.Join(dir, "email")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, _, err := svc.OpenFile(ctx, rec.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestServiceExportWorkbook(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Insert(ctx, Record{FileName: "bill.png", Category: "invoice", Confidence: 0.9876, Summary: "A bill.", File: pngBytes}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	data, err := svc.Export(ctx, Filter{})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "Date,Filename,Category,Confidence,Summary" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][0] != "2026-05-04 12:30:15" || rows[1][1] != "bill.png" || rows[1][3] != "98.76%" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestServiceAnalyticsTotals(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, category := range []string{"invoice", "invoice", "email"} {
		if _, err := svc.Insert(ctx, Record{FileName: "a.png", Category: category, Confidence: 0.5, File: pngBytes}); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	out, err := svc.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if out.Total != 3 || len(out.Categories) != 2 || len(out.ConfidenceTrend) != 3 {
		t.Fatalf("unexpected analytics: %+v", out)
	}
}
