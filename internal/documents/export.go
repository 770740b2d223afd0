package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"documind-backend/internal/shared/telemetry"
)

const exportSheet = "History"

var exportHeaders = []string{"Date", "Filename", "Category", "Confidence", "Summary"}

// Export renders the filtered history as an XLSX workbook.
func (s *Service) Export(ctx context.Context, f Filter) ([]byte, error) {
	start := time.Now()

	recs, err := s.List(ctx, f)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	defer func() { _ = file.Close() }()

	if err := file.SetSheetName(file.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = file.SetCellValue(exportSheet, cell, h)
	}

	for i, rec := range recs {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = file.SetCellValue(exportSheet, cell, v)
		}
		write(1, rec.UploadedAt.UTC().Format("2006-01-02 15:04:05"))
		write(2, rec.FileName)
		write(3, rec.Category)
		write(4, ConfidencePct(rec.Confidence))
		write(5, rec.Summary)
	}

	_ = file.SetColWidth(exportSheet, "A", "A", 20)
	_ = file.SetColWidth(exportSheet, "B", "B", 32)
	_ = file.SetColWidth(exportSheet, "C", "D", 14)
	_ = file.SetColWidth(exportSheet, "E", "E", 80)

	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	telemetry.Info("archive.export", map[string]any{
		"rows":        len(recs),
		"category":    f.Category,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return buf.Bytes(), nil
}
