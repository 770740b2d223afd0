package ocr

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"documind-backend/internal/shared/telemetry"
)

// extractPDF prefers the embedded text layer and falls back to rasterizing
// pages and running OCR on each.
func (e *Extractor) extractPDF(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read pdf: %v", ErrExtraction, err)
	}
	text, pages, err := pdfTextLayer(data)
	if err != nil {
		telemetry.Warn("ocr.pdf_text_layer_failed", map[string]any{"error": err.Error()})
	}
	if strings.TrimSpace(text) != "" {
		return Result{Text: text, Method: "pdf-text", Pages: pages}, nil
	}

	text, pages, err = e.pdfToOCR(ctx, path)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text, Method: "pdf-ocr", Pages: pages}, nil
}

func pdfTextLayer(data []byte) (text string, pages int, err error) {
	// the pdf reader panics on some malformed documents
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", reader.NumPage(), err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", reader.NumPage(), err
	}
	return buf.String(), reader.NumPage(), nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (string, int, error) {
	tmpDir, err := os.MkdirTemp(e.cfg.WorkDir, "documind-pp-*")
	if err != nil {
		return "", 0, fmt.Errorf("%w: temp dir: %v", ErrExtraction, err)
	}
	defer os.RemoveAll(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r 300 -png [-f 1 -l N] <in.pdf> <tmp/page>
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return "", 0, fmt.Errorf("%w: pdftoppm: %v: %s", ErrExtraction, err, strings.TrimSpace(truncate(string(errb), 300)))
	}

	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Slice(matches, func(i, j int) bool {
		return pageNumber(matches[i]) < pageNumber(matches[j])
	})
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, fmt.Errorf("%w: pdftoppm produced no images", ErrExtraction)
	}

	var b strings.Builder
	for _, img := range matches {
		txt, err := e.tesseract(ctx, img)
		if err != nil {
			return "", 0, err
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(strings.TrimRight(txt, "\f\n "))
	}
	return b.String(), len(matches), nil
}

// pageNumber parses N from ".../page-N.png".
func pageNumber(path string) int {
	base := strings.TrimSuffix(filepath.Base(path), ".png")
	idx := strings.LastIndex(base, "-")
	if idx < 0 {
		return 0
	}
	n, _ := strconv.Atoi(base[idx+1:])
	return n
}
