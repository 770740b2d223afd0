// Package ocr turns document images (and PDFs) into raw text.
package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"documind-backend/internal/shared/telemetry"
)

const mimePDF = "application/pdf"

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/tiff": {},
	"image/bmp":  {},
	"image/gif":  {},
	"image/webp": {},
}

// Config controls the external OCR tooling.
type Config struct {
	Tesseract     string // binary name or absolute path; default "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	PSM           int // page segmentation mode; 0 keeps tesseract's default

	Pdftoppm string // default "pdftoppm"
	DPI      int    // rasterization DPI for scanned PDFs, default 300
	MaxPages int    // 0 = no limit
	WorkDir  string // scratch space for rasterized pages; default os.TempDir
}

// Result is the text extracted from one file.
type Result struct {
	Text     string
	Method   string // "image-ocr" | "pdf-text" | "pdf-ocr"
	MimeType string
	Pages    int
	Duration time.Duration
}

// Extractor runs tesseract over images and handles PDFs by text layer or rasterization.
type Extractor struct {
	cfg    Config
	runner Runner
}

// NewExtractor fills config defaults. A nil runner executes real binaries.
func NewExtractor(cfg Config, runner Runner) *Extractor {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// Extract returns the text in the file at path. It fails with ErrExtraction
// when the file cannot be read or recognized, and with ErrNoText when
// recognition succeeded but yielded only whitespace.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: read %s: %v", ErrExtraction, path, err)
	}
	mimeType := baseMime(mt.String())

	var res Result
	switch {
	case mimeType == mimePDF:
		res, err = e.extractPDF(ctx, path)
	case isImage(mimeType):
		var text string
		text, err = e.tesseract(ctx, path)
		res = Result{Text: text, Method: "image-ocr", Pages: 1}
	default:
		return Result{MimeType: mimeType}, fmt.Errorf("%w: unsupported format %s", ErrExtraction, mimeType)
	}
	res.MimeType = mimeType
	res.Duration = time.Since(start)
	if err != nil {
		return res, err
	}

	res.Text = strings.TrimRight(res.Text, "\f\n ")
	if strings.TrimSpace(res.Text) == "" {
		return res, ErrNoText
	}
	telemetry.Info("ocr.complete", map[string]any{
		"method":      res.Method,
		"mime_type":   res.MimeType,
		"pages":       res.Pages,
		"chars":       len(res.Text),
		"duration_ms": res.Duration.Milliseconds(),
	})
	return res, nil
}

// Supported reports whether a declared media type can enter the pipeline.
func Supported(mimeType string) bool {
	mimeType = baseMime(mimeType)
	return mimeType == mimePDF || isImage(mimeType)
}

func (e *Extractor) tesseract(ctx context.Context, path string) (string, error) {
	// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D]
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", fmt.Sprintf("%d", e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		msg := strings.TrimSpace(truncate(string(errb), 300))
		if msg == "" {
			return "", fmt.Errorf("%w: tesseract: %v", ErrExtraction, err)
		}
		return "", fmt.Errorf("%w: tesseract: %v: %s", ErrExtraction, err, msg)
	}
	return string(out), nil
}

func isImage(mimeType string) bool {
	_, ok := imageTypes[mimeType]
	return ok
}

func baseMime(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
