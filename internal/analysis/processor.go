package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/summarize"
	"documind-backend/internal/textmetrics"
)

// TextExtractor turns a file on disk into text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (ocr.Result, error)
}

// Classifier assigns a category and confidence to text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, float64, error)
}

// FieldExtractor derives structured fields for a category.
type FieldExtractor interface {
	Extract(ctx context.Context, text, category string) extraction.Result
}

// Summarizer never fails; degraded summaries carry a placeholder text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summarize.Summary
}

// Archive persists a finished record.
type Archive interface {
	Insert(ctx context.Context, rec documents.Record) (documents.Record, error)
}

// Upload is one document submitted for analysis.
type Upload struct {
	FileName string
	MimeType string
	Data     []byte
}

// Outcome is everything produced for one document.
type Outcome struct {
	Record  documents.Record
	Fields  extraction.Result
	Metrics *textmetrics.Metrics
	Summary summarize.Summary
	OCR     ocr.Result
}

// Processor runs the pipeline for one document at a time.
type Processor struct {
	OCR        TextExtractor
	Classifier Classifier
	Fields     FieldExtractor
	Summarizer Summarizer
	// Archive may be nil, in which case outcomes are not persisted.
	Archive        Archive
	WorkDir        string
	Parallel       bool
	MaxUploadBytes int64
}

type stageResult struct {
	category   string
	confidence float64
	summary    summarize.Summary
}

// Process analyzes the upload and archives the result. Any *Error means no
// record was written.
func (p *Processor) Process(ctx context.Context, up Upload) (Outcome, error) {
	start := time.Now()
	requestID := requestIDFromContext(ctx)

	out, err := p.process(ctx, up)
	durationMs := float64(time.Since(start).Microseconds()) / 1000.0
	metrics.ObservePipelineDurationMs(durationMs)

	if err != nil {
		kind := KindOf(err)
		metrics.IncDocumentsFailed(string(kind))
		telemetry.Info("analysis.status", map[string]any{
			"request_id":  requestID,
			"file_name":   up.FileName,
			"status":      "failed",
			"kind":        string(kind),
			"error":       sanitizeError(err),
			"duration_ms": durationMs,
		})
		return Outcome{}, err
	}

	metrics.IncDocumentsProcessed()
	if out.Summary.Degraded() {
		metrics.IncSummariesDegraded()
	}
	telemetry.Info("analysis.status", map[string]any{
		"request_id":     requestID,
		"document_id":    out.Record.ID,
		"file_name":      up.FileName,
		"status":         "completed",
		"category":       out.Record.Category,
		"confidence":     out.Record.Confidence,
		"summary_status": string(out.Summary.Status),
		"ocr_method":     out.OCR.Method,
		"duration_ms":    durationMs,
	})
	return out, nil
}

func (p *Processor) process(ctx context.Context, up Upload) (Outcome, error) {
	if err := p.validate(up); err != nil {
		return Outcome{}, &Error{Kind: KindInvalidInput, Err: err}
	}

	text, err := p.extractText(ctx, up)
	if err != nil {
		return Outcome{}, err
	}

	var res stageResult
	if p.Parallel {
		res, err = p.runParallel(ctx, text.Text)
	} else {
		res, err = p.runSequential(ctx, text.Text)
	}
	if err != nil {
		return Outcome{}, err
	}

	stageStart := time.Now()
	fields := p.Fields.Extract(ctx, text.Text, res.category)
	metrics.ObserveStageDuration("fields", time.Since(stageStart))

	out := Outcome{
		Record: documents.Record{
			FileName:      up.FileName,
			MimeType:      firstNonEmpty(text.MimeType, up.MimeType),
			Category:      res.category,
			Confidence:    res.confidence,
			ExtractedText: text.Text,
			Summary:       res.summary.Text,
			File:          up.Data,
		},
		Fields:  fields,
		Metrics: textmetrics.Calculate(text.Text),
		Summary: res.summary,
		OCR:     text,
	}

	if p.Archive == nil {
		out.Record.File = nil
		return out, nil
	}

	stageStart = time.Now()
	rec, err := p.Archive.Insert(ctx, out.Record)
	metrics.ObserveStageDuration("archive", time.Since(stageStart))
	if err != nil {
		return Outcome{}, fail(KindStorage, err)
	}
	out.Record = rec
	return out, nil
}

func (p *Processor) validate(up Upload) error {
	if strings.TrimSpace(up.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidUpload)
	}
	if len(up.Data) == 0 {
		return fmt.Errorf("%w: file is empty", ErrInvalidUpload)
	}
	if p.MaxUploadBytes > 0 && int64(len(up.Data)) > p.MaxUploadBytes {
		return fmt.Errorf("%w: file exceeds %d bytes", ErrInvalidUpload, p.MaxUploadBytes)
	}
	return nil
}

// extractText writes the upload to a scratch file and runs OCR over it.
func (p *Processor) extractText(ctx context.Context, up Upload) (ocr.Result, error) {
	stageStart := time.Now()
	defer func() { metrics.ObserveStageDuration("ocr", time.Since(stageStart)) }()

	dir := p.WorkDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ocr.Result{}, &Error{Kind: KindExtractionFailed, Err: fmt.Errorf("work dir: %w", err)}
	}
	tmp, err := os.CreateTemp(dir, "upload-*"+strings.ToLower(filepath.Ext(up.FileName)))
	if err != nil {
		return ocr.Result{}, &Error{Kind: KindExtractionFailed, Err: fmt.Errorf("create temp: %w", err)}
	}
	defer os.Remove(tmp.Name())

	_, writeErr := tmp.Write(up.Data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		if writeErr == nil {
			writeErr = closeErr
		}
		return ocr.Result{}, &Error{Kind: KindExtractionFailed, Err: fmt.Errorf("write temp: %w", writeErr)}
	}

	res, err := p.OCR.Extract(ctx, tmp.Name())
	if err != nil {
		return ocr.Result{}, fail(KindExtractionFailed, err)
	}
	return res, nil
}

func (p *Processor) runSequential(ctx context.Context, text string) (stageResult, error) {
	var res stageResult
	var err error

	stageStart := time.Now()
	res.category, res.confidence, err = p.Classifier.Classify(ctx, text)
	metrics.ObserveStageDuration("classify", time.Since(stageStart))
	if err != nil {
		return stageResult{}, fail(KindClassificationFailed, err)
	}

	stageStart = time.Now()
	res.summary = p.Summarizer.Summarize(ctx, text)
	metrics.ObserveStageDuration("summarize", time.Since(stageStart))
	return res, nil
}

// runParallel classifies and summarizes concurrently. Both read the same
// immutable text.
func (p *Processor) runParallel(ctx context.Context, text string) (stageResult, error) {
	var res stageResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stageStart := time.Now()
		defer func() { metrics.ObserveStageDuration("classify", time.Since(stageStart)) }()
		category, confidence, err := p.Classifier.Classify(gctx, text)
		if err != nil {
			return fail(KindClassificationFailed, err)
		}
		res.category, res.confidence = category, confidence
		return nil
	})
	g.Go(func() error {
		stageStart := time.Now()
		defer func() { metrics.ObserveStageDuration("summarize", time.Since(stageStart)) }()
		res.summary = p.Summarizer.Summarize(gctx, text)
		return nil
	})

	if err := g.Wait(); err != nil {
		return stageResult{}, err
	}
	return res, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
