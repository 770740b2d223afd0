package analysis

import (
	"time"

	"documind-backend/internal/documents"
	"documind-backend/internal/extraction"
	"documind-backend/internal/textmetrics"
)

// OutcomeResponse is the outward-facing result of one analysis.
type OutcomeResponse struct {
	DocumentID    int64                `json:"documentId,omitempty"`
	UploadedAt    *time.Time           `json:"uploadedAt,omitempty"`
	FileName      string               `json:"fileName"`
	MimeType      string               `json:"mimeType"`
	Category      string               `json:"category"`
	Confidence    float64              `json:"confidence"`
	ConfidencePct string               `json:"confidencePct"`
	ExtractedText string               `json:"extractedText"`
	Summary       string               `json:"summary"`
	SummaryStatus string               `json:"summaryStatus"`
	Fields        extraction.Result    `json:"fields"`
	Metrics       *textmetrics.Metrics `json:"metrics"`
	AvgWordLength string               `json:"avgWordLength,omitempty"`
	OCRMethod     string               `json:"ocrMethod"`
	Pages         int                  `json:"pages"`
}

// ToResponse converts an outcome for JSON output.
func ToResponse(out Outcome) OutcomeResponse {
	resp := OutcomeResponse{
		DocumentID:    out.Record.ID,
		FileName:      out.Record.FileName,
		MimeType:      out.Record.MimeType,
		Category:      out.Record.Category,
		Confidence:    out.Record.Confidence,
		ConfidencePct: documents.ConfidencePct(out.Record.Confidence),
		ExtractedText: out.Record.ExtractedText,
		Summary:       out.Summary.Text,
		SummaryStatus: string(out.Summary.Status),
		Fields:        out.Fields,
		Metrics:       out.Metrics,
		OCRMethod:     out.OCR.Method,
		Pages:         out.OCR.Pages,
	}
	if resp.Fields == nil {
		resp.Fields = extraction.Result{}
	}
	if !out.Record.UploadedAt.IsZero() {
		ts := out.Record.UploadedAt
		resp.UploadedAt = &ts
	}
	if out.Metrics != nil {
		resp.AvgWordLength = out.Metrics.AvgWordLengthLabel()
	}
	return resp
}
