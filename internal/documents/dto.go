package documents

import (
	"time"

	"documind-backend/internal/extraction"
	"documind-backend/internal/textmetrics"
)

// HistoryItem is one row of the history table.
type HistoryItem struct {
	DocumentID    int64     `json:"documentId"`
	UploadedAt    time.Time `json:"uploadedAt"`
	FileName      string    `json:"fileName"`
	Category      string    `json:"category"`
	Confidence    float64   `json:"confidence"`
	ConfidencePct string    `json:"confidencePct"`
	Summary       string    `json:"summary"`
}

// DocumentResponse is the detail view of an archived document. Fields and
// metrics are derived from the extracted text on every request.
type DocumentResponse struct {
	HistoryItem
	MimeType      string               `json:"mimeType"`
	SizeBytes     int64                `json:"sizeBytes"`
	Checksum      string               `json:"checksum"`
	ExtractedText string               `json:"extractedText"`
	Fields        extraction.Result    `json:"fields"`
	Metrics       *textmetrics.Metrics `json:"metrics"`
	AvgWordLength string               `json:"avgWordLength,omitempty"`
}

type deleteRequest struct {
	IDs []int64 `json:"ids"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Deleted int    `json:"deleted"`
	Error   string `json:"error,omitempty"`
}

// ToHistoryItem converts a record to its history row.
func ToHistoryItem(rec Record) HistoryItem {
	return HistoryItem{
		DocumentID:    rec.ID,
		UploadedAt:    rec.UploadedAt,
		FileName:      rec.FileName,
		Category:      rec.Category,
		Confidence:    rec.Confidence,
		ConfidencePct: ConfidencePct(rec.Confidence),
		Summary:       rec.Summary,
	}
}

func toDocumentResponse(rec Record, fields extraction.Result) DocumentResponse {
	if fields == nil {
		fields = extraction.Result{}
	}
	resp := DocumentResponse{
		HistoryItem:   ToHistoryItem(rec),
		MimeType:      rec.MimeType,
		SizeBytes:     rec.SizeBytes,
		Checksum:      rec.Checksum,
		ExtractedText: rec.ExtractedText,
		Fields:        fields,
		Metrics:       textmetrics.Calculate(rec.ExtractedText),
	}
	if resp.Metrics != nil {
		resp.AvgWordLength = resp.Metrics.AvgWordLengthLabel()
	}
	return resp
}
