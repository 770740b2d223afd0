package documents

import "time"

// Record is one archived document. Records are never updated in place.
type Record struct {
	ID            int64
	UploadedAt    time.Time
	FileName      string
	MimeType      string
	SizeBytes     int64
	Checksum      string
	StorageKey    string
	Category      string
	Confidence    float64
	ExtractedText string
	Summary       string

	// File holds the original bytes on insert. Stored records keep only the
	// object-store key.
	File []byte
}

// Filter narrows a history listing. A zero Limit means no limit; Offset is
// only honored together with a Limit.
type Filter struct {
	Category string
	Limit    int
	Offset   int
}

// CategoryCount is the number of archived documents for one category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// TrendPoint is one confidence sample in upload order.
type TrendPoint struct {
	ID         int64     `json:"documentId"`
	UploadedAt time.Time `json:"uploadedAt"`
	Category   string    `json:"category"`
	Confidence float64   `json:"confidence"`
}

// Analytics aggregates the archive for the dashboard.
type Analytics struct {
	Total           int             `json:"total"`
	Categories      []CategoryCount `json:"categories"`
	ConfidenceTrend []TrendPoint    `json:"confidenceTrend"`
}
