package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"documind-backend/internal/classify"
	"documind-backend/internal/documents"
	"documind-backend/internal/ocr"
	"documind-backend/internal/shared/server/middleware"
	"documind-backend/internal/shared/storage/object/local"
)

func newUploadRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if name != "" {
		fileWriter, err := writer.CreateFormFile("file", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fileWriter.Write(data); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func newAnalyzeRouter(h *harness) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	NewHandler(h.proc, nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestAnalyzeCreatesDocument(t *testing.T) {
	h := newHarness(t, invoiceText)
	router := newAnalyzeRouter(h)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, newUploadRequest(t, "bill.png", pngBytes))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var body struct {
		DocumentID    int64          `json:"documentId"`
		Category      string         `json:"category"`
		ConfidencePct string         `json:"confidencePct"`
		SummaryStatus string         `json:"summaryStatus"`
		Fields        map[string]any `json:"fields"`
		Metrics       map[string]any `json:"metrics"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.DocumentID == 0 || body.Category != "invoice" || body.ConfidencePct != "91.00%" {
		t.Fatalf("unexpected body: %+v", body)
	}
	if body.Fields["Total Amount"] != "$1,200.50" {
		t.Fatalf("unexpected fields: %v", body.Fields)
	}
	if body.SummaryStatus != "too_short" || body.Metrics == nil {
		t.Fatalf("unexpected summary/metrics: %+v", body)
	}
}

func TestAnalyzeErrorStatuses(t *testing.T) {
	cases := []struct {
		name       string
		setup      func(h *harness)
		fileName   string
		wantStatus int
		wantCode   string
	}{
		{"missing file", nil, "", http.StatusBadRequest, string(KindInvalidInput)},
		{"no text", func(h *harness) { h.ocr.err = ocr.ErrNoText }, "a.png", http.StatusUnprocessableEntity, string(KindNoTextFound)},
		{"extraction", func(h *harness) { h.ocr.err = fmt.Errorf("%w: tesseract exited 1", ocr.ErrExtraction) }, "a.png", http.StatusUnprocessableEntity, string(KindExtractionFailed)},
		{"model unavailable", func(h *harness) { h.clf.err = classify.ErrModelUnavailable }, "a.png", http.StatusServiceUnavailable, string(KindModelUnavailable)},
		{"storage", func(h *harness) { h.proc.Archive = failingArchive{} }, "a.png", http.StatusInternalServerError, string(KindStorage)},
		{"storage timeout", func(h *harness) {
			h.proc.Archive = &documents.Service{Store: local.New(t.TempDir()), Repo: timeoutRepo{documents.NewMemoryRepo()}}
		}, "a.png", http.StatusInternalServerError, string(KindStorage)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, invoiceText)
			if tc.setup != nil {
				tc.setup(h)
			}
			router := newAnalyzeRouter(h)

			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, newUploadRequest(t, tc.fileName, pngBytes))

			if resp.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, resp.Code)
			}
			var env errorEnvelope
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode || env.Error.Message == "" {
				t.Fatalf("unexpected error body: %+v", env)
			}
		})
	}
}
