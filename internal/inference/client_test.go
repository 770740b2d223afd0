package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var echoSchema = MustCompileSchema("echo.json", `{
  "type": "object",
  "required": ["label"],
  "properties": {"label": {"type": "string"}}
}`)

func TestPostDecodesValidResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["text"] != "hello" {
			t.Fatalf("unexpected body %v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"label":"LABEL_1"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	var out struct {
		Label string `json:"label"`
	}
	if err := c.Post(context.Background(), "/classify", map[string]string{"text": "hello"}, echoSchema, &out); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if out.Label != "LABEL_1" {
		t.Fatalf("unexpected label %q", out.Label)
	}
}

func TestPostRejectsSchemaMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"label": 3}`))
	}))
	defer srv.Close()

	var out map[string]any
	err := NewClient(srv.URL, time.Second).Post(context.Background(), "/classify", nil, echoSchema, &out)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if ShouldRetry(err) {
		t.Fatalf("schema mismatch should not be retried")
	}
}

func TestPostMapsMissingModelToUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"model directory not found"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, time.Second).Post(context.Background(), "/classify", nil, nil, nil)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Message != "model directory not found" {
		t.Fatalf("expected status error with message, got %v", err)
	}
}

func TestPostWithoutEndpoint(t *testing.T) {
	err := NewClient("", time.Second).Post(context.Background(), "/classify", nil, nil, nil)
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRetryRecoversFromServerError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), "classify", func(ctx context.Context) error {
		calls++
		if calls == 1 {
			return &StatusError{Path: "/classify", Status: http.StatusBadGateway}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetrySkipsUnavailable(t *testing.T) {
	calls := 0
	_ = Retry(context.Background(), "classify", func(ctx context.Context) error {
		calls++
		return &StatusError{Path: "/classify", Status: http.StatusServiceUnavailable}
	})
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).Ready(context.Background()); err != nil {
		t.Fatalf("Ready: %v", err)
	}
}
