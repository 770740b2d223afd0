package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestRateLimitUploadsPerClient(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })

	r := gin.New()
	r.POST("/api/v1/documents", RateLimit(RateLimitRule{Rate: 1, Burst: 2}, limiter), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
		req.RemoteAddr = ip + ":1234"
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		return resp
	}

	for i := 0; i < 2; i++ {
		if resp := send("10.0.0.1"); resp.Code != http.StatusCreated {
			t.Fatalf("request %d expected 201, got %d", i+1, resp.Code)
		}
	}

	resp := send("10.0.0.1")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.Code)
	}
	if resp.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After 1, got %q", resp.Header().Get("Retry-After"))
	}

	if resp := send("10.0.0.2"); resp.Code != http.StatusCreated {
		t.Fatalf("other client expected 201, got %d", resp.Code)
	}

	now = now.Add(time.Second)
	if resp := send("10.0.0.1"); resp.Code != http.StatusCreated {
		t.Fatalf("refilled request expected 201, got %d", resp.Code)
	}
}

func TestRateLimiterZeroRuleAllows(t *testing.T) {
	limiter := NewRateLimiter(nil)
	for i := 0; i < 100; i++ {
		if ok, _ := limiter.Allow("k", RateLimitRule{}); !ok {
			t.Fatalf("expected zero rule to allow")
		}
	}
}

func TestRateLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(func() time.Time { return now })
	rule := RateLimitRule{Rate: 1, Burst: 1}

	limiter.Allow("a", rule)
	limiter.Allow("b", rule)
	if limiter.size() != 2 {
		t.Fatalf("expected 2 buckets, got %d", limiter.size())
	}

	now = now.Add(2 * bucketIdleTTL)
	limiter.Allow("c", rule)
	if limiter.size() != 1 {
		t.Fatalf("expected idle buckets swept, got %d", limiter.size())
	}
}
