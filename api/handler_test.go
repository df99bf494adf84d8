package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yourusername/pacer/pkg/pacer"
)

func newTestHandler(t *testing.T, capacity int64) *Handler {
	t.Helper()
	limiter, err := pacer.NewRateLimiter(
		pacer.WithDefaults(capacity, 1, time.Hour),
	)
	if err != nil {
		t.Fatalf("NewRateLimiter() failed: %v", err)
	}
	return NewHandler(limiter)
}

func doCheck(t *testing.T, handler *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(body))
	handler.CheckRateLimit(rec, req)
	return rec
}

func TestHandler_CheckRateLimit(t *testing.T) {
	handler := newTestHandler(t, 2)

	rec := doCheck(t, handler, `{"client_id": "user-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp CheckResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Allowed {
		t.Error("first check should be allowed")
	}
	if resp.Limit != 2 || resp.Remaining != 1 {
		t.Errorf("limit/remaining = %d/%d, want 2/1", resp.Limit, resp.Remaining)
	}
}

func TestHandler_WeightedCheck(t *testing.T) {
	handler := newTestHandler(t, 10)

	rec := doCheck(t, handler, `{"client_id": "user-1", "tokens": 7}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp CheckResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Remaining != 3 {
		t.Errorf("remaining = %d, want 3", resp.Remaining)
	}
}

func TestHandler_RateLimitedCheck(t *testing.T) {
	handler := newTestHandler(t, 1)

	doCheck(t, handler, `{"client_id": "user-1"}`)
	rec := doCheck(t, handler, `{"client_id": "user-1"}`)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var resp CheckResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Allowed {
		t.Error("drained bucket check should be denied")
	}
	if resp.RetryAfterMs <= 0 {
		t.Errorf("retry_after_ms = %d, want positive", resp.RetryAfterMs)
	}
}

func TestHandler_BadRequests(t *testing.T) {
	handler := newTestHandler(t, 10)

	tests := []struct {
		name       string
		method     string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "wrong method",
			method:     http.MethodGet,
			body:       "",
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "method_not_allowed",
		},
		{
			name:       "invalid json",
			method:     http.MethodPost,
			body:       "{not json",
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_request",
		},
		{
			name:       "missing client id",
			method:     http.MethodPost,
			body:       `{"tokens": 1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "missing_client_id",
		},
		{
			name:       "negative tokens",
			method:     http.MethodPost,
			body:       `{"client_id": "user-1", "tokens": -3}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid_tokens",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/check", strings.NewReader(tt.body))
			handler.CheckRateLimit(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Error != tt.wantError {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantError)
			}
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	MetricsHandler(prometheus.NewRegistry()).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
