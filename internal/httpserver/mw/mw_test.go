package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrSnakeDoc/smartmark/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host    string
		pattern string
		want    bool
	}{
		{"marks.example.com", "marks.example.com", true},
		{"marks.example.com:8080", "marks.example.com", true},
		{"marks.example.com:8080", "marks.example.com:9090", false},
		{"sub.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil.com", "marks.example.com", false},
	}

	for _, tt := range tests {
		if got := matchHost(tt.host, tt.pattern); got != tt.want {
			t.Errorf("matchHost(%q, %q) = %v, want %v", tt.host, tt.pattern, got, tt.want)
		}
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"Marks.Example.com"}, logger.Nop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "marks.example.com"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("allowed host got %d", rec.Code)
	}

	req.Host = "other.example.com"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusMisdirectedRequest {
		t.Errorf("foreign host got %d, want 421", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"10.0.0.0/8"}, false, logger.Nop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"10.1.2.3:5555", http.StatusOK},
		{"192.168.1.1:5555", http.StatusForbidden},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/infra", nil)
		req.RemoteAddr = tt.remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("remote %s got %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}

	// Empty list is a passthrough.
	open := AllowOnlyCIDRS(nil, false, logger.Nop())(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/infra", nil)
	req.RemoteAddr = "192.168.1.1:5555"
	rec := httptest.NewRecorder()
	open.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("passthrough got %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 1, SweepInterval: time.Hour}, logger.Nop())(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/bookmarks", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)

		if i == 2 && rec.Header().Get("Retry-After") == "" {
			t.Error("limited response should carry Retry-After")
		}
	}

	want := []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Errorf("request %d got %d, want %d", i, codes[i], want[i])
		}
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodPost, "/bookmarks", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client got %d", rec.Code)
	}
}

func TestRateLimitHeadersReachClient(t *testing.T) {
	h := RateLimit(RateLimitConfig{Burst: 3, RefillPerIPPerMin: 1, SweepInterval: time.Hour}, logger.Nop())(okHandler)

	for i, want := range []string{"2", "1", "0"} {
		req := httptest.NewRequest(http.MethodPost, "/bookmarks", nil)
		req.RemoteAddr = "10.0.0.3:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		// Result reflects the headers as sent with WriteHeader.
		sent := rec.Result().Header
		if got := sent.Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("request %d: X-RateLimit-Limit = %q, want 3", i, got)
		}
		if got := sent.Get("X-RateLimit-Remaining"); got != want {
			t.Errorf("request %d: X-RateLimit-Remaining = %q, want %s", i, got, want)
		}
	}
}

func TestLogCapturesStatus(t *testing.T) {
	h := Log(logger.Nop(), false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}

	sw := &statusWriter{ResponseWriter: rec}
	if sw.Unwrap() != rec {
		t.Error("Unwrap should return the wrapped writer")
	}
}
