package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(2, time.Hour)
	got := []bool{rl.Allow("10.0.0.1"), rl.Allow("10.0.0.1"), rl.Allow("10.0.0.1"), rl.Allow("10.0.0.2")}
	want := []bool{true, true, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Allow #%d = %v, want %v", i+1, got[i], want[i])
		}
	}
	if n := rl.Sweep(); n != 0 {
		t.Errorf("Sweep() removed %d fresh visitors", n)
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(4, time.Second)
	rl.now = func() time.Time { return now }

	for range 4 {
		rl.Allow("10.0.0.1")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("empty bucket allowed a request")
	}

	now = now.Add(250 * time.Millisecond)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("a quarter second should refill one token")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("only one token should have refilled")
	}

	now = now.Add(time.Second)
	if n := rl.Sweep(); n != 1 {
		t.Errorf("Sweep() = %d, want the refilled bucket forgotten", n)
	}
}

func TestRateLimit_IgnoresPort(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, time.Hour))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	codes := make([]int, 0, 2)
	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.1:5001"} {
		req := httptest.NewRequest(http.MethodGet, "/api/athletes", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Errorf("second request from the same host = %d, want 429", codes[1])
	}
}

func TestRateLimit_RetryAfter(t *testing.T) {
	h := RateLimit(NewRateLimiter(1, 90*time.Second))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	var rr *httptest.ResponseRecorder
	for range 2 {
		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	}
	if got := rr.Header().Get("Retry-After"); got != "90" {
		t.Errorf("Retry-After = %q, want 90", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	for _, secure := range []bool{false, true} {
		rr := httptest.NewRecorder()
		SecurityHeaders(secure)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).
			ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		for _, h := range []string{"Content-Security-Policy", "X-Frame-Options", "X-Content-Type-Options", "Referrer-Policy"} {
			if rr.Header().Get(h) == "" {
				t.Errorf("secure=%v: missing %s", secure, h)
			}
		}
		if hsts := rr.Header().Get("Strict-Transport-Security"); (hsts != "") != secure {
			t.Errorf("secure=%v: Strict-Transport-Security = %q", secure, hsts)
		}
	}
}

func TestCSRF_JSONExempt(t *testing.T) {
	key := []byte(strings.Repeat("k", 32))
	h := CSRF(key, false, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	tests := []struct {
		name        string
		contentType string
		want        int
	}{
		{"json api", "application/json", http.StatusNoContent},
		{"json with charset", "application/json; charset=utf-8", http.StatusNoContent},
		{"json lookalike", "application/jsonp", http.StatusForbidden},
		{"form without token", "application/x-www-form-urlencoded", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("{}"))
			req.Header.Set("Content-Type", tt.contentType)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}
