package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllowResetsAfterAMinute(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 2})
	defer rl.Stop()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatalf("first two requests must pass")
	}
	if rl.Allow("a") {
		t.Fatalf("third request within a minute must be refused")
	}
	if !rl.Allow("b") {
		t.Fatalf("clients are limited independently")
	}

	now = now.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatalf("window did not reset")
	}
	if rl.Rejected() != 1 {
		t.Fatalf("Rejected = %d, want 1", rl.Rejected())
	}

	now = now.Add(11 * time.Minute)
	rl.cleanupStaleEntries()
	if rl.ActiveClients() != 0 {
		t.Fatalf("stale clients kept: %d", rl.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()
	h := rl.Middleware(func(*http.Request) string { return "x" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	codes := []int{}
	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/", nil))
		codes = append(codes, rr.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v", codes)
	}
}
