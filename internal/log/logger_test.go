package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"DEBUG", slog.LevelDebug},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil || got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Output: &buf}).WithComponent(ComponentBot)

	l.Info("Transaction recorded", NewFields().WithTransaction(-20000, "food").WithError(errors.New("x")).ToSlice()...)
	l.Debug("hidden")

	out := buf.String()
	for _, want := range []string{"component=bot", "amount=-20000", "category=food", "error=x"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record written at info level: %q", out)
	}
}

func TestMiddlewareStoresLogger(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Output: &buf})

	var got *Logger
	h := Middleware(base, ComponentHTTP)(
		RequestIDMiddleware(func(*http.Request) string { return "req_1" })(
			http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = FromContext(r.Context())
				got.InfoContext(r.Context(), "handled")
			})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got == nil || got.Component() != ComponentHTTP {
		t.Fatalf("context logger = %+v", got)
	}
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("log output %q missing request id", buf.String())
	}
	if FromContext(context.Background()).Component() != ComponentApp {
		t.Fatalf("FromContext without logger should fall back to default")
	}
}
