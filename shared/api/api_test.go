package api

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBearerToken(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"Bearer abc":       "abc",
		"bearer abc ":      "abc",
		"Basic dXNlcjpwdw": "",
		"Bearer ":          "",
	}
	for header, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		if got := BearerToken(r); got != want {
			t.Errorf("BearerToken(%q) = %q, want %q", header, got, want)
		}
	}
}

func TestLoggingMiddlewareRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	h := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteForbidden(w, "nope")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/admin/notifications/clear", nil))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d", rec.Code)
	}
	line := buf.String()
	if !strings.Contains(line, "PATCH") || !strings.Contains(line, "/api/admin/notifications/clear") || !strings.Contains(line, "403") {
		t.Fatalf("log line = %q", line)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/tl/agents/a1/increment", nil))

	if called {
		t.Fatal("preflight reached the handler")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Fatalf("allowed methods = %q", rec.Header().Get("Access-Control-Allow-Methods"))
	}
}
