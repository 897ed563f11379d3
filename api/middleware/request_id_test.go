package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestRequestIDPropagatesCallerValue(t *testing.T) {
	var seen string
	handler := RequestID(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-abc-123")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if seen != "req-abc-123" {
		t.Fatalf("expected caller id in context, got %q", seen)
	}
	if got := resp.Header().Get(RequestIDHeader); got != "req-abc-123" {
		t.Fatalf("expected caller id echoed, got %q", got)
	}
}

func TestRequestIDReplacesInvalidValues(t *testing.T) {
	for name, value := range map[string]string{
		"missing":  "",
		"too long": strings.Repeat("a", maxRequestIDLength+1),
		"spaces":   "two words",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if value != "" {
				req.Header.Set(RequestIDHeader, value)
			}
			resp := httptest.NewRecorder()
			RequestID(nil)(okHandler()).ServeHTTP(resp, req)
			if _, err := uuid.Parse(resp.Header().Get(RequestIDHeader)); err != nil {
				t.Fatalf("expected generated uuid, got %q", resp.Header().Get(RequestIDHeader))
			}
		})
	}
}

func TestRecovererReturnsInternalError(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
	if strings.Contains(resp.Body.String(), "boom") {
		t.Fatalf("panic value must not leak: %s", resp.Body.String())
	}
}

func TestRecovererReraisesAbort(t *testing.T) {
	handler := Recoverer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))
	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
