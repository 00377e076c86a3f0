package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerFallsBackToRequestID(t *testing.T) {
	var traceID string
	h := chimiddleware.RequestID(RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = TraceIDFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "given-id")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if traceID != "given-id" {
		t.Fatalf("expected trace id from request id, got %q", traceID)
	}
}

func TestAccessLoggerWritesSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), zap.New(core))))
		})
	}
	h := inject(AccessLogger()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false}`))
	})))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 access log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusInternalServerError) {
		t.Fatalf("unexpected status field %v", fields["status"])
	}
	if fields["path"] != "/health" {
		t.Fatalf("unexpected path field %v", fields["path"])
	}
	if fields["bytes"] != int64(len(`{"ok":false}`)) {
		t.Fatalf("unexpected bytes field %v", fields["bytes"])
	}
}
