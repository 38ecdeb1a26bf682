package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePassesThroughStatus(t *testing.T) {
	handler := MetricsMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStatusRecorderImplicitOK(t *testing.T) {
	inner := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: inner, status: http.StatusOK}

	sr.Write([]byte("ok"))
	if sr.status != http.StatusOK || !sr.written {
		t.Errorf("recorder = %+v", sr)
	}

	// A late WriteHeader must not override the recorded status
	sr.WriteHeader(http.StatusInternalServerError)
	if sr.status != http.StatusOK {
		t.Errorf("status overridden to %d", sr.status)
	}
}

func TestWrapHandler(t *testing.T) {
	handler := WrapHandler("test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
