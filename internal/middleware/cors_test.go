package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestCORSMiddleware はCORSヘッダーの付与とプリフライト応答をテストする。
func TestCORSMiddleware(t *testing.T) {
	const origin = "http://localhost:3000"

	t.Run("通常リクエスト", func(t *testing.T) {
		handler := NewCORSMiddleware(origin)(newOKHandler())

		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("expected origin %s, got %s", origin, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("expected credentials true, got %s", got)
		}
	})

	t.Run("OPTIONSプリフライト", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		handler := NewCORSMiddleware(origin)(next)

		req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
		if called {
			t.Error("next handler should not be called for preflight")
		}
	})
}

// TestSecurityHeadersMiddleware はセキュリティヘッダーの付与をテストする。
func TestSecurityHeadersMiddleware(t *testing.T) {
	handler := NewSecurityHeadersMiddleware()(newOKHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, value := range want {
		if got := rec.Header().Get(header); got != value {
			t.Errorf("%s: expected %s, got %s", header, value, got)
		}
	}
}
