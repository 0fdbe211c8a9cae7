package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func corsHandler(t *testing.T, origins []string, method, origin, requestMethod string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/api/v1/campaigns", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if requestMethod != "" {
		req.Header.Set("Access-Control-Request-Method", requestMethod)
	}
	rec := httptest.NewRecorder()
	CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)
	return rec
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	rec := corsHandler(t, []string{"https://staff.example.com"}, http.MethodGet, "https://staff.example.com", "")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://staff.example.com" {
		t.Fatalf("expected origin echoed back, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Fatalf("expected API method list, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected request to pass through, got %d", rec.Code)
	}
}

func TestCORSRejectsUnknownOrigin(t *testing.T) {
	rec := corsHandler(t, []string{"https://staff.example.com"}, http.MethodGet, "https://evil.example.com", "")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow header for unknown origin, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("expected Vary: Origin even when denied, got %q", got)
	}
}

func TestCORSWildcardEchoesOrigin(t *testing.T) {
	rec := corsHandler(t, []string{"*"}, http.MethodGet, "https://anywhere.example.com", "")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://anywhere.example.com" {
		t.Fatalf("expected wildcard to echo the origin, got %q", got)
	}
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	rec := corsHandler(t, []string{"https://staff.example.com"}, http.MethodOptions, "https://staff.example.com", "POST")

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected preflight 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Authorization, Content-Type" {
		t.Fatalf("expected preflight header list, got %q", got)
	}
}

func TestCORSIgnoresNonBrowserRequests(t *testing.T) {
	rec := corsHandler(t, []string{"https://staff.example.com"}, http.MethodGet, "", "")

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no CORS headers without an Origin, got %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "" {
		t.Fatalf("expected no Vary header without an Origin, got %q", got)
	}
}
