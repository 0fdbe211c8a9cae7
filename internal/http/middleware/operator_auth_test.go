package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestOperatorJWTMissingSecret(t *testing.T) {
	mw := OperatorJWT("")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOperatorJWTMissingHeader(t *testing.T) {
	mw := OperatorJWT("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOperatorJWTWrongSecret(t *testing.T) {
	mw := OperatorJWT("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	req.Header.Set("Authorization", "Bearer "+signedOperatorToken(t, "wrong", "dr-admin", time.Now().Add(5*time.Minute)))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOperatorJWTExpiredToken(t *testing.T) {
	mw := OperatorJWT("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	req.Header.Set("Authorization", "Bearer "+signedOperatorToken(t, "secret", "dr-admin", time.Now().Add(-time.Minute)))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOperatorJWTMissingSubject(t *testing.T) {
	mw := OperatorJWT("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	req.Header.Set("Authorization", "Bearer "+signedOperatorToken(t, "secret", "", time.Now().Add(5*time.Minute)))
	rec := httptest.NewRecorder()

	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestOperatorJWTValidToken(t *testing.T) {
	mw := OperatorJWT("secret")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/outreach/run", nil)
	req.Header.Set("Authorization", "Bearer "+signedOperatorToken(t, "secret", "dr-admin", time.Now().Add(5*time.Minute)))
	rec := httptest.NewRecorder()

	called := false
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		operator, ok := OperatorFromContext(r.Context())
		if !ok || operator != "dr-admin" {
			t.Fatalf("expected operator subject in context, got %q ok=%v", operator, ok)
		}
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected handler to be called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func signedOperatorToken(t *testing.T, secret, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
