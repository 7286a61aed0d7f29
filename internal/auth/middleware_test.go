package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequire_APIKey(t *testing.T) {
	m := NewMiddleware("secret-key", NewJWTManager(DefaultJWTConfig("jwt-secret")))
	handler := m.Require(protectedHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "secret-key")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key: expected 200, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(APIKeyHeader, "wrong")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: expected 401, got %d", rec.Code)
	}
}

func TestAuthDisabled_ConsistentAcrossRequireAndAuthenticate(t *testing.T) {
	m := NewMiddleware("", NewJWTManager(DefaultJWTConfig("jwt-secret")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	m.Require(protectedHandler()).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth: expected Require to pass, got %d", rec.Code)
	}

	// The token endpoint must not reject clients that Require would admit.
	if !m.Authenticate("") {
		t.Error("disabled auth: expected Authenticate to pass with no key")
	}
	if !m.Authenticate("anything") {
		t.Error("disabled auth: expected Authenticate to pass with any key")
	}
}

func TestAuthenticate_EnabledKey(t *testing.T) {
	m := NewMiddleware("secret-key", nil)

	if !m.Authenticate("secret-key") {
		t.Error("expected matching key to pass")
	}
	if m.Authenticate("wrong") {
		t.Error("expected wrong key to fail")
	}
	if m.Authenticate("") {
		t.Error("expected empty key to fail when a key is configured")
	}
}
