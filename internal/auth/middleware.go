package auth

import (
	"context"
	"net/http"
	"strings"
)

const (
	// APIKeyHeader is the header carrying the static API key.
	APIKeyHeader = "X-API-Key"

	// authorizationHeader carries a Bearer JWT issued by the token endpoint.
	authorizationHeader = "Authorization"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const subjectContextKey contextKey = "subject"

// Middleware authenticates requests with either the static API key or a
// Bearer JWT. An empty configured key disables authentication, which keeps
// local development friction-free.
type Middleware struct {
	apiKey string
	jwt    *JWTManager
}

// NewMiddleware creates authentication middleware.
func NewMiddleware(apiKey string, jwtManager *JWTManager) *Middleware {
	return &Middleware{apiKey: apiKey, jwt: jwtManager}
}

// Require wraps a handler and rejects unauthenticated requests with 401.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.apiKey == "" {
			next.ServeHTTP(w, r)
			return
		}

		if key := strings.TrimSpace(r.Header.Get(APIKeyHeader)); key != "" {
			if key != m.apiKey {
				http.Error(w, "invalid API key", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), "api-key")))
			return
		}

		if bearer := r.Header.Get(authorizationHeader); bearer != "" {
			token := strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer"))
			claims, err := m.jwt.VerifyToken(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(withSubject(r.Context(), claims.Subject)))
			return
		}

		http.Error(w, "missing credentials", http.StatusUnauthorized)
	})
}

// Authenticate checks the static API key. Used by the token endpoint. An
// empty configured key disables authentication here too, matching Require, so
// the token flow keeps working in development.
func (m *Middleware) Authenticate(apiKey string) bool {
	return m.apiKey == "" || apiKey == m.apiKey
}

func withSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectContextKey, subject)
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(subjectContextKey).(string)
	return subject, ok
}
