package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/knoguchi/pokedex/internal/answer"
	"github.com/knoguchi/pokedex/internal/auth"
	"github.com/knoguchi/pokedex/internal/repository"
	"github.com/knoguchi/pokedex/internal/search"
)

type fakeRetriever struct {
	results []search.ScoredResult
	err     error

	lastQuery string
	lastLimit int
	lastMode  search.Mode
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, limit int, mode search.Mode) ([]search.ScoredResult, error) {
	f.lastQuery = query
	f.lastLimit = limit
	f.lastMode = mode
	return f.results, f.err
}

type fakeAnswerService struct {
	answer *answer.Answer
	err    error
}

func (f *fakeAnswerService) Answer(ctx context.Context, query string, limit int, mode search.Mode) (*answer.Answer, error) {
	return f.answer, f.err
}

const testAPIKey = "test-api-key"

func newTestServer(t *testing.T, retriever *fakeRetriever, answers *fakeAnswerService) *HTTPServer {
	return newTestServerWithKey(t, testAPIKey, retriever, answers)
}

func newTestServerWithKey(t *testing.T, apiKey string, retriever *fakeRetriever, answers *fakeAnswerService) *HTTPServer {
	t.Helper()

	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: "test-secret",
		Expiry: time.Hour,
		Issuer: "pokedex-service",
	})
	authz := auth.NewMiddleware(apiKey, jwtManager)
	handler := NewHandler(retriever, answers, authz, jwtManager, 5, nil)

	return NewHTTPServer(HTTPServerConfig{
		Port:    0,
		Handler: handler,
		Auth:    authz,
	})
}

func doJSON(t *testing.T, srv *HTTPServer, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func apiKeyHeader() map[string]string {
	return map[string]string{auth.APIKeyHeader: testAPIKey}
}

func testResults() []search.ScoredResult {
	return []search.ScoredResult{
		{
			Record:    repository.Pokemon{ID: 2, Name: "Ivysaur", Type: "grass poison", Info: "bud"},
			Relevance: 0.9,
			Rank:      1,
		},
		{
			Record:    repository.Pokemon{ID: 1, Name: "Bulbasaur", Type: "grass poison", Info: "seed"},
			Relevance: 0.2,
			Rank:      2,
		},
	}
}

func TestSearch_OK(t *testing.T) {
	retriever := &fakeRetriever{results: testResults()}
	srv := newTestServer(t, retriever, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search",
		map[string]any{"query": "grass poison", "limit": 2, "mode": "hybrid"}, apiKeyHeader())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if retriever.lastQuery != "grass poison" || retriever.lastLimit != 2 || retriever.lastMode != search.ModeHybrid {
		t.Errorf("retriever called with %q/%d/%s", retriever.lastQuery, retriever.lastLimit, retriever.lastMode)
	}

	var resp searchResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Rank != 1 || resp.Results[0].Record.Name != "Ivysaur" {
		t.Errorf("unexpected first result: %+v", resp.Results[0])
	}
}

func TestSearch_DefaultsLimitAndMode(t *testing.T) {
	retriever := &fakeRetriever{}
	srv := newTestServer(t, retriever, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search",
		map[string]any{"query": "pikachu"}, apiKeyHeader())

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if retriever.lastLimit != 5 {
		t.Errorf("expected default limit 5, got %d", retriever.lastLimit)
	}
	if retriever.lastMode != search.ModeHybrid {
		t.Errorf("expected default mode hybrid, got %s", retriever.lastMode)
	}
}

func TestSearch_BadRequests(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search", map[string]any{"limit": 5}, apiKeyHeader())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query: expected 400, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/search", bytes.NewBufferString("{not json"))
	req.Header.Set(auth.APIKeyHeader, testAPIKey)
	rec2 := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", rec2.Code)
	}
}

func TestSearch_InvalidModeIs400(t *testing.T) {
	retriever := &fakeRetriever{err: search.ErrInvalidMode}
	srv := newTestServer(t, retriever, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search",
		map[string]any{"query": "q", "mode": "semantic"}, apiKeyHeader())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestSearch_DependencyFailureIs502(t *testing.T) {
	for name, err := range map[string]error{
		"index":     &search.IndexUnavailableError{Index: search.SourceLexical, Err: errors.New("down")},
		"embedding": &search.EmbeddingError{Err: errors.New("model missing")},
		"rerank":    &search.RerankError{Err: errors.New("oracle down")},
	} {
		srv := newTestServer(t, &fakeRetriever{err: err}, &fakeAnswerService{})
		rec := doJSON(t, srv, http.MethodPost, "/v1/search",
			map[string]any{"query": "q"}, apiKeyHeader())
		if rec.Code != http.StatusBadGateway {
			t.Errorf("%s failure: expected 502, got %d", name, rec.Code)
		}
	}
}

func TestSearch_UnknownFailureIs500(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{err: errors.New("boom")}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search",
		map[string]any{"query": "q"}, apiKeyHeader())
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}

func TestSearch_RequiresAuth(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search", map[string]any{"query": "q"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/search", map[string]any{"query": "q"},
		map[string]string{auth.APIKeyHeader: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: expected 401, got %d", rec.Code)
	}
}

func TestTokenFlow(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/token", map[string]any{"api_key": testAPIKey}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/search", map[string]any{"query": "q"},
		map[string]string{"Authorization": "Bearer " + resp.Token})
	if rec.Code != http.StatusOK {
		t.Errorf("JWT auth: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthDisabled_TokenAndSearchBothOpen(t *testing.T) {
	srv := newTestServerWithKey(t, "", &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/search", map[string]any{"query": "q"}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth: expected open search, got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/v1/auth/token", map[string]any{"api_key": ""}, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("disabled auth: expected token endpoint to issue, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp tokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode token response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestToken_WrongKey(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodPost, "/v1/auth/token", map[string]any{"api_key": "wrong"}, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAnswer_OK(t *testing.T) {
	answers := &fakeAnswerService{answer: &answer.Answer{
		Text:    "Ivysaur and Bulbasaur are Grass/Poison Pokemon.",
		Sources: testResults(),
	}}
	srv := newTestServer(t, &fakeRetriever{}, answers)

	rec := doJSON(t, srv, http.MethodPost, "/v1/answer",
		map[string]any{"query": "grass poison"}, apiKeyHeader())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp answerResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer == "" {
		t.Error("expected an answer")
	}
	if len(resp.Sources) != 2 {
		t.Errorf("expected 2 sources, got %d", len(resp.Sources))
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz_NoReadier(t *testing.T) {
	srv := newTestServer(t, &fakeRetriever{}, &fakeAnswerService{})

	rec := doJSON(t, srv, http.MethodGet, "/readyz", nil, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
