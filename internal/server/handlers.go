package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/knoguchi/pokedex/internal/answer"
	"github.com/knoguchi/pokedex/internal/auth"
	"github.com/knoguchi/pokedex/internal/repository"
	"github.com/knoguchi/pokedex/internal/search"
)

// AnswerService generates an LLM answer over retrieved context.
type AnswerService interface {
	Answer(ctx context.Context, query string, limit int, mode search.Mode) (*answer.Answer, error)
}

// Handler implements the /v1 API endpoints.
type Handler struct {
	retriever    answer.ContextRetriever
	answers      AnswerService
	authz        *auth.Middleware
	jwt          *auth.JWTManager
	defaultLimit int
	logger       *slog.Logger
}

// NewHandler wires the API handler.
func NewHandler(retriever answer.ContextRetriever, answers AnswerService, authz *auth.Middleware, jwt *auth.JWTManager, defaultLimit int, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultLimit <= 0 {
		defaultLimit = 5
	}
	return &Handler{
		retriever:    retriever,
		answers:      answers,
		authz:        authz,
		jwt:          jwt,
		defaultLimit: defaultLimit,
		logger:       logger,
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token exchanges the static API key for a JWT.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.authz.Authenticate(req.APIKey) {
		writeError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	token, err := h.jwt.GenerateToken("api")
	if err != nil {
		h.logger.Error("failed to issue token", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
	Mode  string `json:"mode"`
}

type resultPayload struct {
	Rank      int     `json:"rank"`
	Relevance float32 `json:"relevance"`
	Record    record  `json:"record"`
}

type record struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Height    int    `json:"height"`
	Weight    int    `json:"weight"`
	HP        int    `json:"hp"`
	Attack    int    `json:"attack"`
	Defense   int    `json:"defense"`
	SpAttack  int    `json:"s_attack"`
	SpDefense int    `json:"s_defense"`
	Speed     int    `json:"speed"`
	EvoSet    int    `json:"evo_set"`
	Info      string `json:"info"`
}

type searchResponse struct {
	Query   string          `json:"query"`
	Mode    string          `json:"mode"`
	Results []resultPayload `json:"results"`
}

// Search runs retrieval and returns the relevance-ordered results.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSearchRequest(w, r)
	if !ok {
		return
	}

	results, err := h.retriever.Retrieve(r.Context(), req.Query, req.Limit, search.Mode(req.Mode))
	if err != nil {
		h.writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:   req.Query,
		Mode:    req.Mode,
		Results: toResultPayloads(results),
	})
}

type answerResponse struct {
	Query   string          `json:"query"`
	Mode    string          `json:"mode"`
	Answer  string          `json:"answer"`
	Sources []resultPayload `json:"sources"`
}

// Answer runs retrieval and generates an LLM answer over the results.
func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeSearchRequest(w, r)
	if !ok {
		return
	}

	ans, err := h.answers.Answer(r.Context(), req.Query, req.Limit, search.Mode(req.Mode))
	if err != nil {
		h.writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, answerResponse{
		Query:   req.Query,
		Mode:    req.Mode,
		Answer:  ans.Text,
		Sources: toResultPayloads(ans.Sources),
	})
}

func (h *Handler) decodeSearchRequest(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if req.Query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return req, false
	}
	if req.Limit <= 0 {
		req.Limit = h.defaultLimit
	}
	if req.Mode == "" {
		req.Mode = string(search.ModeHybrid)
	}
	return req, true
}

// writeRetrievalError maps engine errors onto HTTP statuses: bad input is
// 400, a failing dependency is 502, anything else 500. The error text names
// the failing stage so clients can log something actionable.
func (h *Handler) writeRetrievalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, search.ErrInvalidMode), errors.Is(err, search.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, err.Error())
	case isDependencyError(err):
		h.logger.Error("retrieval dependency failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("retrieval failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func isDependencyError(err error) bool {
	var indexErr *search.IndexUnavailableError
	var embedErr *search.EmbeddingError
	var rerankErr *search.RerankError
	return errors.As(err, &indexErr) || errors.As(err, &embedErr) || errors.As(err, &rerankErr)
}

func toResultPayloads(results []search.ScoredResult) []resultPayload {
	payloads := make([]resultPayload, len(results))
	for i, res := range results {
		payloads[i] = resultPayload{
			Rank:      res.Rank,
			Relevance: res.Relevance,
			Record:    toRecord(res.Record),
		}
	}
	return payloads
}

func toRecord(p repository.Pokemon) record {
	return record{
		ID:        p.ID,
		Name:      p.Name,
		Type:      p.Type,
		Height:    p.Height,
		Weight:    p.Weight,
		HP:        p.HP,
		Attack:    p.Attack,
		Defense:   p.Defense,
		SpAttack:  p.SpAttack,
		SpDefense: p.SpDefense,
		Speed:     p.Speed,
		EvoSet:    p.EvoSet,
		Info:      p.Info,
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
