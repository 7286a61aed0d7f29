package reranker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// rerankRequest is the request payload for the rerank endpoint.
type rerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

// rerankResult is a single result in the rerank response.
type rerankResult struct {
	Index int     `json:"index"`
	Score float32 `json:"score"`
}

// rerankResponse is the response from the rerank endpoint.
type rerankResponse struct {
	Results []rerankResult `json:"results"`
	Model   string         `json:"model"`
}

// HTTPReranker scores candidates via a cross-encoder inference service
// exposing POST /v1/rerank. The service may return results in any order;
// scores are mapped back to input order by index.
type HTTPReranker struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewHTTPReranker constructs a reranker client. If httpClient is nil a
// default client with the given timeout is created.
func NewHTTPReranker(baseURL, model string, timeout time.Duration, httpClient *http.Client) *HTTPReranker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &HTTPReranker{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  httpClient,
	}
}

// ScoreBatch scores every (query, doc) pair in one request and returns one
// score per doc in input order.
func (r *HTTPReranker) ScoreBatch(ctx context.Context, query string, docs []string) ([]float32, error) {
	if len(docs) == 0 {
		return []float32{}, nil
	}

	reqBody := rerankRequest{
		Query:      query,
		Candidates: docs,
		Model:      r.model,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", r.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("failed to decode rerank response: %w", err)
	}

	scores := make([]float32, len(docs))
	seen := make([]bool, len(docs))
	for _, res := range rerankResp.Results {
		if res.Index < 0 || res.Index >= len(docs) {
			return nil, fmt.Errorf("invalid result index %d for %d candidates", res.Index, len(docs))
		}
		if seen[res.Index] {
			return nil, fmt.Errorf("duplicate result index %d", res.Index)
		}
		seen[res.Index] = true
		scores[res.Index] = res.Score
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing score for candidate %d", i)
		}
	}

	return scores, nil
}

// ModelName returns the cross-encoder model identifier.
func (r *HTTPReranker) ModelName() string {
	return r.model
}
