package reranker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/knoguchi/pokedex/internal/llm"
)

// LLMReranker scores query-document pairs by prompting a general LLM for
// structured JSON scores. All documents are scored in one prompt.
type LLMReranker struct {
	llmClient llm.LLM
	model     string
}

// LLMRerankerOption is a functional option for configuring LLMReranker.
type LLMRerankerOption func(*LLMReranker)

// WithModel sets the model to use for reranking.
func WithModel(model string) LLMRerankerOption {
	return func(r *LLMReranker) {
		r.model = model
	}
}

// NewLLMReranker creates a new LLM-based reranker.
func NewLLMReranker(llmClient llm.LLM, opts ...LLMRerankerOption) *LLMReranker {
	r := &LLMReranker{
		llmClient: llmClient,
		model:     llm.DefaultModel,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// relevanceScore represents the structured output from the LLM.
type relevanceScore struct {
	DocIndex int     `json:"doc_index"`
	Score    float32 `json:"score"`
}

type scoreResponse struct {
	Scores []relevanceScore `json:"scores"`
}

// ScoreBatch scores every (query, doc) pair in one LLM call and returns one
// score per doc in input order. Malformed model output is an error, not a
// fallback.
func (r *LLMReranker) ScoreBatch(ctx context.Context, query string, docs []string) ([]float32, error) {
	if len(docs) == 0 {
		return []float32{}, nil
	}

	prompt := r.buildScoringPrompt(query, docs)

	opts := llm.GenerateOptions{
		Model:       r.model,
		Temperature: 0.0, // Deterministic scoring
		MaxTokens:   1024,
	}

	response, err := r.llmClient.Generate(ctx, prompt, opts)
	if err != nil {
		return nil, fmt.Errorf("scoring call failed: %w", err)
	}

	return parseScores(response, len(docs))
}

// ModelName returns the LLM model used for scoring.
func (r *LLMReranker) ModelName() string {
	return r.model
}

// buildScoringPrompt constructs the batched relevance-scoring prompt.
func (r *LLMReranker) buildScoringPrompt(query string, docs []string) string {
	var sb strings.Builder

	sb.WriteString("You are a relevance scoring system. Score each document's relevance to the query.\n\n")
	sb.WriteString("Query: ")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	sb.WriteString("Documents to score:\n")
	for i, doc := range docs {
		// Truncate content to avoid token limits
		if len(doc) > 500 {
			doc = doc[:500] + "..."
		}
		sb.WriteString(fmt.Sprintf("[Doc %d]: %s\n\n", i, doc))
	}

	sb.WriteString(`Score each document from 0.0 to 1.0 based on relevance to the query.
Output ONLY valid JSON in this exact format:
{"scores": [{"doc_index": 0, "score": 0.9}, {"doc_index": 1, "score": 0.3}, ...]}

Be strict: irrelevant documents should score below 0.3, somewhat relevant 0.3-0.7, highly relevant above 0.7.
Output only JSON, no explanation:`)

	return sb.String()
}

// parseScores extracts scores from the LLM response. Every doc must be scored
// exactly once; a missing, duplicate, or unknown doc_index fails the whole
// call, the same strictness the HTTP reranker applies. Scores are clamped to
// [0,1].
func parseScores(response string, numDocs int) ([]float32, error) {
	response = strings.TrimSpace(response)

	// Strip markdown code fences if present
	if idx := strings.Index(response, "```json"); idx != -1 {
		start := idx + 7
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	} else if idx := strings.Index(response, "```"); idx != -1 {
		start := idx + 3
		if end := strings.Index(response[start:], "```"); end != -1 {
			response = response[start : start+end]
		}
	}

	response = strings.TrimSpace(response)

	var parsed scoreResponse
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse scoring response: %w", err)
	}

	scores := make([]float32, numDocs)
	seen := make([]bool, numDocs)
	for _, s := range parsed.Scores {
		if s.DocIndex < 0 || s.DocIndex >= numDocs {
			return nil, fmt.Errorf("score for unknown doc index %d (%d docs)", s.DocIndex, numDocs)
		}
		if seen[s.DocIndex] {
			return nil, fmt.Errorf("duplicate score for doc index %d", s.DocIndex)
		}
		seen[s.DocIndex] = true

		score := s.Score
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		scores[s.DocIndex] = score
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("missing score for doc index %d", i)
		}
	}

	return scores, nil
}
