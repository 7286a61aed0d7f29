// Package answer turns retrieval results into an LLM-generated Pokédex answer.
package answer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/knoguchi/pokedex/internal/llm"
	"github.com/knoguchi/pokedex/internal/search"
)

// ContextRetriever is the retrieval entry point the service consumes.
type ContextRetriever interface {
	Retrieve(ctx context.Context, query string, limit int, mode search.Mode) ([]search.ScoredResult, error)
}

// Answer is a generated response with the ordered context it was built from.
// Sources are exactly the retrieval results, in rank order; the prompt
// instructs the model not to reorder them.
type Answer struct {
	Text    string
	Sources []search.ScoredResult
}

// Service retrieves context for a query and generates an answer with the LLM.
type Service struct {
	retriever ContextRetriever
	llmClient llm.LLM
	model     string
	logger    *slog.Logger
}

// NewService wires the answer service. model selects the generation model;
// empty uses the LLM client's default.
func NewService(retriever ContextRetriever, llmClient llm.LLM, model string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		retriever: retriever,
		llmClient: llmClient,
		model:     model,
		logger:    logger,
	}
}

// Answer retrieves up to limit records for the query using the given mode
// and generates an answer grounded in them. Retrieval failures propagate
// unchanged so callers can distinguish them from generation failures.
func (s *Service) Answer(ctx context.Context, query string, limit int, mode search.Mode) (*Answer, error) {
	start := time.Now()

	results, err := s.retriever.Retrieve(ctx, query, limit, mode)
	if err != nil {
		return nil, err
	}

	prompt := BuildPrompt(query, results, limit)

	text, err := s.llmClient.Generate(ctx, prompt, llm.GenerateOptions{
		Model:        s.model,
		SystemPrompt: SystemPrompt,
		Temperature:  llm.DefaultTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	s.logger.Info("answer_generated",
		slog.String("mode", string(mode)),
		slog.Int("source_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return &Answer{Text: text, Sources: results}, nil
}
