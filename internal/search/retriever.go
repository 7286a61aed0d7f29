package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Retriever is the engine's entry point. It is stateless across calls: each
// Retrieve is an independent pipeline run over the read-only indices and
// oracles injected at construction, so concurrent calls need no locking.
type Retriever struct {
	lexical  LexicalSearcher
	vector   VectorSearcher
	reranker *Reranker
	logger   *slog.Logger
}

// NewRetriever wires the retriever. All dependencies are required except the
// logger, which defaults to slog.Default().
func NewRetriever(lexical LexicalSearcher, vector VectorSearcher, reranker *Reranker, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{
		lexical:  lexical,
		vector:   vector,
		reranker: reranker,
		logger:   logger,
	}
}

// Retrieve returns up to limit results for the query using the given mode.
//
// Lexical mode wraps full-text hits with their lexical score; vector mode
// wraps nearest-neighbor hits with the negated distance so higher relevance
// is always better on the way out. Hybrid mode runs both searches
// concurrently, each with the caller's limit, fuses the candidates and
// reranks them, then truncates to limit; at most 2*limit candidates ever
// reach the cross-encoder, which bounds rerank cost independent of corpus
// size. Failures propagate immediately; an empty result only ever means no
// matches.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int, mode Mode) ([]ScoredResult, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	switch mode {
	case ModeLexical:
		candidates, err := r.lexical.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return wrapDirect(candidates, func(c RankedCandidate) float32 { return c.Score }), nil

	case ModeVector:
		candidates, err := r.vector.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		return wrapDirect(candidates, func(c RankedCandidate) float32 { return -c.Score }), nil

	case ModeHybrid:
		return r.retrieveHybrid(ctx, query, limit)

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func (r *Retriever) retrieveHybrid(ctx context.Context, query string, limit int) ([]ScoredResult, error) {
	retrievalID := uuid.NewString()
	start := time.Now()

	// The two searches have no data dependency; run them concurrently. The
	// errgroup context cancels the surviving search as soon as one fails.
	var lexical, vector []RankedCandidate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lexical, err = r.lexical.Search(gctx, query, limit)
		return err
	})
	g.Go(func() error {
		var err error
		vector, err = r.vector.Search(gctx, query, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fused := Fuse(lexical, vector)
	r.logger.Debug("candidates_fused",
		slog.String("retrieval_id", retrievalID),
		slog.Int("lexical_count", len(lexical)),
		slog.Int("vector_count", len(vector)),
		slog.Int("fused_count", len(fused)))

	results, err := r.reranker.Rerank(ctx, query, fused)
	if err != nil {
		return nil, err
	}

	if len(results) > limit {
		results = results[:limit]
	}

	r.logger.Info("hybrid_retrieval_completed",
		slog.String("retrieval_id", retrievalID),
		slog.Int("result_count", len(results)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()))

	return results, nil
}

// wrapDirect converts already-ordered candidates from a single strategy into
// final results without reranking.
func wrapDirect(candidates []RankedCandidate, relevance func(RankedCandidate) float32) []ScoredResult {
	if len(candidates) == 0 {
		return nil
	}
	results := make([]ScoredResult, len(candidates))
	for i, c := range candidates {
		results[i] = ScoredResult{
			Record:    c.Record,
			Relevance: relevance(c),
			Rank:      i + 1,
		}
	}
	return results
}
