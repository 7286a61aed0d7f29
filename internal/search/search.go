// Package search implements the hybrid retrieval and reranking engine: it
// issues lexical and vector queries, fuses their candidate sets, and produces
// a single relevance-ordered result list via a cross-encoder oracle.
package search

import (
	"context"

	"github.com/knoguchi/pokedex/internal/repository"
)

// Mode selects the retrieval strategy.
type Mode string

const (
	// ModeLexical returns full-text hits ranked by their lexical score.
	ModeLexical Mode = "lexical"

	// ModeVector returns nearest-neighbor hits ranked by embedding distance.
	ModeVector Mode = "vector"

	// ModeHybrid fuses both candidate sets and reranks them with the
	// cross-encoder.
	ModeHybrid Mode = "hybrid"
)

// Source tags which strategy produced a candidate.
type Source string

const (
	SourceLexical Source = "lexical"
	SourceVector  Source = "vector"
)

// RankedCandidate is a record paired with its source-specific score. The
// score is only comparable within one source: lexical scores are
// higher-is-better full-text ranks, vector scores are lower-is-better cosine
// distances. Candidates are transient; fusion discards the score.
type RankedCandidate struct {
	Record repository.Pokemon
	Score  float32
	Source Source
}

// FusedCandidate is a candidate that survived deduplication. The slice order
// of fused candidates is the first-seen order of the concatenated inputs; it
// carries no ranking meaning but serves as the deterministic tie-break key
// during reranking.
type FusedCandidate struct {
	Record repository.Pokemon
}

// ScoredResult is the engine's final output: a record with its relevance
// score and 1-based rank. For lexical-only retrieval the relevance is the
// lexical score, for vector-only it is the negated distance, and for hybrid
// it is the cross-encoder score.
type ScoredResult struct {
	Record    repository.Pokemon
	Relevance float32
	Rank      int
}

// LexicalSearcher queries the full-text index. Hits come back ordered by
// descending lexical score; no match is an empty slice, not an error.
type LexicalSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]RankedCandidate, error)
}

// VectorSearcher embeds the query and runs nearest-neighbor search. Hits come
// back ordered ascending by cosine distance.
type VectorSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]RankedCandidate, error)
}

// CrossEncoder is the pairwise relevance oracle. ScoreBatch scores every
// (query, doc) pair in one call and returns one score per doc, same order as
// the input, higher = more relevant. Implementations must be safe for
// concurrent use.
type CrossEncoder interface {
	ScoreBatch(ctx context.Context, query string, docs []string) ([]float32, error)
	ModelName() string
}
