package search

import (
	"context"
	"time"

	"github.com/knoguchi/pokedex/internal/embedder"
	"github.com/knoguchi/pokedex/internal/vectorstore"
)

// EmbeddingVector implements VectorSearcher: it encodes the query with the
// embedding oracle and runs cosine nearest-neighbor search against the
// vector index.
type EmbeddingVector struct {
	embedder embedder.Embedder
	store    vectorstore.VectorStore
	timeout  time.Duration
}

// NewEmbeddingVector creates a vector searcher. timeout bounds the combined
// embed + index call; zero means no per-call timeout beyond the caller's
// context.
func NewEmbeddingVector(e embedder.Embedder, store vectorstore.VectorStore, timeout time.Duration) *EmbeddingVector {
	return &EmbeddingVector{embedder: e, store: store, timeout: timeout}
}

// Search returns up to limit records ordered ascending by cosine distance.
func (s *EmbeddingVector) Search(ctx context.Context, query string, limit int) ([]RankedCandidate, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &EmbeddingError{Err: err}
	}

	neighbors, err := s.store.QueryNearest(ctx, vector, limit)
	if err != nil {
		return nil, &IndexUnavailableError{Index: SourceVector, Err: err}
	}

	candidates := make([]RankedCandidate, len(neighbors))
	for i, n := range neighbors {
		candidates[i] = RankedCandidate{
			Record: n.Record,
			Score:  n.Distance,
			Source: SourceVector,
		}
	}

	return candidates, nil
}

var _ VectorSearcher = (*EmbeddingVector)(nil)
