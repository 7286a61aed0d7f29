package search

import (
	"context"
	"time"

	"github.com/knoguchi/pokedex/internal/repository"
)

// PostgresLexical implements LexicalSearcher on top of the repository's
// full-text query.
type PostgresLexical struct {
	repo    repository.PokemonRepository
	timeout time.Duration
}

// NewPostgresLexical creates a lexical searcher. timeout bounds each index
// call; zero means no per-call timeout beyond the caller's context.
func NewPostgresLexical(repo repository.PokemonRepository, timeout time.Duration) *PostgresLexical {
	return &PostgresLexical{repo: repo, timeout: timeout}
}

// Search returns up to limit records ordered by descending lexical relevance.
func (s *PostgresLexical) Search(ctx context.Context, query string, limit int) ([]RankedCandidate, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	hits, err := s.repo.SearchByText(ctx, query, limit)
	if err != nil {
		return nil, &IndexUnavailableError{Index: SourceLexical, Err: err}
	}

	candidates := make([]RankedCandidate, len(hits))
	for i, hit := range hits {
		candidates[i] = RankedCandidate{
			Record: hit.Pokemon,
			Score:  hit.Score,
			Source: SourceLexical,
		}
	}

	return candidates, nil
}

var _ LexicalSearcher = (*PostgresLexical)(nil)
