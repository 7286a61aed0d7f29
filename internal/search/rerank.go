package search

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Reranker scores fused candidates against the query with the cross-encoder
// oracle and produces the final total order.
type Reranker struct {
	oracle  CrossEncoder
	timeout time.Duration
}

// NewReranker creates a reranker around the given oracle. timeout bounds the
// batch scoring call; zero means no per-call timeout beyond the caller's
// context.
func NewReranker(oracle CrossEncoder, timeout time.Duration) *Reranker {
	return &Reranker{oracle: oracle, timeout: timeout}
}

// Rerank scores every candidate's description against the query in a single
// batched oracle call and sorts by descending score. Ties are broken by the
// candidate's fused first-seen index, an explicit secondary key, so the total
// order is reproducible regardless of sort stability. Ranks are 1-based. Any
// oracle failure invalidates the whole call: a partially scored list would
// silently misrepresent the ordering.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []FusedCandidate) ([]ScoredResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Record.Info
	}

	scores, err := r.oracle.ScoreBatch(ctx, query, docs)
	if err != nil {
		return nil, &RerankError{Err: err}
	}
	if len(scores) != len(candidates) {
		return nil, &RerankError{Err: fmt.Errorf("oracle returned %d scores for %d candidates", len(scores), len(candidates))}
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		i, j := order[a], order[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		return i < j
	})

	results := make([]ScoredResult, len(order))
	for rank, i := range order {
		results[rank] = ScoredResult{
			Record:    candidates[i].Record,
			Relevance: scores[i],
			Rank:      rank + 1,
		}
	}

	return results, nil
}
