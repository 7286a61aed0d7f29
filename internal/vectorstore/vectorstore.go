// Package vectorstore provides interfaces and implementations for vector similarity search.
package vectorstore

import (
	"context"

	"github.com/knoguchi/pokedex/internal/repository"
)

// Neighbor is a nearest-neighbor hit: the stored record plus its cosine
// distance from the query vector. Lower distance means more similar.
type Neighbor struct {
	Record   repository.Pokemon
	Distance float32
}

// VectorStore defines the interface for the vector index. The full record is
// stored alongside each vector so a search hit does not need a round-trip to
// the record store.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	EnsureCollection(ctx context.Context, dimension int) error

	// Upsert writes records and their vectors to the index. vectors must be
	// the same length as records and aligned by index.
	Upsert(ctx context.Context, records []*repository.Pokemon, vectors [][]float32) error

	// QueryNearest returns up to limit neighbors ordered ascending by cosine
	// distance (closest first). An empty result is a valid outcome.
	QueryNearest(ctx context.Context, vector []float32, limit int) ([]Neighbor, error)

	// Count returns the number of indexed vectors.
	Count(ctx context.Context) (uint64, error)

	// Close releases the client connection.
	Close() error
}
