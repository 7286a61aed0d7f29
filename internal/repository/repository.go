// Package repository defines the Pokédex domain model and data access interfaces.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Pokemon is a single Pokédex record. ID is the National Dex number and is
// the only identity the search engine relies on; everything else is display
// data except Info, which feeds both the full-text index and the reranker.
type Pokemon struct {
	ID        int
	Name      string
	Height    int
	Weight    int
	HP        int
	Attack    int
	Defense   int
	SpAttack  int
	SpDefense int
	Speed     int
	Type      string
	EvoSet    int
	Info      string

	// EmbeddedAt is set once the record's vector has been written to the
	// vector index. Nil means the embedding backfill has not reached it yet.
	EmbeddedAt *time.Time
}

// EmbeddingText returns the text encoded into the record's vector: the name
// and type give the encoder context the info field alone lacks.
func (p *Pokemon) EmbeddingText() string {
	return fmt.Sprintf("%s. Type: %s. %s", p.Name, p.Type, p.Info)
}

// LexicalHit pairs a record with its full-text rank score (higher is better).
type LexicalHit struct {
	Pokemon Pokemon
	Score   float32
}

// PokemonRepository defines operations for Pokédex persistence and the
// lexical index. The serving path only ever calls SearchByText and GetByID;
// the write operations exist for the loader.
type PokemonRepository interface {
	Upsert(ctx context.Context, records []*Pokemon) (int, error)
	GetByID(ctx context.Context, id int) (*Pokemon, error)
	Count(ctx context.Context) (int, error)

	// ListWithoutEmbedding returns up to limit records whose vectors have
	// not been written yet, ordered by ID.
	ListWithoutEmbedding(ctx context.Context, limit int) ([]*Pokemon, error)

	// MarkEmbedded stamps EmbeddedAt for the given record IDs.
	MarkEmbedded(ctx context.Context, ids []int) error

	// SearchByText runs a full-text relevance query against the info field
	// and returns up to limit hits ordered by descending rank. Rank ties are
	// broken by ID so the ordering is deterministic.
	SearchByText(ctx context.Context, query string, limit int) ([]LexicalHit, error)
}
