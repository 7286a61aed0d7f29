package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/knoguchi/pokedex/internal/repository"
)

// PokemonRepo implements repository.PokemonRepository
type PokemonRepo struct {
	db *DB
}

// NewPokemonRepo creates a new Pokédex repository
func NewPokemonRepo(db *DB) *PokemonRepo {
	return &PokemonRepo{db: db}
}

const pokemonColumns = `id, name, height, weight, hp, attack, defense, s_attack, s_defense, speed, type, evo_set, info, embedded_at`

// Upsert inserts new records and returns the number of rows written.
// Existing IDs are left untouched so re-running the loader is cheap and does
// not invalidate embeddings that were already generated.
func (r *PokemonRepo) Upsert(ctx context.Context, records []*repository.Pokemon) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO pokemon (id, name, height, weight, hp, attack, defense, s_attack, s_defense, speed, type, evo_set, info)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, p := range records {
		batch.Queue(query,
			p.ID, p.Name, p.Height, p.Weight, p.HP, p.Attack, p.Defense,
			p.SpAttack, p.SpDefense, p.Speed, p.Type, p.EvoSet, p.Info)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range records {
		tag, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("failed to upsert pokemon: %w", err)
		}
		written += int(tag.RowsAffected())
	}

	return written, nil
}

// GetByID retrieves a record by its Dex number
func (r *PokemonRepo) GetByID(ctx context.Context, id int) (*repository.Pokemon, error) {
	query := `SELECT ` + pokemonColumns + ` FROM pokemon WHERE id = $1`

	var p repository.Pokemon
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.Height, &p.Weight, &p.HP, &p.Attack, &p.Defense,
		&p.SpAttack, &p.SpDefense, &p.Speed, &p.Type, &p.EvoSet, &p.Info,
		&p.EmbeddedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pokemon: %w", err)
	}

	return &p, nil
}

// Count returns the number of stored records
func (r *PokemonRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM pokemon`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count pokemon: %w", err)
	}
	return count, nil
}

// ListWithoutEmbedding returns up to limit records whose vectors have not
// been written yet, ordered by ID.
func (r *PokemonRepo) ListWithoutEmbedding(ctx context.Context, limit int) ([]*repository.Pokemon, error) {
	query := `SELECT ` + pokemonColumns + ` FROM pokemon WHERE embedded_at IS NULL ORDER BY id LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unembedded pokemon: %w", err)
	}
	defer rows.Close()

	var records []*repository.Pokemon
	for rows.Next() {
		var p repository.Pokemon
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Height, &p.Weight, &p.HP, &p.Attack, &p.Defense,
			&p.SpAttack, &p.SpDefense, &p.Speed, &p.Type, &p.EvoSet, &p.Info,
			&p.EmbeddedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pokemon: %w", err)
		}
		records = append(records, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pokemon rows: %w", err)
	}

	return records, nil
}

// MarkEmbedded stamps embedded_at for the given record IDs
func (r *PokemonRepo) MarkEmbedded(ctx context.Context, ids []int) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE pokemon SET embedded_at = $1 WHERE id = ANY($2)`
	if _, err := r.db.Pool.Exec(ctx, query, time.Now().UTC(), ids); err != nil {
		return fmt.Errorf("failed to mark pokemon embedded: %w", err)
	}
	return nil
}

// SearchByText runs a full-text relevance query against the info field.
// ts_rank_cd over plainto_tsquery matches the index provisioned in
// EnsureSchema; ties on rank fall back to ID so the order is deterministic.
func (r *PokemonRepo) SearchByText(ctx context.Context, query string, limit int) ([]repository.LexicalHit, error) {
	sql := `
		SELECT ` + pokemonColumns + `,
		       ts_rank_cd(to_tsvector('english', info), plainto_tsquery('english', $1)) AS rank
		FROM pokemon
		WHERE to_tsvector('english', info) @@ plainto_tsquery('english', $1)
		ORDER BY rank DESC, id
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to run full-text query: %w", err)
	}
	defer rows.Close()

	var hits []repository.LexicalHit
	for rows.Next() {
		var hit repository.LexicalHit
		p := &hit.Pokemon
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Height, &p.Weight, &p.HP, &p.Attack, &p.Defense,
			&p.SpAttack, &p.SpDefense, &p.Speed, &p.Type, &p.EvoSet, &p.Info,
			&p.EmbeddedAt, &hit.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan full-text hit: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read full-text hits: %w", err)
	}

	return hits, nil
}

// Ensure PokemonRepo implements the repository interface.
var _ repository.PokemonRepository = (*PokemonRepo)(nil)
