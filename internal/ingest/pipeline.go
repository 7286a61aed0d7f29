package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/knoguchi/pokedex/internal/embedder"
	"github.com/knoguchi/pokedex/internal/repository"
	"github.com/knoguchi/pokedex/internal/vectorstore"
)

// DefaultBatchSize is the number of records embedded and indexed per batch.
const DefaultBatchSize = 64

// Pipeline loads CSV records into the record store and backfills embeddings
// into the vector index.
type Pipeline struct {
	repo      repository.PokemonRepository
	embedder  embedder.Embedder
	vectors   vectorstore.VectorStore
	batchSize int
	logger    *slog.Logger
}

// NewPipeline creates an ingestion pipeline. batchSize <= 0 uses
// DefaultBatchSize.
func NewPipeline(repo repository.PokemonRepository, e embedder.Embedder, vectors vectorstore.VectorStore, batchSize int, logger *slog.Logger) *Pipeline {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		repo:      repo,
		embedder:  e,
		vectors:   vectors,
		batchSize: batchSize,
		logger:    logger,
	}
}

// LoadStats reports the outcome of a CSV load.
type LoadStats struct {
	Parsed   int
	Inserted int
	Duration time.Duration
}

// LoadCSV reads the pokedex CSV at path and upserts its records. Records
// already present are skipped, so reloading the same file is a no-op.
func (p *Pipeline) LoadCSV(ctx context.Context, path string) (*LoadStats, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	records, err := ReadPokedexCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	inserted, err := p.repo.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to store records: %w", err)
	}

	stats := &LoadStats{
		Parsed:   len(records),
		Inserted: inserted,
		Duration: time.Since(start),
	}

	p.logger.Info("dataset_loaded",
		slog.String("path", path),
		slog.Int("parsed", stats.Parsed),
		slog.Int("inserted", stats.Inserted),
		slog.Int64("duration_ms", stats.Duration.Milliseconds()))

	return stats, nil
}

// EmbedStats reports the outcome of an embedding backfill.
type EmbedStats struct {
	Embedded int
	Batches  int
	Duration time.Duration
}

// EmbedMissing embeds every record that has no vector yet and writes the
// vectors to the vector index, batch by batch. A record is only marked
// embedded after its vector has been stored, so an interrupted run resumes
// where it left off.
func (p *Pipeline) EmbedMissing(ctx context.Context) (*EmbedStats, error) {
	start := time.Now()
	stats := &EmbedStats{}

	for {
		batch, err := p.repo.ListWithoutEmbedding(ctx, p.batchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to list unembedded records: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		texts := make([]string, len(batch))
		ids := make([]int, len(batch))
		for i, rec := range batch {
			texts[i] = rec.EmbeddingText()
			ids[i] = rec.ID
		}

		vectors, err := p.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to embed batch: %w", err)
		}

		if err := p.vectors.Upsert(ctx, batch, vectors); err != nil {
			return nil, fmt.Errorf("failed to index batch: %w", err)
		}

		if err := p.repo.MarkEmbedded(ctx, ids); err != nil {
			return nil, fmt.Errorf("failed to mark batch embedded: %w", err)
		}

		stats.Embedded += len(batch)
		stats.Batches++

		p.logger.Info("batch_embedded",
			slog.Int("batch", stats.Batches),
			slog.Int("records", len(batch)),
			slog.Int("total", stats.Embedded))
	}

	stats.Duration = time.Since(start)

	p.logger.Info("embedding_backfill_completed",
		slog.Int("embedded", stats.Embedded),
		slog.Int("batches", stats.Batches),
		slog.String("model", p.embedder.ModelName()),
		slog.Int64("duration_ms", stats.Duration.Milliseconds()))

	return stats, nil
}
