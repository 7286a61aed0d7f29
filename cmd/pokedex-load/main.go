// Command pokedex-load provisions the schema and vector collection, loads the
// Pokédex CSV into PostgreSQL, and backfills embeddings into Qdrant.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/knoguchi/pokedex/internal/config"
	"github.com/knoguchi/pokedex/internal/embedder"
	"github.com/knoguchi/pokedex/internal/ingest"
	"github.com/knoguchi/pokedex/internal/repository/postgres"
	"github.com/knoguchi/pokedex/internal/vectorstore"
)

func main() {
	csvPath := flag.String("csv", "", "path to the pokedex CSV (default: POKEDEX_CSV)")
	skipLoad := flag.Bool("skip-load", false, "skip the CSV load and only backfill embeddings")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*csvPath, *skipLoad); err != nil {
		slog.Error("load failed", "error", err)
		os.Exit(1)
	}
}

func run(csvPath string, skipLoad bool) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if csvPath == "" {
		csvPath = cfg.DatasetCSV
	}

	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	slog.Info("schema provisioned")

	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})

	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()

	if err := vectorStore.EnsureCollection(ctx, embed.Dimension()); err != nil {
		return err
	}
	slog.Info("collection provisioned", "collection", cfg.QdrantCollection, "dimension", embed.Dimension())

	repo := postgres.NewPokemonRepo(db)
	pipeline := ingest.NewPipeline(repo, embed, vectorStore, cfg.EmbedBatchSize, slog.Default())

	if !skipLoad {
		if _, err := pipeline.LoadCSV(ctx, csvPath); err != nil {
			return err
		}
	}

	if _, err := pipeline.EmbedMissing(ctx); err != nil {
		return err
	}

	total, err := repo.Count(ctx)
	if err != nil {
		return err
	}
	indexed, err := vectorStore.Count(ctx)
	if err != nil {
		return err
	}
	slog.Info("load completed", "records", total, "vectors", indexed)

	return nil
}
