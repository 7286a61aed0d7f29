package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/knoguchi/pokedex/internal/answer"
	"github.com/knoguchi/pokedex/internal/auth"
	"github.com/knoguchi/pokedex/internal/config"
	"github.com/knoguchi/pokedex/internal/embedder"
	"github.com/knoguchi/pokedex/internal/llm"
	"github.com/knoguchi/pokedex/internal/repository/postgres"
	"github.com/knoguchi/pokedex/internal/reranker"
	"github.com/knoguchi/pokedex/internal/search"
	"github.com/knoguchi/pokedex/internal/server"
	"github.com/knoguchi/pokedex/internal/vectorstore"
)

func main() {
	// Set up structured logging
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("starting pokedex service",
		"http_port", cfg.HTTPPort,
		"environment", cfg.Environment,
	)

	// Initialize PostgreSQL
	db, err := postgres.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	pokemonRepo := postgres.NewPokemonRepo(db)

	// Initialize Qdrant vector store
	vectorStore, err := vectorstore.NewQdrantStore(ctx, cfg.QdrantGRPCURL, cfg.QdrantCollection)
	if err != nil {
		return fmt.Errorf("failed to connect to Qdrant: %w", err)
	}
	defer vectorStore.Close()
	slog.Info("connected to Qdrant", "collection", cfg.QdrantCollection)

	// Initialize Ollama embedder (one instance shared across all queries)
	embed := embedder.NewOllamaEmbedder(embedder.OllamaConfig{
		BaseURL: cfg.OllamaURL,
		Model:   cfg.OllamaEmbeddingModel,
	})
	slog.Info("initialized embedder", "model", embed.ModelName(), "dimension", embed.Dimension())

	// Initialize Ollama LLM
	llmClient := llm.NewOllamaClient(
		llm.WithBaseURL(cfg.OllamaURL),
		llm.WithModel(cfg.OllamaLLMModel),
	)
	slog.Info("initialized LLM", "model", cfg.OllamaLLMModel)

	// Pick the cross-encoder oracle: dedicated service if configured,
	// otherwise LLM-based scoring through Ollama.
	var oracle search.CrossEncoder
	if cfg.RerankerURL != "" {
		oracle = reranker.NewHTTPReranker(cfg.RerankerURL, cfg.RerankerModel, cfg.RerankTimeout, nil)
	} else {
		oracle = reranker.NewLLMReranker(llmClient, reranker.WithModel(cfg.OllamaLLMModel))
	}
	slog.Info("initialized reranker", "model", oracle.ModelName())

	// Assemble the retrieval engine
	lexical := search.NewPostgresLexical(pokemonRepo, cfg.SearchTimeout)
	vector := search.NewEmbeddingVector(embed, vectorStore, cfg.SearchTimeout)
	rerank := search.NewReranker(oracle, cfg.RerankTimeout)
	retriever := search.NewRetriever(lexical, vector, rerank, slog.Default())

	answerSvc := answer.NewService(retriever, llmClient, cfg.OllamaLLMModel, slog.Default())

	// Auth
	jwtManager := auth.NewJWTManager(&auth.JWTConfig{
		Secret: cfg.JWTSecret,
		Expiry: cfg.JWTExpiry,
		Issuer: "pokedex-service",
	})
	authz := auth.NewMiddleware(cfg.APIKey, jwtManager)
	if cfg.APIKey == "" {
		slog.Warn("API_KEY not set; API authentication is disabled")
	}

	handler := server.NewHandler(retriever, answerSvc, authz, jwtManager, cfg.DefaultLimit, slog.Default())

	httpServer := server.NewHTTPServer(server.HTTPServerConfig{
		Port:           cfg.HTTPPort,
		Logger:         slog.Default(),
		AllowedOrigins: []string{"*"}, // Configure in production
		Handler:        handler,
		Auth:           authz,
		Readier:        db,
	})

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "port", cfg.HTTPPort)
		if err := httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		slog.Info("received shutdown signal", "signal", sig)
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown HTTP server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
