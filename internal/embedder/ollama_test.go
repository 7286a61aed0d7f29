package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func embeddingServer(t *testing.T, handler func(w http.ResponseWriter, req embedRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		handler(w, req)
	}))
}

func TestOllamaEmbedder_Embed(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, req embedRequest) {
		if req.Model != "all-minilm" {
			t.Errorf("unexpected model %q", req.Model)
		}
		if req.Prompt != "Bulbasaur. Type: Grass. A seed Pokemon." {
			t.Errorf("unexpected prompt %q", req.Prompt)
		}
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.1, 0.2, 0.3}})
	})
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, Model: "all-minilm"})

	vector, err := e.Embed(context.Background(), "Bulbasaur. Type: Grass. A seed Pokemon.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 3 || vector[0] != 0.1 || vector[2] != 0.3 {
		t.Errorf("unexpected vector %v", vector)
	}
}

func TestOllamaEmbedder_EmbedBatchOrder(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, req embedRequest) {
		// Echo the prompt length so each text gets a distinguishable vector.
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{float64(len(req.Prompt))}})
	})
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL, BatchConcurrency: 2})

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vectors, err := e.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vectors))
	}
	for i, text := range texts {
		if vectors[i][0] != float32(len(text)) {
			t.Errorf("vector %d out of order: expected %d, got %v", i, len(text), vectors[i][0])
		}
	}
}

func TestOllamaEmbedder_EmbedBatchEmpty(t *testing.T) {
	e := NewOllamaEmbedder(OllamaConfig{BaseURL: "http://127.0.0.1:1"})

	vectors, err := e.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 0 {
		t.Errorf("expected no vectors, got %v", vectors)
	}
}

func TestOllamaEmbedder_ServerError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, req embedRequest) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})

	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for non-200 response")
	}
	if _, err := e.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Error("expected batch error for non-200 response")
	}
}

func TestOllamaEmbedder_EmptyEmbeddingIsError(t *testing.T) {
	srv := embeddingServer(t, func(w http.ResponseWriter, req embedRequest) {
		json.NewEncoder(w).Encode(embedResponse{})
	})
	defer srv.Close()

	e := NewOllamaEmbedder(OllamaConfig{BaseURL: srv.URL})

	if _, err := e.Embed(context.Background(), "text"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestOllamaEmbedder_DimensionFromModel(t *testing.T) {
	for model, want := range map[string]int{
		"all-minilm":        384,
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"unknown-model":     384,
	} {
		e := NewOllamaEmbedder(OllamaConfig{Model: model})
		if e.Dimension() != want {
			t.Errorf("%s: expected dimension %d, got %d", model, want, e.Dimension())
		}
	}
}
