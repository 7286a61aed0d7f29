// Package reranker provides cross-encoder scoring oracles for the hybrid
// retrieval engine.
//
// A cross-encoder sees the query and a candidate description together, which
// gives a much sharper relevance signal than either the full-text rank or
// the embedding distance alone. Both implementations here score the whole
// candidate batch in a single call, since per-call overhead dominates the
// cost of scoring.
//
// Two oracles are provided:
//
//   - HTTPReranker calls a dedicated cross-encoder inference service
//     (e.g. ms-marco-MiniLM served behind a /v1/rerank endpoint).
//   - LLMReranker prompts a general LLM to emit JSON scores. Slower and
//     noisier, but needs no extra service beyond Ollama.
//
// Neither oracle falls back to pre-rerank scores on failure: the caller owns
// that decision, and a silent fallback would misrepresent the ordering.
package reranker
