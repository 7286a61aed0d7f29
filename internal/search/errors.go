package search

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMode is returned when Retrieve is called with an unknown
	// mode. Checked before any I/O.
	ErrInvalidMode = errors.New("invalid search mode")

	// ErrInvalidLimit is returned when Retrieve is called with a
	// non-positive limit. Checked before any I/O.
	ErrInvalidLimit = errors.New("limit must be positive")
)

// IndexUnavailableError reports that the lexical or vector index could not be
// reached (including timeouts). The engine does not retry; the caller decides.
type IndexUnavailableError struct {
	Index Source
	Err   error
}

func (e *IndexUnavailableError) Error() string {
	return fmt.Sprintf("%s index unavailable: %v", e.Index, e.Err)
}

func (e *IndexUnavailableError) Unwrap() error { return e.Err }

// EmbeddingError reports that the embedding oracle failed or returned
// malformed output. Fatal to vector and hybrid retrieval.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding query failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// RerankError reports that the cross-encoder oracle failed. The whole rerank
// call is invalidated; partial scoring is never surfaced.
type RerankError struct {
	Err error
}

func (e *RerankError) Error() string {
	return fmt.Sprintf("reranking failed: %v", e.Err)
}

func (e *RerankError) Unwrap() error { return e.Err }
