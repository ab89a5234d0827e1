package domain

import "errors"

var (
	// ErrInvalidSpec signals a search specification that failed validation
	// (missing tenant, non-positive limit). Never retried.
	ErrInvalidSpec = errors.New("invalid search specification")
	// ErrEmbeddingProviderError signals a single embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrEmbeddingUnavailable signals that both the primary and the fallback
	// embedding providers failed. Retrieval recovers via lexical-only search.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
	// ErrTotalRetrievalFailure signals that both sub-searches failed.
	// Retryable; distinct from a genuine zero-match result.
	ErrTotalRetrievalFailure = errors.New("total retrieval failure")
	// ErrExtractionProviderError signals an LLM extraction provider failure.
	ErrExtractionProviderError = errors.New("extraction provider error")
)
