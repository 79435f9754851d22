// ABOUTME: Sentinel errors shared across the ingestion and retrieval pipeline
// ABOUTME: Callers classify failures with errors.Is against these values
package models

import "errors"

var (
	// ErrEmptyInput marks input rejected before any I/O (empty URL,
	// empty or whitespace-only text, missing user identity).
	ErrEmptyInput = errors.New("input is empty")

	// ErrRateLimited marks a provider 429; recoverable via backoff.
	ErrRateLimited = errors.New("rate limited by provider")

	// ErrRetriesExhausted is terminal: the retry budget was spent on
	// consecutive rate-limit responses.
	ErrRetriesExhausted = errors.New("max retries reached")

	// ErrNoContent means the content fetcher returned an empty body.
	ErrNoContent = errors.New("no content retrieved from URL")

	// ErrNoChunks means splitting produced nothing; the caller must
	// treat this as an ingestion failure, not a silent success.
	ErrNoChunks = errors.New("splitting produced no chunks")

	// ErrDimensionMismatch means an embedding does not match the
	// index's configured dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
