// ABOUTME: Retry utilities for API calls with exponential backoff
// ABOUTME: Shared by the embedding client for consistent retry behavior
package util

import "time"

// CalculateBackoff returns exponential backoff for the given attempt.
// Attempt 0 waits the base delay, attempt 1 doubles it, and so on.
// The delay is deterministic: retry timing is part of the embedding
// client's contract (1s, 2s, 4s for the default base).
func CalculateBackoff(baseDelay time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// Cap attempt to avoid overflow in bit shift
	if attempt > 30 {
		attempt = 30
	}
	backoff := baseDelay * time.Duration(1<<uint(attempt))
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
