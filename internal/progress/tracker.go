// ABOUTME: Process-wide ingestion progress tracking keyed by job URL
// ABOUTME: Fallback channel for pollers; streaming is the primary path
package progress

import "sync"

// Tracker is a shared percent-by-key map. Updates are last-write-wins;
// distinct jobs use distinct keys so writers never contend on the same
// entry.
type Tracker struct {
	mu      sync.RWMutex
	percent map[string]int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{percent: make(map[string]int)}
}

// Set records the progress percentage for key.
func (t *Tracker) Set(key string, percent int) {
	t.mu.Lock()
	t.percent[key] = percent
	t.mu.Unlock()
}

// Get returns the progress for key, defaulting to 0 for unknown keys.
func (t *Tracker) Get(key string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.percent[key]
}

// Clear removes the entry for key.
func (t *Tracker) Clear(key string) {
	t.mu.Lock()
	delete(t.percent, key)
	t.mu.Unlock()
}
