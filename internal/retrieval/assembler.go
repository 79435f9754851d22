// ABOUTME: Retrieval assembler: embed a query, fetch top matches, filter and render
// ABOUTME: Empty queries enumerate the namespace instead of searching
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/linky/internal/models"
)

// Embedder produces a query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Searcher is the subset of the gateway retrieval needs.
type Searcher interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]models.ScoredMatch, error)
	ListAll(ctx context.Context, namespace string) ([]models.ScoredMatch, error)
}

// Assembler turns a user message into retrieval context.
type Assembler struct {
	embed Embedder
	store Searcher
	topK  int
}

// NewAssembler wires an assembler with the default top-K policy.
func NewAssembler(e Embedder, s Searcher, topK int) *Assembler {
	return &Assembler{embed: e, store: s, topK: topK}
}

// Matches returns the stored records relevant to message, filtered to
// score > minScore. An empty message is the "show everything" mode: it
// enumerates the whole namespace unfiltered. A query matching nothing
// returns an empty slice, never an error.
func (a *Assembler) Matches(ctx context.Context, message, namespace string, minScore float64) ([]models.ScoredMatch, error) {
	if strings.TrimSpace(message) == "" {
		return a.store.ListAll(ctx, namespace)
	}

	vector, err := a.embed.Embed(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	matches, err := a.store.Query(ctx, namespace, vector, a.topK)
	if err != nil {
		return nil, fmt.Errorf("searching namespace: %w", err)
	}

	qualifying := make([]models.ScoredMatch, 0, len(matches))
	for _, m := range matches {
		if m.Score > minScore {
			qualifying = append(qualifying, m)
		}
	}
	return qualifying, nil
}

// Context renders the qualifying matches as a single prompt block:
// chunk texts joined by newlines, truncated to maxChars characters.
func (a *Assembler) Context(ctx context.Context, message, namespace string, maxChars int, minScore float64) (string, error) {
	matches, err := a.Matches(ctx, message, namespace, minScore)
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, m.Metadata.Chunk)
	}
	joined := strings.Join(parts, "\n")

	runes := []rune(joined)
	if maxChars > 0 && len(runes) > maxChars {
		joined = string(runes[:maxChars])
	}
	return joined, nil
}
