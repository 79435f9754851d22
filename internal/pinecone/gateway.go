// ABOUTME: Vector store gateway for Pinecone serverless over REST
// ABOUTME: Index provisioning, batched namespace upserts, similarity query, stats
package pinecone

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harper/linky/internal/config"
	"github.com/harper/linky/internal/models"
)

const (
	defaultControlURL = "https://api.pinecone.io"
	apiVersion        = "2024-07"

	// EnumerationCap is the topK used by ListAll; it must exceed any
	// realistic namespace size.
	EnumerationCap = 10000

	readyPollInterval = 2 * time.Second
	readyPollTimeout  = 120 * time.Second
)

// Gateway talks to the vector store. All operations are namespace
// scoped except index lifecycle.
type Gateway struct {
	apiKey     string
	indexName  string
	cloud      string
	region     string
	dimension  int
	batchSize  int
	controlURL string
	client     *http.Client
	logger     *zap.Logger

	mu        sync.Mutex
	indexHost string
}

// NewGateway creates a gateway from the service configuration.
func NewGateway(cfg *config.Config, logger *zap.Logger) *Gateway {
	return &Gateway{
		apiKey:     cfg.PineconeAPIKey,
		indexName:  cfg.IndexName,
		cloud:      cfg.Cloud,
		region:     cfg.Region,
		dimension:  cfg.VectorDimension,
		batchSize:  cfg.UpsertBatchSize,
		controlURL: defaultControlURL,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

// SetControlURL overrides the control plane endpoint. Used by tests.
func (g *Gateway) SetControlURL(url string) {
	g.controlURL = strings.TrimRight(url, "/")
}

// Stats reports record counts per namespace.
type Stats struct {
	Namespaces map[string]int
	Total      int
}

type indexDescription struct {
	Name   string `json:"name"`
	Host   string `json:"host"`
	Status struct {
		Ready bool `json:"ready"`
	} `json:"status"`
}

// EnsureIndex makes sure the configured index exists and is ready,
// creating it if absent. Idempotent and safe under concurrent callers:
// a create conflict from a racing job is treated as success.
func (g *Gateway) EnsureIndex(ctx context.Context) error {
	var list struct {
		Indexes []indexDescription `json:"indexes"`
	}
	if err := g.doJSON(ctx, http.MethodGet, g.controlURL+"/indexes", nil, &list); err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}

	for _, idx := range list.Indexes {
		if idx.Name == g.indexName {
			if idx.Status.Ready && idx.Host != "" {
				g.setHost(idx.Host)
				return nil
			}
			return g.waitUntilReady(ctx)
		}
	}

	body := map[string]any{
		"name":      g.indexName,
		"dimension": g.dimension,
		"metric":    "cosine",
		"spec": map[string]any{
			"serverless": map[string]any{
				"cloud":  g.cloud,
				"region": g.region,
			},
		},
	}
	err := g.doJSON(ctx, http.MethodPost, g.controlURL+"/indexes", body, nil)
	if err != nil {
		var se *statusError
		// Another job created it first; rely on the store's own
		// create-if-absent semantics.
		if !errors.As(err, &se) || se.status != http.StatusConflict {
			return fmt.Errorf("creating index %q: %w", g.indexName, err)
		}
	}

	g.logger.Info("index created, waiting until ready", zap.String("index", g.indexName))
	return g.waitUntilReady(ctx)
}

// waitUntilReady polls the index description until the store reports it
// ready, then caches the data plane host.
func (g *Gateway) waitUntilReady(ctx context.Context) error {
	deadline := time.Now().Add(readyPollTimeout)
	for {
		var desc indexDescription
		if err := g.doJSON(ctx, http.MethodGet, g.controlURL+"/indexes/"+g.indexName, nil, &desc); err != nil {
			return fmt.Errorf("describing index %q: %w", g.indexName, err)
		}
		if desc.Status.Ready && desc.Host != "" {
			g.setHost(desc.Host)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("index %q not ready after %s", g.indexName, readyPollTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyPollInterval):
		}
	}
}

func (g *Gateway) setHost(host string) {
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	g.mu.Lock()
	g.indexHost = strings.TrimRight(host, "/")
	g.mu.Unlock()
}

func (g *Gateway) host() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.indexHost == "" {
		return "", errors.New("index host not resolved; call EnsureIndex first")
	}
	return g.indexHost, nil
}

// UpsertBatch writes records into namespace, slicing them into
// provider-sized batches. A mid-flight failure reports which batches
// succeeded; already-written batches are not rolled back.
func (g *Gateway) UpsertBatch(ctx context.Context, namespace string, records []models.StoredRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, r := range records {
		if len(r.Values) != g.dimension {
			return fmt.Errorf("record %s: %w: expected %d, got %d",
				r.ID, models.ErrDimensionMismatch, g.dimension, len(r.Values))
		}
	}

	host, err := g.host()
	if err != nil {
		return err
	}

	total := (len(records) + g.batchSize - 1) / g.batchSize
	for i := 0; i < len(records); i += g.batchSize {
		end := i + g.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]
		body := map[string]any{
			"vectors":   batch,
			"namespace": namespace,
		}
		if err := g.doJSON(ctx, http.MethodPost, host+"/vectors/upsert", body, nil); err != nil {
			done := i / g.batchSize
			return fmt.Errorf("upsert batch %d/%d (records %d-%d) failed after %d batches (%d records) succeeded: %w",
				done+1, total, i, end-1, done, i, err)
		}
		g.logger.Debug("upserted batch",
			zap.String("namespace", namespace),
			zap.Int("batch", i/g.batchSize+1),
			zap.Int("batches", total),
			zap.Int("records", len(batch)))
	}
	return nil
}

type queryResponse struct {
	Matches []struct {
		ID       string                `json:"id"`
		Score    float64               `json:"score"`
		Metadata models.RecordMetadata `json:"metadata"`
	} `json:"matches"`
}

// Query returns the topK most similar records in namespace, ordered by
// descending score, with metadata included.
func (g *Gateway) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]models.ScoredMatch, error) {
	host, err := g.host()
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"vector":          vector,
		"topK":            topK,
		"includeMetadata": true,
		"namespace":       namespace,
	}
	var resp queryResponse
	if err := g.doJSON(ctx, http.MethodPost, host+"/query", body, &resp); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			// Absent namespace: nothing stored yet, not an error
			return nil, nil
		}
		return nil, fmt.Errorf("querying namespace %q: %w", namespace, err)
	}

	matches := make([]models.ScoredMatch, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		matches = append(matches, models.ScoredMatch{
			ID:       m.ID,
			Score:    m.Score,
			Metadata: m.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

// ListAll enumerates every record in namespace. The store has no
// dedicated listing call, so this queries with a neutral zero vector
// and a cap larger than any realistic namespace.
func (g *Gateway) ListAll(ctx context.Context, namespace string) ([]models.ScoredMatch, error) {
	return g.Query(ctx, namespace, make([]float32, g.dimension), EnumerationCap)
}

// DeleteNamespace removes every record in namespace. Deleting a
// namespace that does not exist succeeds as a no-op; a fresh user has
// no namespace yet.
func (g *Gateway) DeleteNamespace(ctx context.Context, namespace string) error {
	host, err := g.host()
	if err != nil {
		return err
	}

	body := map[string]any{
		"deleteAll": true,
		"namespace": namespace,
	}
	if err := g.doJSON(ctx, http.MethodPost, host+"/vectors/delete", body, nil); err != nil {
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusNotFound {
			g.logger.Debug("namespace absent, nothing to clear", zap.String("namespace", namespace))
			return nil
		}
		return fmt.Errorf("clearing namespace %q: %w", namespace, err)
	}
	return nil
}

// DescribeStats returns per-namespace record counts for the index.
func (g *Gateway) DescribeStats(ctx context.Context) (*Stats, error) {
	host, err := g.host()
	if err != nil {
		return nil, err
	}

	var resp struct {
		Namespaces map[string]struct {
			VectorCount int `json:"vectorCount"`
		} `json:"namespaces"`
		TotalVectorCount int `json:"totalVectorCount"`
	}
	if err := g.doJSON(ctx, http.MethodPost, host+"/describe_index_stats", map[string]any{}, &resp); err != nil {
		return nil, fmt.Errorf("describing index stats: %w", err)
	}

	stats := &Stats{
		Namespaces: make(map[string]int, len(resp.Namespaces)),
		Total:      resp.TotalVectorCount,
	}
	for ns, v := range resp.Namespaces {
		stats.Namespaces[ns] = v.VectorCount
	}
	return stats, nil
}

// statusError carries the HTTP status of a failed store call so callers
// can treat 404s as no-ops.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("vector store returned %d: %s", e.status, e.body)
}

// doJSON performs one JSON request against the store, decoding the
// response into out when non-nil.
func (g *Gateway) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Api-Key", g.apiKey)
	req.Header.Set("X-Pinecone-Api-Version", apiVersion)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(data))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
