// ABOUTME: Ingestion job orchestrator: fetch, split, embed, upsert
// ABOUTME: Emits live progress events and skips chunks whose embedding fails
package seeder

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/progress"
	"github.com/harper/linky/internal/splitter"
)

// ContentFetcher turns a URL into readable text.
type ContentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Embedder produces a fixed-dimension vector for a text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is the subset of the gateway an ingestion job needs.
type VectorStore interface {
	EnsureIndex(ctx context.Context) error
	UpsertBatch(ctx context.Context, namespace string, records []models.StoredRecord) error
}

// ProgressFunc receives each progress frame. The final frame carries
// the produced documents.
type ProgressFunc func(event models.ProgressEvent) error

// Seeder drives one ingestion job per Seed call.
type Seeder struct {
	fetcher ContentFetcher
	embed   Embedder
	store   VectorStore
	tracker *progress.Tracker
	logger  *zap.Logger
	pacing  time.Duration
}

// NewSeeder wires an orchestrator from its collaborators. pacing is the
// delay after each progress emission so a consuming stream is not
// flooded.
func NewSeeder(f ContentFetcher, e Embedder, s VectorStore, tr *progress.Tracker, logger *zap.Logger, pacing time.Duration) *Seeder {
	return &Seeder{
		fetcher: f,
		embed:   e,
		store:   s,
		tracker: tr,
		logger:  logger,
		pacing:  pacing,
	}
}

// Seed ingests url into namespace: ensure index, fetch, split, embed
// each chunk sequentially, then upsert everything in one batched call.
// Chunks are embedded one at a time so only a single quota-consuming
// call is outstanding and reported progress stays monotonic. A chunk
// whose embedding fails is logged and skipped; the job continues.
// Any failure before the upsert is terminal and no partial upsert is
// performed.
func (s *Seeder) Seed(ctx context.Context, url string, opts models.IngestOptions, namespace string, onProgress ProgressFunc) (*models.SeedResult, error) {
	if url == "" {
		return nil, fmt.Errorf("seed url: %w", models.ErrEmptyInput)
	}

	jobID := uuid.New().String()[:8]
	log := s.logger.With(
		zap.String("job", jobID),
		zap.String("url", url),
		zap.String("namespace", namespace),
	)

	if err := s.store.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensuring index: %w", err)
	}

	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}

	chunks, err := splitter.Split(content, url, opts)
	if err != nil {
		return nil, fmt.Errorf("splitting content: %w", err)
	}
	total := len(chunks)
	log.Info("content split", zap.Int("chunks", total), zap.String("strategy", string(opts.SplitStrategy)))

	s.tracker.Set(url, 0)
	defer s.tracker.Clear(url)

	s.emit(log, onProgress, models.ProgressEvent{Progress: 0})
	if err := s.pace(ctx); err != nil {
		return nil, err
	}

	records := make([]models.StoredRecord, 0, total)
	processed := 0
	skipped := 0

	for i, chunk := range chunks {
		// Stream closed or request canceled: stop scheduling embeds
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vector, err := s.embed.Embed(ctx, chunk.Content)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("embedding failed, skipping chunk",
				zap.Int("chunk", i+1),
				zap.Int("total", total),
				zap.Error(err))
			skipped++
			continue
		}

		records = append(records, models.StoredRecord{
			ID:     chunk.Hash,
			Values: vector,
			Metadata: models.RecordMetadata{
				Chunk: chunk.Content,
				Text:  chunk.Text,
				URL:   chunk.SourceURL,
				Hash:  chunk.Hash,
			},
		})

		processed++
		percent := int(math.Round(float64(processed) / float64(total) * 100))
		s.tracker.Set(url, percent)
		s.emit(log, onProgress, models.ProgressEvent{Progress: percent})
		if err := s.pace(ctx); err != nil {
			return nil, err
		}
	}

	if err := s.store.UpsertBatch(ctx, namespace, records); err != nil {
		return nil, fmt.Errorf("upserting %d records: %w", len(records), err)
	}

	s.tracker.Set(url, 100)
	s.emit(log, onProgress, models.ProgressEvent{Progress: 100, Documents: chunks})

	log.Info("ingestion complete",
		zap.Int("upserted", len(records)),
		zap.Int("skipped", skipped))

	return &models.SeedResult{
		Documents: chunks,
		Upserted:  len(records),
		Skipped:   skipped,
	}, nil
}

// emit delivers one progress frame. Delivery failures are logged, not
// fatal: closure of the consuming stream is observed via the context.
func (s *Seeder) emit(log *zap.Logger, onProgress ProgressFunc, event models.ProgressEvent) {
	if onProgress == nil {
		return
	}
	if err := onProgress(event); err != nil {
		log.Warn("progress delivery failed", zap.Error(err))
	}
}

// pace sleeps the configured delay between progress frames, honoring
// cancellation.
func (s *Seeder) pace(ctx context.Context) error {
	if s.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(s.pacing)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
