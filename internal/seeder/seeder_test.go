// ABOUTME: Tests for the ingestion job orchestrator
// ABOUTME: Verifies progress monotonicity, skip-on-failure, and cancellation
package seeder

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/progress"
)

type fakeFetcher struct {
	content string
	err     error
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	return f.content, f.err
}

type fakeEmbedder struct {
	calls  int32
	failOn map[int]error // 1-based call index -> error
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	n := int(atomic.AddInt32(&e.calls, 1))
	if err, ok := e.failOn[n]; ok {
		return nil, err
	}
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

type fakeStore struct {
	ensureErr   error
	upsertErr   error
	ensureCalls int32
	upserts     [][]models.StoredRecord
	namespaces  []string
}

func (s *fakeStore) EnsureIndex(ctx context.Context) error {
	atomic.AddInt32(&s.ensureCalls, 1)
	return s.ensureErr
}

func (s *fakeStore) UpsertBatch(ctx context.Context, namespace string, records []models.StoredRecord) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.upserts = append(s.upserts, records)
	s.namespaces = append(s.namespaces, namespace)
	return nil
}

func defaultOpts() models.IngestOptions {
	return models.IngestOptions{SplitStrategy: models.SplitRecursive, ChunkSize: 256, ChunkOverlap: 1}
}

func pageFixture() string {
	return strings.TrimSpace(strings.Repeat("lorem ipsum dolor sit amet ", 37))
}

func newSeeder(f *fakeFetcher, e *fakeEmbedder, s *fakeStore) (*Seeder, *progress.Tracker) {
	tr := progress.NewTracker()
	return NewSeeder(f, e, s, tr, zap.NewNop(), time.Millisecond), tr
}

func TestSeed_Success(t *testing.T) {
	fetcher := &fakeFetcher{content: pageFixture()}
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	s, tracker := newSeeder(fetcher, embedder, store)

	var events []models.ProgressEvent
	result, err := s.Seed(context.Background(), "https://example.com/a", defaultOpts(), "ns-1",
		func(ev models.ProgressEvent) error {
			events = append(events, ev)
			return nil
		})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	if len(result.Documents) < 4 {
		t.Errorf("documents = %d, want >= 4", len(result.Documents))
	}
	if result.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", result.Skipped)
	}
	if result.Upserted != len(result.Documents) {
		t.Errorf("upserted = %d, want %d", result.Upserted, len(result.Documents))
	}

	// Progress is non-decreasing and ends at exactly 100
	if len(events) < 2 {
		t.Fatalf("events = %d, want at least initial and final", len(events))
	}
	last := -1
	for i, ev := range events {
		if ev.Progress < last {
			t.Errorf("progress decreased at event %d: %d -> %d", i, last, ev.Progress)
		}
		last = ev.Progress
	}
	final := events[len(events)-1]
	if final.Progress != 100 {
		t.Errorf("final progress = %d, want 100", final.Progress)
	}
	if len(final.Documents) != len(result.Documents) {
		t.Errorf("final event documents = %d, want %d", len(final.Documents), len(result.Documents))
	}

	// One upsert call, record IDs are the chunk hashes
	if len(store.upserts) != 1 {
		t.Fatalf("upsert calls = %d, want 1", len(store.upserts))
	}
	if store.namespaces[0] != "ns-1" {
		t.Errorf("upsert namespace = %q", store.namespaces[0])
	}
	for i, rec := range store.upserts[0] {
		if rec.ID != result.Documents[i].Hash {
			t.Errorf("record %d ID = %q, want chunk hash %q", i, rec.ID, result.Documents[i].Hash)
		}
		if rec.Metadata.Chunk != result.Documents[i].Content {
			t.Errorf("record %d metadata chunk mismatch", i)
		}
	}

	// Tracker entry is removed once the job finishes
	if got := tracker.Get("https://example.com/a"); got != 0 {
		t.Errorf("tracker after finish = %d, want cleared (0)", got)
	}
}

func TestSeed_EmptyURL(t *testing.T) {
	s, _ := newSeeder(&fakeFetcher{}, &fakeEmbedder{}, &fakeStore{})
	_, err := s.Seed(context.Background(), "", defaultOpts(), "ns", nil)
	if !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestSeed_FetchFailureIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("reader unreachable")}
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	s, _ := newSeeder(fetcher, embedder, store)

	var events []models.ProgressEvent
	_, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns",
		func(ev models.ProgressEvent) error {
			events = append(events, ev)
			return nil
		})
	if err == nil {
		t.Fatal("expected error")
	}
	for _, ev := range events {
		if ev.Progress == 100 {
			t.Error("failed job reported 100% progress")
		}
	}
	if len(store.upserts) != 0 {
		t.Error("failed job performed an upsert")
	}
	if atomic.LoadInt32(&embedder.calls) != 0 {
		t.Error("failed fetch still scheduled embeddings")
	}
}

func TestSeed_EmptyContentIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{content: "   \n  "}
	store := &fakeStore{}
	s, _ := newSeeder(fetcher, &fakeEmbedder{}, store)

	_, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns", nil)
	if !errors.Is(err, models.ErrNoChunks) {
		t.Errorf("error = %v, want ErrNoChunks", err)
	}
	if len(store.upserts) != 0 {
		t.Error("zero-chunk job performed an upsert")
	}
}

func TestSeed_SkipsFailedChunk(t *testing.T) {
	fetcher := &fakeFetcher{content: pageFixture()}
	embedder := &fakeEmbedder{failOn: map[int]error{2: errors.New("provider hiccup")}}
	store := &fakeStore{}
	s, _ := newSeeder(fetcher, embedder, store)

	var finalEvent models.ProgressEvent
	result, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns",
		func(ev models.ProgressEvent) error {
			finalEvent = ev
			return nil
		})
	if err != nil {
		t.Fatalf("Seed() error = %v (per-chunk failure must not be terminal)", err)
	}

	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Upserted != len(result.Documents)-1 {
		t.Errorf("upserted = %d, want %d", result.Upserted, len(result.Documents)-1)
	}
	// Final event still reports 100 with the full document list
	if finalEvent.Progress != 100 {
		t.Errorf("final progress = %d, want 100", finalEvent.Progress)
	}
	if len(finalEvent.Documents) != len(result.Documents) {
		t.Errorf("final documents = %d, want %d", len(finalEvent.Documents), len(result.Documents))
	}
	if len(store.upserts) != 1 || len(store.upserts[0]) != result.Upserted {
		t.Errorf("upsert carried %d records, want %d", len(store.upserts[0]), result.Upserted)
	}
}

func TestSeed_UpsertFailureIsTerminal(t *testing.T) {
	fetcher := &fakeFetcher{content: pageFixture()}
	store := &fakeStore{upsertErr: errors.New("payload too large")}
	s, _ := newSeeder(fetcher, &fakeEmbedder{}, store)

	var sawHundred bool
	_, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns",
		func(ev models.ProgressEvent) error {
			if ev.Progress == 100 && ev.Documents != nil {
				sawHundred = true
			}
			return nil
		})
	if err == nil {
		t.Fatal("expected error")
	}
	if sawHundred {
		t.Error("job emitted the completion frame despite upsert failure")
	}
}

func TestSeed_CancellationStopsEmbedding(t *testing.T) {
	fetcher := &fakeFetcher{content: pageFixture()}
	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	s, _ := newSeeder(fetcher, embedder, store)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := s.Seed(ctx, "https://example.com", defaultOpts(), "ns",
		func(ev models.ProgressEvent) error {
			// Consumer disappears after the first per-chunk frame
			if ev.Progress > 0 {
				cancel()
			}
			return nil
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	calls := atomic.LoadInt32(&embedder.calls)
	if calls > 2 {
		t.Errorf("embedder called %d times after cancellation, want no further scheduling", calls)
	}
	if len(store.upserts) != 0 {
		t.Error("canceled job performed an upsert")
	}
}

func TestSeed_IdempotentHashes(t *testing.T) {
	fetcher := &fakeFetcher{content: pageFixture()}
	store := &fakeStore{}
	s, _ := newSeeder(fetcher, &fakeEmbedder{}, store)

	first, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns", nil)
	if err != nil {
		t.Fatalf("first Seed() error = %v", err)
	}
	second, err := s.Seed(context.Background(), "https://example.com", defaultOpts(), "ns", nil)
	if err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	if len(first.Documents) != len(second.Documents) {
		t.Fatalf("chunk counts differ: %d vs %d", len(first.Documents), len(second.Documents))
	}
	for i := range first.Documents {
		if first.Documents[i].Hash != second.Documents[i].Hash {
			t.Errorf("chunk %d hash differs across re-ingestion", i)
		}
	}
}
