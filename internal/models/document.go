// ABOUTME: Core document types for the ingestion and retrieval pipeline
// ABOUTME: Defines Chunk, StoredRecord, ScoredMatch and ingestion options
package models

// SplitStrategy selects how a fetched page is divided into chunks.
type SplitStrategy string

const (
	SplitRecursive SplitStrategy = "recursive"
	SplitMarkdown  SplitStrategy = "markdown"
)

// Chunk is a contiguous slice of a fetched page.
// Text holds a byte-bounded copy of the whole page, not of the chunk.
type Chunk struct {
	Content   string `json:"content"`
	SourceURL string `json:"url"`
	Text      string `json:"text"`
	Hash      string `json:"hash"`
}

// RecordMetadata is the metadata payload stored alongside each vector.
type RecordMetadata struct {
	Chunk string `json:"chunk"`
	Text  string `json:"text"`
	URL   string `json:"url"`
	Hash  string `json:"hash"`
}

// StoredRecord is the persisted unit in the vector store.
// Its ID is the chunk's content hash, so re-ingesting identical content
// overwrites the same record instead of duplicating it.
type StoredRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// ScoredMatch is a similarity query result. Never persisted.
type ScoredMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}

// IngestOptions are the caller-supplied chunking parameters for a crawl.
type IngestOptions struct {
	SplitStrategy SplitStrategy `json:"splittingMethod"`
	ChunkSize     int           `json:"chunkSize"`
	ChunkOverlap  int           `json:"chunkOverlap"`
}

// SeedResult is the outcome of a completed ingestion job.
type SeedResult struct {
	Documents []Chunk `json:"documents"`
	Upserted  int     `json:"upserted"`
	Skipped   int     `json:"skipped"`
}

// ProgressEvent is one frame on the ingestion progress stream.
// Documents is only present on the final frame; Error only on failure.
type ProgressEvent struct {
	Progress  int     `json:"progress"`
	Documents []Chunk `json:"documents,omitempty"`
	Error     string  `json:"error,omitempty"`
}

// ChatMessage is one entry in a conversation sent to the generation service.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ContextSource is a scored source returned to chat callers for display.
type ContextSource struct {
	ID      string  `json:"id"`
	Score   float64 `json:"score"`
	Content string  `json:"content"`
}
