// ABOUTME: Centralized configuration for the Linky RAG service
// ABOUTME: Loads from environment variables with validation and defaults
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the ingestion and retrieval pipeline
type Config struct {
	// Pinecone settings
	PineconeAPIKey string
	IndexName      string
	Cloud          string
	Region         string

	// Mistral settings (OpenAI-compatible API)
	MistralAPIKey  string
	MistralBaseURL string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
	MaxRetries     int
	RetryDelay     time.Duration

	// Content fetcher settings
	FetcherBaseURL string

	// Pipeline settings
	VectorDimension int
	UpsertBatchSize int
	TopK            int
	MinScore        float64
	MaxContextChars int
	ProgressPacing  time.Duration

	// Server settings
	Host string
	Port int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		PineconeAPIKey:  os.Getenv("PINECONE_API_KEY"),
		IndexName:       getEnv("PINECONE_INDEX", "linky"),
		Cloud:           getEnv("PINECONE_CLOUD", "aws"),
		Region:          getEnv("PINECONE_REGION", "us-west-2"),
		MistralAPIKey:   os.Getenv("MISTRAL_API_KEY"),
		MistralBaseURL:  getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai/v1"),
		ChatModel:       getEnv("LINKY_CHAT_MODEL", "mistral-small-latest"),
		EmbeddingModel:  getEnv("LINKY_EMBEDDING_MODEL", "mistral-embed"),
		Timeout:         getEnvDuration("MISTRAL_TIMEOUT", 30*time.Second),
		MaxRetries:      getEnvInt("MISTRAL_MAX_RETRIES", 3),
		RetryDelay:      getEnvDuration("MISTRAL_RETRY_DELAY", time.Second),
		FetcherBaseURL:  getEnv("FETCHER_BASE_URL", "https://r.jina.ai"),
		VectorDimension: getEnvInt("VECTOR_DIMENSION", 1024),
		UpsertBatchSize: getEnvInt("UPSERT_BATCH_SIZE", 100),
		TopK:            getEnvInt("RETRIEVAL_TOP_K", 3),
		MinScore:        getEnvFloat("RETRIEVAL_MIN_SCORE", 0.7),
		MaxContextChars: getEnvInt("RETRIEVAL_MAX_CHARS", 3000),
		ProgressPacing:  getEnvDuration("PROGRESS_PACING", 100*time.Millisecond),
		Host:            getEnv("LINKY_HOST", "0.0.0.0"),
		Port:            getEnvInt("LINKY_PORT", 3000),
	}

	return cfg, cfg.Validate()
}

func (c *Config) Validate() error {
	if c.MinScore < 0 || c.MinScore > 1 {
		return fmt.Errorf("RETRIEVAL_MIN_SCORE must be 0-1, got %f", c.MinScore)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("MISTRAL_MAX_RETRIES must be 0-10, got %d", c.MaxRetries)
	}
	if c.VectorDimension <= 0 {
		return fmt.Errorf("VECTOR_DIMENSION must be positive, got %d", c.VectorDimension)
	}
	if c.UpsertBatchSize <= 0 {
		return fmt.Errorf("UPSERT_BATCH_SIZE must be positive, got %d", c.UpsertBatchSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("RETRIEVAL_TOP_K must be positive, got %d", c.TopK)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
