// ABOUTME: Shared wiring and helpers for CLI commands
// ABOUTME: Builds the ingestion/retrieval stack from environment configuration
package commands

import (
	"fmt"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/harper/linky/internal/chat"
	"github.com/harper/linky/internal/config"
	"github.com/harper/linky/internal/fetcher"
	"github.com/harper/linky/internal/llm"
	"github.com/harper/linky/internal/pinecone"
	"github.com/harper/linky/internal/progress"
	"github.com/harper/linky/internal/retrieval"
	"github.com/harper/linky/internal/seeder"
)

// stack is the fully wired pipeline every command operates on.
type stack struct {
	cfg       *config.Config
	logger    *zap.Logger
	fetcher   *fetcher.Client
	llm       *llm.Client
	gateway   *pinecone.Gateway
	tracker   *progress.Tracker
	seeder    *seeder.Seeder
	assembler *retrieval.Assembler
	responder *chat.Responder
}

// buildStack loads configuration from the environment and wires the
// pipeline. Every command goes through here so wiring stays uniform.
func buildStack() (*stack, error) {
	// Load .env for API keys
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	llmClient, err := llm.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding client: %w", err)
	}

	fetch := fetcher.NewClient(cfg.FetcherBaseURL)
	gateway := pinecone.NewGateway(cfg, logger)
	tracker := progress.NewTracker()
	seed := seeder.NewSeeder(fetch, llmClient, gateway, tracker, logger, cfg.ProgressPacing)
	assembler := retrieval.NewAssembler(llmClient, gateway, cfg.TopK)
	responder := chat.NewResponder(llmClient, assembler, cfg.MinScore)

	return &stack{
		cfg:       cfg,
		logger:    logger,
		fetcher:   fetch,
		llm:       llmClient,
		gateway:   gateway,
		tracker:   tracker,
		seeder:    seed,
		assembler: assembler,
		responder: responder,
	}, nil
}

func newLogger() (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// truncate shortens a string to maxLen runes, adding "..." if truncated
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
