// ABOUTME: Mistral client for embeddings and chat completions
// ABOUTME: OpenAI-compatible API via go-openai with bounded retry on rate limits
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/linky/internal/config"
	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/util"
)

// Client wraps the Mistral API with retry logic. Rate-limit responses
// are retried with exponential backoff; any other failure aborts
// immediately.
type Client struct {
	api            *openai.Client
	chatModel      string
	embeddingModel string
	dimension      int
	maxRetries     int
	retryDelay     time.Duration
	timeout        time.Duration
}

// NewClient creates a client from the service configuration.
func NewClient(cfg *config.Config) (*Client, error) {
	if cfg.MistralAPIKey == "" {
		return nil, fmt.Errorf("MISTRAL_API_KEY is required")
	}

	apiCfg := openai.DefaultConfig(cfg.MistralAPIKey)
	if cfg.MistralBaseURL != "" {
		apiCfg.BaseURL = cfg.MistralBaseURL
	}

	return &Client{
		api:            openai.NewClientWithConfig(apiCfg),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		dimension:      cfg.VectorDimension,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		timeout:        cfg.Timeout,
	}, nil
}

// Embed generates an embedding vector for text. Embedded newlines are
// collapsed to spaces before sending; empty input after normalization
// fails with models.ErrEmptyInput. Up to maxRetries attempts are made,
// sleeping retryDelay*2^attempt between rate-limited attempts.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if cleaned == "" {
		return nil, fmt.Errorf("embedding input: %w", models.ErrEmptyInput)
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: []string{cleaned},
			Model: openai.EmbeddingModel(c.embeddingModel),
		})
		cancel()

		if err != nil {
			if !isRateLimit(err) {
				return nil, fmt.Errorf("embedding request: %w", err)
			}
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, models.ErrRateLimited)
			if err := sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if len(resp.Data) == 0 {
			return nil, errors.New("no embedding returned from API")
		}

		vector := resp.Data[0].Embedding
		if len(vector) != c.dimension {
			return nil, fmt.Errorf("%w: expected %d, got %d",
				models.ErrDimensionMismatch, c.dimension, len(vector))
		}
		return vector, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", models.ErrRetriesExhausted, c.maxRetries, lastErr)
}

// Complete sends an ordered message list to the chat model and returns
// the completion text. Rate limits are retried on the same schedule as
// Embed.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("chat messages: %w", models.ErrEmptyInput)
	}

	reqMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		reqMessages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:    c.chatModel,
			Messages: reqMessages,
		})
		cancel()

		if err != nil {
			if !isRateLimit(err) {
				return "", fmt.Errorf("chat request: %w", err)
			}
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, models.ErrRateLimited)
			if err := sleep(ctx, util.CalculateBackoff(c.retryDelay, attempt)); err != nil {
				return "", err
			}
			continue
		}

		if len(resp.Choices) == 0 {
			return "", errors.New("no completion choices returned")
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %v", models.ErrRetriesExhausted, c.maxRetries, lastErr)
}

// isRateLimit reports whether err is an HTTP 429 from the provider.
func isRateLimit(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429
	}
	return false
}

// sleep blocks for d or until ctx is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
