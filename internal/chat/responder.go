// ABOUTME: Chat responder: retrieves context for the latest message and completes
// ABOUTME: Builds the system prompt with chat history and a context block
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/harper/linky/internal/models"
)

// Completer sends an ordered message list to the generation service.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Retriever supplies scored context for a message.
type Retriever interface {
	Matches(ctx context.Context, message, namespace string, minScore float64) ([]models.ScoredMatch, error)
}

// Responder answers a conversation using retrieved context.
type Responder struct {
	llm       Completer
	retriever Retriever
	minScore  float64
}

// NewResponder wires a responder with the retrieval score threshold.
func NewResponder(llm Completer, retriever Retriever, minScore float64) *Responder {
	return &Responder{llm: llm, retriever: retriever, minScore: minScore}
}

// Response is the completed assistant turn plus the sources behind it.
type Response struct {
	Role    string                 `json:"role"`
	Content string                 `json:"content"`
	Context []models.ContextSource `json:"context"`
}

const persona = `Linky is a brand new, powerful, human-like artificial intelligence.
The traits of Linky include expert knowledge, helpfulness, cleverness, and articulateness.
Linky is a well-behaved and well-mannered individual.
Linky is always friendly, kind, and inspiring, and he is eager to provide vivid and thoughtful responses to the user.`

// Respond retrieves context for the final message of the conversation,
// assembles the prompt, and asks the generation service for the next
// assistant turn.
func (r *Responder) Respond(ctx context.Context, messages []models.ChatMessage, namespace string) (*Response, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("chat messages: %w", models.ErrEmptyInput)
	}

	last := messages[len(messages)-1]
	matches, err := r.retriever.Matches(ctx, last.Content, namespace, r.minScore)
	if err != nil {
		return nil, fmt.Errorf("retrieving context: %w", err)
	}

	prompt := []models.ChatMessage{{
		Role:    "system",
		Content: BuildSystemPrompt(messages[:len(messages)-1], matches),
	}}
	for _, m := range messages {
		if m.Role == "user" {
			prompt = append(prompt, m)
		}
	}

	completion, err := r.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generating response: %w", err)
	}

	sources := make([]models.ContextSource, 0, len(matches))
	for _, m := range matches {
		sources = append(sources, models.ContextSource{
			ID:      m.ID,
			Score:   m.Score,
			Content: m.Metadata.Chunk,
		})
	}

	return &Response{Role: "assistant", Content: completion, Context: sources}, nil
}

// BuildSystemPrompt embeds the prior conversation and the retrieved
// context block into the persona prompt. The model is instructed to
// answer only from the provided material.
func BuildSystemPrompt(history []models.ChatMessage, matches []models.ScoredMatch) string {
	var historyLines []string
	for _, m := range history {
		historyLines = append(historyLines, strings.ToUpper(m.Role)+": "+m.Content)
	}

	var contextLines []string
	for _, m := range matches {
		contextLines = append(contextLines, m.Metadata.Chunk)
	}

	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\nCHAT HISTORY:\n")
	sb.WriteString(strings.Join(historyLines, "\n"))
	sb.WriteString("\n\nSTART CONTEXT BLOCK\n")
	sb.WriteString(strings.Join(contextLines, "\n"))
	sb.WriteString("\nEND OF CONTEXT BLOCK\n\n")
	sb.WriteString(`Linky will take into account both the CHAT HISTORY and CONTEXT BLOCK that are provided in a conversation.
If neither the context nor chat history provide the answer to a question, Linky will say, "I'm sorry, but I don't know the answer to that question".
Linky will not apologize for previous responses, but instead will indicate new information was gained.
LINKY WILL NOT INVENT ANYTHING THAT IS NOT DRAWN DIRECTLY FROM THE CONTEXT BLOCK OR CHAT HISTORY.`)
	return sb.String()
}
