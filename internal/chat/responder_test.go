// ABOUTME: Tests for the chat responder
// ABOUTME: Verifies prompt assembly, user-message filtering, and source reporting
package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/harper/linky/internal/models"
)

type fakeCompleter struct {
	gotMessages []models.ChatMessage
	reply       string
	err         error
}

func (c *fakeCompleter) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	c.gotMessages = messages
	return c.reply, c.err
}

type fakeRetriever struct {
	matches    []models.ScoredMatch
	gotMessage string
}

func (r *fakeRetriever) Matches(ctx context.Context, message, namespace string, minScore float64) ([]models.ScoredMatch, error) {
	r.gotMessage = message
	return r.matches, nil
}

func conversation() []models.ChatMessage {
	return []models.ChatMessage{
		{Role: "user", Content: "What is a pangolin?"},
		{Role: "assistant", Content: "A scaled mammal."},
		{Role: "user", Content: "Where do they live?"},
	}
}

func TestRespond(t *testing.T) {
	completer := &fakeCompleter{reply: "Across Africa and Asia."}
	retriever := &fakeRetriever{matches: []models.ScoredMatch{
		{ID: "h1", Score: 0.91, Metadata: models.RecordMetadata{Chunk: "Pangolins live in Africa and Asia."}},
	}}
	r := NewResponder(completer, retriever, 0.7)

	resp, err := r.Respond(context.Background(), conversation(), "ns-1")
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if resp.Role != "assistant" {
		t.Errorf("role = %q", resp.Role)
	}
	if resp.Content != "Across Africa and Asia." {
		t.Errorf("content = %q", resp.Content)
	}
	if len(resp.Context) != 1 || resp.Context[0].ID != "h1" || resp.Context[0].Score != 0.91 {
		t.Errorf("context sources = %+v", resp.Context)
	}

	// Retrieval keyed on the latest message
	if retriever.gotMessage != "Where do they live?" {
		t.Errorf("retrieval message = %q", retriever.gotMessage)
	}

	// Prompt: system first, then only user messages
	if completer.gotMessages[0].Role != "system" {
		t.Fatalf("first prompt message role = %q", completer.gotMessages[0].Role)
	}
	for _, m := range completer.gotMessages[1:] {
		if m.Role != "user" {
			t.Errorf("non-user message %q leaked into prompt", m.Role)
		}
	}
	if len(completer.gotMessages) != 3 {
		t.Errorf("prompt messages = %d, want 3 (system + 2 user)", len(completer.gotMessages))
	}
}

func TestRespond_EmptyConversation(t *testing.T) {
	r := NewResponder(&fakeCompleter{}, &fakeRetriever{}, 0.7)
	if _, err := r.Respond(context.Background(), nil, "ns"); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestRespond_CompleterErrorPropagates(t *testing.T) {
	wantErr := errors.New("model unavailable")
	r := NewResponder(&fakeCompleter{err: wantErr}, &fakeRetriever{}, 0.7)
	if _, err := r.Respond(context.Background(), conversation(), "ns"); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want wrapped completer error", err)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	history := []models.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}
	matches := []models.ScoredMatch{
		{Metadata: models.RecordMetadata{Chunk: "retrieved fact one"}},
		{Metadata: models.RecordMetadata{Chunk: "retrieved fact two"}},
	}

	prompt := BuildSystemPrompt(history, matches)

	if !strings.Contains(prompt, "USER: hi") || !strings.Contains(prompt, "ASSISTANT: hello") {
		t.Error("prompt missing chat history lines")
	}
	if !strings.Contains(prompt, "START CONTEXT BLOCK") || !strings.Contains(prompt, "END OF CONTEXT BLOCK") {
		t.Error("prompt missing context block markers")
	}
	if !strings.Contains(prompt, "retrieved fact one\nretrieved fact two") {
		t.Error("prompt missing retrieved chunks")
	}
	start := strings.Index(prompt, "START CONTEXT BLOCK")
	if fact := strings.Index(prompt, "retrieved fact one"); fact < start {
		t.Error("context appears outside the context block")
	}
}
