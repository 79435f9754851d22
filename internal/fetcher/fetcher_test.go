// ABOUTME: Tests for the reader proxy client
// ABOUTME: Verifies fetch failure modes and title heuristics
package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/linky/internal/models"
)

func TestFetch_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		_, _ = w.Write([]byte("Title: Example Page\n\nSome readable text.\n"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	content, err := c.Fetch(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(content, "Some readable text.") {
		t.Errorf("content = %q", content)
	}
	if !strings.Contains(gotPath, "example.com") {
		t.Errorf("proxied path = %q, want original URL embedded", gotPath)
	}
}

func TestFetch_EmptyURL(t *testing.T) {
	c := NewClient("http://localhost:0")
	if _, err := c.Fetch(context.Background(), "  "); !errors.Is(err, models.ErrEmptyInput) {
		t.Errorf("error = %v, want ErrEmptyInput", err)
	}
}

func TestFetch_EmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("   \n  "))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(context.Background(), "https://example.com"); !errors.Is(err, models.ErrNoContent) {
		t.Errorf("error = %v, want ErrNoContent", err)
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unreachable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Fetch(context.Background(), "https://example.com"); err == nil {
		t.Error("expected error for non-2xx status")
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"explicit title line", "Title: My Great Page\nMore text", "My Great Page"},
		{"first non-empty line", "\n\nOpening line here\nsecond line", "Opening line here"},
		{"long first line capped", strings.Repeat("x", 150), strings.Repeat("x", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			if got := c.Title(context.Background(), "https://example.com/page"); got != tt.want {
				t.Errorf("Title() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTitle_FallsBackToHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if got := c.Title(context.Background(), "https://example.com/deep/path"); got != "example.com" {
		t.Errorf("Title() = %q, want host fallback", got)
	}
}
