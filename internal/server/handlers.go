// ABOUTME: HTTP handlers for the Linky API
// ABOUTME: SSE ingestion streaming, progress polling, chat, documents, clear, title
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/harper/linky/internal/models"
	"github.com/harper/linky/internal/util"
)

// progressPollInterval is how often the progress stream re-reads the tracker.
const progressPollInterval = 500 * time.Millisecond

type crawlRequest struct {
	URL     string               `json:"url"`
	Options models.IngestOptions `json:"options"`
	UserID  string               `json:"userId"`
}

type chatRequest struct {
	Messages []models.ChatMessage `json:"messages"`
	UserID   string               `json:"userId"`
}

type userRequest struct {
	UserID string `json:"userId"`
}

type titleRequest struct {
	URL string `json:"url"`
}

// handleCrawl ingests a URL and streams progress frames over SSE.
// Every frame, including terminal errors, is a "data: {json}" event so
// the client sees a single uniform stream.
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	setSSEHeaders(w)

	if req.URL == "" || req.UserID == "" {
		s.writeEvent(w, flusher, models.ProgressEvent{Error: "url and userId are required"})
		return
	}

	namespace := util.UserNamespace(req.UserID)
	onProgress := func(event models.ProgressEvent) error {
		return s.writeEvent(w, flusher, event)
	}

	result, err := s.ingestor.Seed(r.Context(), req.URL, req.Options, namespace, onProgress)
	if err != nil {
		s.logger.Error("crawl failed", zap.String("url", req.URL), zap.Error(err))
		s.writeEvent(w, flusher, models.ProgressEvent{Error: err.Error()})
		return
	}
	s.logger.Info("crawl complete",
		zap.String("url", req.URL),
		zap.Int("upserted", result.Upserted),
		zap.Int("skipped", result.Skipped))
}

// handleCrawlProgress streams the tracked percentage for a URL until the
// client disconnects.
func (s *Server) handleCrawlProgress(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		s.respondError(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	setSSEHeaders(w)

	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	if err := s.writeEvent(w, flusher, models.ProgressEvent{Progress: s.tracker.Get(url)}); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := s.writeEvent(w, flusher, models.ProgressEvent{Progress: s.tracker.Get(url)}); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if len(req.Messages) == 0 {
		s.respondError(w, http.StatusBadRequest, "messages are required")
		return
	}

	resp, err := s.responder.Respond(r.Context(), req.Messages, util.UserNamespace(req.UserID))
	if err != nil {
		s.logger.Error("chat failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// handleDocuments enumerates everything stored in the caller's namespace.
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	matches, err := s.retriever.Matches(r.Context(), "", util.UserNamespace(req.UserID), 0)
	if err != nil {
		s.logger.Error("listing documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "documents": matches})
}

// handleClear wipes the caller's namespace, plus the default namespace
// when it still holds records from before namespacing existed.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	stats, err := s.store.DescribeStats(r.Context())
	if err != nil {
		s.logger.Error("describing index failed", zap.Error(err))
		s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "No index to clear"})
		return
	}

	namespace := util.UserNamespace(req.UserID)
	cleared := 0
	if stats.Namespaces[""] > 0 {
		if err := s.store.DeleteNamespace(r.Context(), ""); err != nil {
			s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("clearing default namespace: %v", err))
			return
		}
		cleared++
	}
	if stats.Namespaces[namespace] > 0 {
		if err := s.store.DeleteNamespace(r.Context(), namespace); err != nil {
			s.respondError(w, http.StatusInternalServerError, fmt.Sprintf("clearing namespace: %v", err))
			return
		}
		cleared++
	}

	message := "Index cleared successfully"
	if cleared == 0 {
		message = "No data to clear"
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": message})
}

// handleTitle fetches a display title for a URL. Title derivation never
// fails; the worst case is the URL's hostname.
func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		s.respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"title": s.titler.Title(r.Context(), req.URL)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
}

// writeEvent emits one SSE data frame and flushes it to the client.
func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, event models.ProgressEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("writing event: %w", err)
	}
	flusher.Flush()
	return nil
}
