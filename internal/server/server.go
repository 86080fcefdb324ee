// Package server exposes the digest pipeline over HTTP, including the
// progressive delivery stream.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/piyush0609/ai-pulse/internal/config"
	"github.com/piyush0609/ai-pulse/internal/feed"
	"github.com/piyush0609/ai-pulse/internal/service"
	"github.com/piyush0609/ai-pulse/internal/store"
)

// Digester is the pipeline collaborator behind every route.
type Digester interface {
	Digest(ctx context.Context, forceFresh bool) ([]byte, error)
	Stream(ctx context.Context, forceFresh bool) <-chan service.Event
	Debug(ctx context.Context) (*service.DebugReport, error)
	Clear(ctx context.Context) error
	History(ctx context.Context, limit int) ([]store.Entry, error)
}

// Fetcher serves the raw aggregated items, uncurated.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]feed.Item, error)
}

// Config holds server configuration.
type Config struct {
	Digester Digester
	Feeds    Fetcher
	Sources  []config.Source
	Logger   *slog.Logger
}

// Server handles HTTP requests.
type Server struct {
	digester Digester
	feeds    Fetcher
	sources  []config.Source
	logger   *slog.Logger
}

func New(cfg *Config) *Server {
	return &Server{
		digester: cfg.Digester,
		feeds:    cfg.Feeds,
		sources:  cfg.Sources,
		logger:   cfg.Logger,
	}
}

// Handler returns the route table. Split out from ListenAndServe so tests
// can drive it through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/digest", s.handleDigest)
	mux.HandleFunc("/api/digest/stream", s.handleStream)
	mux.HandleFunc("/api/digest/refresh", s.handleRefresh)
	mux.HandleFunc("/api/digest/history", s.handleHistory)
	mux.HandleFunc("/api/feeds", s.handleFeeds)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe starts the server with timeouts to prevent resource
// exhaustion. WriteTimeout is generous because a cold digest request waits
// on every upstream feed plus an LLM round trip.
func (s *Server) ListenAndServe(port int) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	s.logger.Info("starting HTTP server", "port", port)
	return server.ListenAndServe()
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("debug") == "1" {
		report, err := s.digester.Debug(r.Context())
		if err != nil {
			s.logger.Error("debug report failed", "error", err)
			s.writeError(w, http.StatusBadGateway, "failed to generate digest")
			return
		}
		s.writeJSON(w, report)
		return
	}

	fresh := r.URL.Query().Get("fresh") == "1"
	data, err := s.digester.Digest(r.Context(), fresh)
	if err != nil {
		s.logger.Error("digest request failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to generate digest")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write digest response", "error", err)
	}
}

// handleStream delivers progress events and the final digest over
// server-sent events. Event order mirrors pipeline stages; the client can
// drop the connection at any time without losing the cache write.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fresh := r.URL.Query().Get("fresh") == "1"
	for ev := range s.digester.Stream(r.Context(), fresh) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("failed to encode stream event", "type", ev.Type, "error", err)
			return
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
			// Client went away; the pipeline finishes on its own.
			return
		}
		flusher.Flush()
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.logger.Info("manual refresh triggered")
	data, err := s.digester.Digest(r.Context(), true)
	if err != nil {
		s.logger.Error("refresh failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to generate digest")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write refresh response", "error", err)
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	entries, err := s.digester.History(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	s.writeJSON(w, entries)
}

// handleFeeds serves the raw aggregated item list, bypassing synthesis.
// The front end uses it for the uncurated "all items" browse view.
func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	items, err := s.feeds.FetchAll(r.Context())
	if err != nil {
		s.logger.Error("feed fetch failed", "error", err)
		s.writeError(w, http.StatusBadGateway, "failed to fetch feeds")
		return
	}

	type sourceInfo struct {
		Name string `json:"name"`
		Type string `json:"type"`
		Icon string `json:"icon,omitempty"`
	}
	sources := make([]sourceInfo, 0, len(s.sources))
	for _, src := range s.sources {
		if !src.Enabled {
			continue
		}
		sources = append(sources, sourceInfo{Name: src.Name, Type: src.Type, Icon: src.Icon})
	}

	s.writeJSON(w, struct {
		Items     []feed.Item  `json:"items"`
		FetchedAt feed.Time    `json:"fetchedAt"`
		Sources   []sourceInfo `json:"sources"`
	}{
		Items:     items,
		FetchedAt: feed.Time{Time: time.Now()},
		Sources:   sources,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprint(w, `{"status":"healthy"}`); err != nil {
		s.logger.Warn("failed to write health response", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": msg}); err != nil {
		s.logger.Warn("failed to encode error response", "error", err)
	}
}
