// Package server exposes the generator as a small HTTP service: JSON
// endpoints for the archive and a websocket endpoint that streams
// generation progress.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/oisee/emergent-adventure/internal/config"
	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/store"
	"github.com/oisee/emergent-adventure/internal/world"
)

// Server is the generation service.
type Server struct {
	cfg *config.Config
	gen *world.Generator

	// archive may be nil when the service runs without persistence.
	archive *store.Store

	httpServer *http.Server
}

// New creates a server around a generator and an optional archive.
func New(cfg *config.Config, gen *world.Generator, archive *store.Store) *Server {
	s := &Server{cfg: cfg, gen: gen, archive: archive}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/api/worlds", s.handleWorlds)
	mux.HandleFunc("/api/worlds/", s.handleWorldByID)
	mux.HandleFunc("/ws/generate", s.handleGenerate)

	s.httpServer = &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: mux,
	}
	return s
}

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	logger.Info("generation service listening", "addr", s.cfg.Server.ListenAddr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleWorlds lists archived worlds.
func (s *Server) handleWorlds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}

	limit := 50
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}

	summaries, err := s.archive.ListWorlds(limit)
	if err != nil {
		logger.Error("failed to list worlds", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// handleWorldByID returns one archived world with its rendered map and
// summary.
func (s *Server) handleWorldByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.archive == nil {
		http.Error(w, "archive disabled", http.StatusNotFound)
		return
	}

	idStr := strings.TrimPrefix(r.URL.Path, "/api/worlds/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		http.Error(w, "bad world id", http.StatusBadRequest)
		return
	}

	ws, err := s.archive.LoadWorld(id)
	if err != nil {
		if err == store.ErrNotFound {
			http.Error(w, "world not found", http.StatusNotFound)
			return
		}
		logger.Error("failed to load world", "id", id, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(worldResponse(ws))
}

// WorldPayload is the JSON shape of a finished world.
type WorldPayload struct {
	Seed    int64  `json:"seed"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Genre   string `json:"genre"`
	Goal    string `json:"goal"`
	Attempt int    `json:"attempt"`
	Map     string `json:"map"`
	Summary string `json:"summary"`
}

func worldResponse(ws *world.WorldState) WorldPayload {
	return WorldPayload{
		Seed:    ws.Params.Seed,
		Width:   ws.Params.Width,
		Height:  ws.Params.Height,
		Genre:   ws.Params.Genre,
		Goal:    ws.Params.Goal.String(),
		Attempt: ws.Attempt,
		Map:     ws.RenderMap(true),
		Summary: ws.Summary(),
	}
}
