// Package server exposes the pipeline runner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"forcestatus/internal/core"
	"forcestatus/internal/forcestatus"
	"forcestatus/internal/result"
)

const maxPipelineSize = 1 << 20

type Server struct {
	mu     sync.Mutex
	runner *core.Runner
	builds map[string]*core.Build
	ctx    context.Context
	wg     sync.WaitGroup
	logger *slog.Logger
}

// New returns a server running builds on runner. Builds are cancelled when
// ctx is done.
func New(ctx context.Context, runner *core.Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		runner: runner,
		builds: make(map[string]*core.Build),
		ctx:    ctx,
		logger: logger,
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/pipelines", s.handleSubmitPipeline)
	r.Get("/pipelines/{id}", s.handleGetPipelineStatus)
	r.Post("/pipelines/{id}/abort", s.handleAbortPipeline)
	r.Get("/results", s.handleResultItems)
	r.Get("/history/verify", s.handleVerifyHistory)
	return r
}

// Wait blocks until every started build has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

type buildStatus struct {
	ID       string         `json:"id"`
	Number   int            `json:"number,omitempty"`
	Pipeline string         `json:"pipeline,omitempty"`
	Status   string         `json:"status"`
	Result   *result.Result `json:"result,omitempty"`
	Forced   bool           `json:"forced,omitempty"`
}

// POST /pipelines -> submit a new pipeline YAML
func (s *Server) handleSubmitPipeline(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPipelineSize))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}

	pipeline, err := core.ParsePipeline(data)
	if err != nil {
		http.Error(w, "invalid pipeline: "+err.Error(), http.StatusBadRequest)
		return
	}

	b := s.runner.NewBuild(pipeline)
	s.mu.Lock()
	s.builds[b.ID] = b
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.runner.Run(s.ctx, b, pipeline); err != nil {
			s.logger.Warn("Pipeline stopped", "build", b.ID, "error", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, buildStatus{ID: b.ID, Number: b.Number, Status: string(core.StatusPending)})
}

// GET /pipelines/{id}
func (s *Server) handleGetPipelineStatus(w http.ResponseWriter, r *http.Request) {
	b, ok := s.build(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, statusOf(b))
}

// POST /pipelines/{id}/abort
func (s *Server) handleAbortPipeline(w http.ResponseWriter, r *http.Request) {
	b, ok := s.build(chi.URLParam(r, "id"))
	if !ok {
		http.Error(w, "pipeline not found", http.StatusNotFound)
		return
	}
	if err := b.Interrupt(result.Aborted); err != nil {
		if errors.Is(err, core.ErrExecutorReleased) {
			http.Error(w, "pipeline is not running", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, statusOf(b))
}

// GET /results -> items of the result combo box
func (s *Server) handleResultItems(w http.ResponseWriter, r *http.Request) {
	d := forcestatus.Descriptor{}
	writeJSON(w, http.StatusOK, map[string]any{
		"displayName": d.DisplayName(),
		"items":       d.FillResultItems(),
	})
}

// GET /history/verify -> run VerifyChain
func (s *Server) handleVerifyHistory(w http.ResponseWriter, r *http.Request) {
	if s.runner.History == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	if err := s.runner.History.VerifyChain(); err != nil {
		http.Error(w, "history verification failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) build(id string) (*core.Build, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.builds[id]
	return b, ok
}

func statusOf(b *core.Build) buildStatus {
	st := buildStatus{
		ID:       b.ID,
		Number:   b.Number,
		Pipeline: b.Pipeline,
		Status:   string(b.Status()),
		Forced:   b.Forced(),
	}
	if st.Status == string(core.StatusFinished) {
		if res, ok := b.Result(); ok {
			st.Result = &res
		}
	}
	return st
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
