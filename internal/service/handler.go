// Package service exposes the generation pipeline and the creation memory over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/easeaico/scenecraft/internal/config"
	"github.com/easeaico/scenecraft/internal/memory"
	"github.com/easeaico/scenecraft/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// maxLimit caps list and search sizes requested over HTTP.
const maxLimit = 100

// Runner executes one generation run.
type Runner interface {
	Run(ctx context.Context, prompt string) pipeline.Result
}

// Creations is the read side of the creation memory.
type Creations interface {
	memory.Retriever
	Get(ctx context.Context, id string) (*memory.CreationRecord, error)
	Recent(ctx context.Context, limit int) ([]memory.CreationRecord, error)
}

// AppRegistry stores per-user app configuration.
type AppRegistry interface {
	Set(uid string, c config.AppConfig)
}

// Server holds the handler dependencies.
type Server struct {
	runner    Runner
	creations Creations
	apps      AppRegistry
	gatherer  prometheus.Gatherer
	logger    *zap.Logger
}

// ExecutionRequest is the body of POST /execution.
type ExecutionRequest struct {
	Prompt string `json:"prompt"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewHandler builds the HTTP routes.
func NewHandler(runner Runner, creations Creations, apps AppRegistry, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner:    runner,
		creations: creations,
		apps:      apps,
		gatherer:  gatherer,
		logger:    logger.With(zap.String("component", "http")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/execution", s.Execute)
	r.Post("/config", s.Configure)
	r.Route("/creations", func(r chi.Router) {
		r.Get("/", s.ListCreations)
		r.Get("/similar", s.SimilarCreations)
		r.Get("/{id}", s.GetCreation)
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Execute handles POST /execution.
func (s *Server) Execute(w http.ResponseWriter, r *http.Request) {
	var body ExecutionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("execute: invalid request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	res := s.runner.Run(r.Context(), body.Prompt)
	writeJSON(w, statusFor(res), res.Response())
}

// Configure handles POST /config with a map of user id to app configuration.
func (s *Server) Configure(w http.ResponseWriter, r *http.Request) {
	var body map[string]config.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.logger.Warn("configure: invalid request body", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	users := make([]string, 0, len(body))
	for uid, c := range body {
		s.apps.Set(uid, c)
		users = append(users, uid)
	}
	s.logger.Info("configuration updated", zap.Strings("users", users))
	writeJSON(w, http.StatusOK, map[string]any{"configured": len(users)})
}

// ListCreations handles GET /creations.
func (s *Server) ListCreations(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	records, err := s.creations.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("list creations failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to list creations"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// SimilarCreations handles GET /creations/similar.
func (s *Server) SimilarCreations(w http.ResponseWriter, r *http.Request) {
	prompt := r.URL.Query().Get("prompt")
	if prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	records, err := s.creations.QuerySimilar(r.Context(), prompt, limit)
	if err != nil {
		s.logger.Error("similar creations failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to query creations"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// GetCreation handles GET /creations/{id}.
func (s *Server) GetCreation(w http.ResponseWriter, r *http.Request) {
	rec, err := s.creations.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, memory.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "creation not found"})
		return
	}
	if err != nil {
		s.logger.Error("get creation failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to get creation"})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxLimit {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "limit must be between 0 and 100"})
		return 0, false
	}
	return n, true
}

func statusFor(res pipeline.Result) int {
	if res.OK() {
		return http.StatusOK
	}
	if res.Err == nil {
		return http.StatusInternalServerError
	}
	switch res.Err.Code {
	case pipeline.CodeValidation:
		return http.StatusBadRequest
	case pipeline.CodeServiceCall:
		return http.StatusBadGateway
	case pipeline.CodeModelLoad:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
