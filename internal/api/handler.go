// Package api exposes the gateway operations as JSON over HTTP.
//
// Every operation answers 200 with a discriminated {success, ...} body. Non-200
// codes are reserved for malformed requests, local rate limiting and panics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/basel-ax/imagegate/internal/domain"
	"github.com/basel-ax/imagegate/internal/fence"
	"github.com/basel-ax/imagegate/internal/metrics"
)

// SessionHeader opts a generate call into request fencing
const SessionHeader = "X-Session-ID"

// MsgTooManyRequests is returned by the local rate limiter
const MsgTooManyRequests = "Too many generation requests. Please slow down."

const maxRequestBody = 64 << 10

// Generator runs one image generation
type Generator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) domain.GenerationResult
}

// ModelCatalog lists available models
type ModelCatalog interface {
	ListModels(ctx context.Context) domain.ModelsResult
}

// HistoryLister lists previous generations
type HistoryLister interface {
	ListHistory(ctx context.Context) domain.HistoryResult
}

// DiagnosticsRunner runs raw upstream probes
type DiagnosticsRunner interface {
	TestConnection(ctx context.Context) domain.DiagnosticResult
	TestModelsEndpoint(ctx context.Context) domain.DiagnosticResult
}

// Dependencies are the services behind the HTTP surface
type Dependencies struct {
	Generator   Generator
	Models      ModelCatalog
	History     HistoryLister
	Diagnostics DiagnosticsRunner
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

// Options tune the HTTP surface
type Options struct {
	GenerateRPS   float64
	GenerateBurst int
	SessionTTL    time.Duration
}

type handler struct {
	deps  Dependencies
	board *fence.Board[domain.GenerationResult]
}

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type generateResponse struct {
	domain.GenerationResult
	Seq uint64 `json:"seq,omitempty"`
}

type latestResponse struct {
	Seq       uint64                  `json:"seq"`
	UpdatedAt time.Time               `json:"updated_at"`
	Result    domain.GenerationResult `json:"result"`
}

// NewHandler builds the routed, middleware-wrapped handler. ctx bounds the
// rate limiter's background cleanup.
func NewHandler(ctx context.Context, deps Dependencies, opts Options) http.Handler {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.With(zap.String("component", "api"))
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}

	h := &handler{
		deps:  deps,
		board: fence.NewBoard[domain.GenerationResult](opts.SessionTTL),
	}

	var generate http.Handler = http.HandlerFunc(h.generate)
	if opts.GenerateRPS > 0 {
		burst := opts.GenerateBurst
		if burst < 1 {
			burst = 1
		}
		generate = RateLimiter(ctx, opts.GenerateRPS, burst, logger)(generate)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /api/generate", generate)
	mux.HandleFunc("GET /api/generate/latest", h.latest)
	mux.HandleFunc("GET /api/models", h.models)
	mux.HandleFunc("GET /api/history", h.history)
	mux.HandleFunc("POST /api/debug/connection", h.testConnection)
	mux.HandleFunc("GET /api/debug/models", h.testModels)
	mux.HandleFunc("GET /healthz", h.health)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	return Chain(mux,
		RequestID(),
		RequestLogger(logger, deps.Metrics),
		Recovery(logger),
	)
}

func (h *handler) generate(w http.ResponseWriter, r *http.Request) {
	var req domain.GenerationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		msg := "invalid request body"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			msg = "request body too large"
		}
		writeJSON(w, http.StatusBadRequest, domain.GenerationFailed(domain.KindValidation, msg))
		return
	}

	session := r.Header.Get(SessionHeader)
	var seq uint64
	if session != "" {
		seq = h.board.Next(session)
	}

	result := h.deps.Generator.Generate(r.Context(), req)

	if session != "" && !h.board.Publish(session, seq, result) {
		h.deps.Logger.Debug("stale generation result superseded",
			zap.String("session", session),
			zap.Uint64("seq", seq),
		)
	}

	writeJSON(w, http.StatusOK, generateResponse{GenerationResult: result, Seq: seq})
}

func (h *handler) latest(w http.ResponseWriter, r *http.Request) {
	session := r.Header.Get(SessionHeader)
	if session == "" {
		session = r.URL.Query().Get("session")
	}
	if session == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "session is required"})
		return
	}

	entry, ok := h.board.Latest(session)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no result for session"})
		return
	}
	writeJSON(w, http.StatusOK, latestResponse{Seq: entry.Seq, UpdatedAt: entry.UpdatedAt, Result: entry.Value})
}

func (h *handler) models(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Models.ListModels(r.Context()))
}

func (h *handler) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.History.ListHistory(r.Context()))
}

func (h *handler) testConnection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Diagnostics.TestConnection(r.Context()))
}

func (h *handler) testModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Diagnostics.TestModelsEndpoint(r.Context()))
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
