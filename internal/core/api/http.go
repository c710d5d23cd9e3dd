// internal/core/api/http.go
package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/solatis/tripwire/internal/core/auth"
	"github.com/solatis/tripwire/internal/rules"
	"github.com/solatis/tripwire/internal/types"
)

/*
 * HTTP API.
 *
 *   GET    /api/v1/health
 *   GET    /api/v1/rules                 ETag / If-None-Match supported
 *   POST   /api/v1/rules                 {"condition": ..., "action": ...}
 *   DELETE /api/v1/rules                 clear all rules
 *   GET    /api/v1/rules/{id}
 *   DELETE /api/v1/rules/{id}
 *   POST   /api/v1/messages              message object -> {"actions": [...]}
 *   POST   /api/v1/messages/batch        {"messages": [...]} -> {"results": [...]}
 *   GET    /api/v1/statistics
 *   DELETE /api/v1/statistics            reset
 *   GET    /metrics                      when a gatherer is configured
 *
 * Request bodies are decoded with UseNumber so numeric message fields keep
 * their literal text until condition.ValueOf parses them.
 */

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// RouterConfig holds the optional parts of the HTTP router.
type RouterConfig struct {
	Auth           *auth.Authenticator // nil disables authentication
	Gatherer       prometheus.Gatherer // nil omits /metrics
	RequestTimeout time.Duration       // zero disables the timeout middleware
	Logger         zerolog.Logger
}

// NewRouter builds the chi router for svc.
func NewRouter(svc *Service, cfg RouterConfig) http.Handler {
	h := &httpHandler{svc: svc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}
	if cfg.Auth != nil {
		r.Use(cfg.Auth.Middleware("/api/v1/health", "/metrics"))
	}

	r.Get("/api/v1/health", h.handleHealth)

	r.Route("/api/v1/rules", func(r chi.Router) {
		r.Get("/", h.handleListRules)
		r.Post("/", h.handleAddRule)
		r.Delete("/", h.handleClearRules)
		r.Get("/{id}", h.handleGetRule)
		r.Delete("/{id}", h.handleDeleteRule)
	})

	r.Post("/api/v1/messages", h.handleProcessMessage)
	r.Post("/api/v1/messages/batch", h.handleProcessBatch)

	r.Get("/api/v1/statistics", h.handleGetStatistics)
	r.Delete("/api/v1/statistics", h.handleResetStatistics)

	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	return r
}

type httpHandler struct {
	svc *Service
}

type ruleJSON struct {
	ID        string `json:"id"`
	Condition string `json:"condition"`
	Action    string `json:"action"`
	CreatedAt string `json:"created_at"`
}

func newRuleJSON(r types.RuleRecord) ruleJSON {
	return ruleJSON{
		ID:        r.ID.String(),
		Condition: r.Condition,
		Action:    r.Action,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type statisticsJSON struct {
	MessagesProcessed        uint64  `json:"messages_processed"`
	RulesTriggered           uint64  `json:"rules_triggered"`
	EvaluationErrors         uint64  `json:"evaluation_errors"`
	TotalEvaluationSeconds   float64 `json:"total_evaluation_seconds"`
	AverageEvaluationSeconds float64 `json:"average_evaluation_seconds"`
}

func newStatisticsJSON(s rules.StatisticsSnapshot) statisticsJSON {
	return statisticsJSON{
		MessagesProcessed:        s.MessagesProcessed,
		RulesTriggered:           s.RulesTriggered,
		EvaluationErrors:         s.EvaluationErrors,
		TotalEvaluationSeconds:   s.TotalEvaluationTime.Seconds(),
		AverageEvaluationSeconds: s.AverageEvaluationTime.Seconds(),
	}
}

func (h *httpHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.listRules(r.Context())
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"rules":  len(list.Rules),
	})
}

func (h *httpHandler) handleListRules(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.listRules(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}

	etag := `"` + list.ETag + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	out := make([]ruleJSON, len(list.Rules))
	for i, rec := range list.Rules {
		out[i] = newRuleJSON(rec)
	}
	respondJSON(w, http.StatusOK, map[string]any{"rules": out})
}

func (h *httpHandler) handleAddRule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Condition string `json:"condition"`
		Action    string `json:"action"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	id, err := h.svc.addRule(r.Context(), req.Condition, req.Action)
	if err != nil {
		respondError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/rules/"+id.String())
	respondJSON(w, http.StatusCreated, map[string]string{"id": id.String()})
}

func (h *httpHandler) handleClearRules(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.clearRules(r.Context()); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) handleGetRule(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.getRule(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newRuleJSON(rec))
}

func (h *httpHandler) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.deleteRule(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *httpHandler) handleProcessMessage(w http.ResponseWriter, r *http.Request) {
	var msg map[string]any
	if err := decodeBody(w, r, &msg); err != nil {
		respondError(w, err)
		return
	}
	if msg == nil {
		respondError(w, fmt.Errorf("%w: message must be a JSON object", errInvalidRequest))
		return
	}

	actions, err := h.svc.processMessage(r.Context(), msg)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"actions": actions})
}

func (h *httpHandler) handleProcessBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	results, err := h.svc.processBatch(r.Context(), req.Messages)
	if err != nil {
		respondError(w, err)
		return
	}

	out := make([]map[string]any, len(results))
	for i, res := range results {
		if res.Err != nil {
			out[i] = map[string]any{"error": res.Err.Error()}
		} else {
			out[i] = map[string]any{"actions": res.Actions}
		}
	}
	respondJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (h *httpHandler) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newStatisticsJSON(h.svc.statistics()))
}

func (h *httpHandler) handleResetStatistics(w http.ResponseWriter, r *http.Request) {
	h.svc.resetStatistics()
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody decodes one JSON value from the request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errInvalidRequest, maxBodyBytes)
		}
		return fmt.Errorf("%w: read body: %v", errInvalidRequest, err)
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errInvalidRequest, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, httpStatus(err), map[string]string{"error": err.Error()})
}

// requestLogger logs one line per request with the chi request id.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
