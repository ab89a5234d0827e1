// Package chi exposes the discovery engine over HTTP: the query endpoint,
// health, and Prometheus metrics.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/usecase/discovery"
	"github.com/kailas-cloud/memberscout/internal/usecase/health"
)

const maxQueryTextLen = 1024

// QueryRunner is the consumer interface for the discovery service (ISP).
type QueryRunner interface {
	RunQuery(ctx context.Context, req discovery.Request) (discovery.Outcome, error)
}

// HealthChecker aggregates component liveness for the health endpoint.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server hosts the HTTP API.
type Server struct {
	runner        QueryRunner
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(runner QueryRunner, checker HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		runner: runner,
		health: checker,
		logger: logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSpec, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrTotalRetrievalFailure, http.StatusServiceUnavailable, CodeRetrievalUnavailable),
		sentinelHandler(domain.ErrExtractionProviderError, http.StatusBadGateway, CodeExtractionUnavailable),
		sentinelHandler(domain.ErrEmbeddingUnavailable, http.StatusBadGateway, CodeRetrievalUnavailable),
	}
	return s
}

// Routes mounts all endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/query", s.handleQuery)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// handleQuery runs one discovery turn.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.TenantID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "tenant_id is required")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "session_id is required")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return
	}
	if len(req.Text) > maxQueryTextLen {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is too long")
		return
	}

	outcome, err := s.runner.RunQuery(r.Context(), discovery.Request{
		TenantID:  req.TenantID,
		SessionID: req.SessionID,
		Text:      req.Text,
		Limit:     req.Limit,
		Offset:    req.Offset,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toQueryResponse(outcome))
}

// handleHealth reports aggregated component liveness. A degraded report
// still answers 200: queries are being served, just without the vector path.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == health.Unhealthy {
		s.logger.Warn("health check failed", zap.Any("checks", report.Checks))
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, toHealthResponse(report))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// safeDomainMessage maps an error to a message safe to expose. Anything that
// is not a known sentinel is reported generically so internals never leak.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidSpec,
		domain.ErrTotalRetrievalFailure,
		domain.ErrExtractionProviderError,
		domain.ErrEmbeddingUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}
