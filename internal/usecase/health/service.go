// Package health aggregates component liveness into a single report. Redis
// is a hard dependency: without it neither retrieval path can run. The
// embedding provider is soft: lexical retrieval still serves results when
// it is down, so its failure only degrades the report.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the vector path is impaired but queries still work.
	Degraded Status = "degraded"
	// Unhealthy indicates queries cannot be served at all.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	redis     RedisPinger
	embedding EmbeddingChecker
}

// New creates a Service. embedding can be nil when no provider is configured.
func New(redis RedisPinger, embedding EmbeddingChecker) *Service {
	return &Service{redis: redis, embedding: embedding}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.redis.Ping(ctx); err != nil {
		checks["redis"] = CheckError
		status = Unhealthy
	} else {
		checks["redis"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
