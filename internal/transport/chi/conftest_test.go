package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
	"github.com/kailas-cloud/memberscout/internal/usecase/discovery"
	"github.com/kailas-cloud/memberscout/internal/usecase/health"
)

type mockRunner struct {
	runFn   func(ctx context.Context, req discovery.Request) (discovery.Outcome, error)
	lastReq discovery.Request
}

func (m *mockRunner) RunQuery(ctx context.Context, req discovery.Request) (discovery.Outcome, error) {
	m.lastReq = req
	if m.runFn != nil {
		return m.runFn(ctx, req)
	}
	return discovery.Outcome{}, nil
}

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(_ context.Context) health.Report {
	if m.report.Status == "" {
		return health.Report{
			Status: health.Healthy,
			Checks: map[string]health.CheckResult{"redis": health.CheckOK},
		}
	}
	return m.report
}

func newTestHandler(runner *mockRunner, checker *mockHealth) http.Handler {
	r := chi.NewRouter()
	NewServer(runner, checker, zap.NewNop()).Routes(r)
	return r
}

func postQuery(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/query", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func validQueryRequest() QueryRequest {
	return QueryRequest{
		TenantID:  "community-1",
		SessionID: "s1",
		Text:      "mechanical engineers from 1998",
		Limit:     10,
	}
}

func successOutcome(t *testing.T) discovery.Outcome {
	t.Helper()
	q, err := spec.New("community-1", "mechanical engineers", filter.NewSet(), 10, 0)
	if err != nil {
		t.Fatalf("spec.New: %v", err)
	}
	m := domain.Member{
		ID:             "m1",
		Name:           "Member m1",
		CommunityID:    "community-1",
		GraduationYear: 1998,
		City:           "Chennai",
	}
	return discovery.Outcome{
		TurnID:     "turn-1",
		Intent:     string(domain.IntentFindPeers),
		Spec:       q,
		Confidence: 0.9,
		Results: []result.Ranked{
			result.NewRanked(m, 0.5, 0.8, 0.68, result.SourceBoth, []filter.Kind{filter.KindYear}),
		},
	}
}
