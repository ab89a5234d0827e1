package chi

import (
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/usecase/discovery"
	"github.com/kailas-cloud/memberscout/internal/usecase/health"
)

// ErrorCode is the machine-readable error code in error responses.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest            ErrorCode = "bad_request"
	CodeValidationFailed      ErrorCode = "validation_failed"
	CodeUnauthorized          ErrorCode = "unauthorized"
	CodeRetrievalUnavailable  ErrorCode = "retrieval_unavailable"
	CodeExtractionUnavailable ErrorCode = "extraction_unavailable"
	CodeInternalError         ErrorCode = "internal_error"
)

// ErrorResponse is the error body for all non-2xx responses.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// QueryRequest is the body of POST /v1/query.
type QueryRequest struct {
	TenantID  string `json:"tenant_id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// QueryResponse is the body of a completed query turn.
type QueryResponse struct {
	TurnID        string        `json:"turn_id,omitempty"`
	Intent        string        `json:"intent"`
	Ambiguous     bool          `json:"ambiguous,omitempty"`
	Clarification string        `json:"clarification,omitempty"`
	CarriedOver   bool          `json:"carried_over,omitempty"`
	Confidence    float64       `json:"confidence"`
	Degraded      []string      `json:"degraded,omitempty"`
	Results       []ResultEntry `json:"results"`
}

// ResultEntry is one ranked member in a query response.
type ResultEntry struct {
	Member         MemberView `json:"member"`
	LexicalScore   float64    `json:"lexical_score"`
	VectorScore    float64    `json:"vector_score"`
	CombinedScore  float64    `json:"combined_score"`
	Source         string     `json:"source"`
	MatchedFilters []string   `json:"matched_filters,omitempty"`
}

// MemberView is the member snapshot exposed over HTTP.
type MemberView struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	GraduationYear int    `json:"graduation_year,omitempty"`
	Degree         string `json:"degree,omitempty"`
	Branch         string `json:"branch,omitempty"`
	City           string `json:"city,omitempty"`
	Organization   string `json:"organization,omitempty"`
	Designation    string `json:"designation,omitempty"`
	TurnoverLabel  string `json:"turnover_label,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func toHealthResponse(r health.Report) HealthResponse {
	checks := make(map[string]string, len(r.Checks))
	for name, res := range r.Checks {
		checks[name] = string(res)
	}
	return HealthResponse{Status: string(r.Status), Checks: checks}
}

func toQueryResponse(o discovery.Outcome) QueryResponse {
	resp := QueryResponse{
		TurnID:        o.TurnID,
		Intent:        o.Intent,
		Ambiguous:     o.Ambiguous,
		Clarification: o.Clarification,
		CarriedOver:   o.CarriedOver,
		Confidence:    o.Confidence,
		Degraded:      o.Degraded,
		Results:       make([]ResultEntry, 0, len(o.Results)),
	}
	for _, r := range o.Results {
		resp.Results = append(resp.Results, toResultEntry(r))
	}
	return resp
}

func toResultEntry(r result.Ranked) ResultEntry {
	m := r.Member()
	matched := make([]string, 0, len(r.MatchedFilters()))
	for _, k := range r.MatchedFilters() {
		matched = append(matched, string(k))
	}
	return ResultEntry{
		Member: MemberView{
			ID:             m.ID,
			Name:           m.Name,
			GraduationYear: m.GraduationYear,
			Degree:         m.Degree,
			Branch:         m.Branch,
			City:           m.City,
			Organization:   m.Organization,
			Designation:    m.Designation,
			TurnoverLabel:  m.TurnoverLabel,
		},
		LexicalScore:   r.LexScore(),
		VectorScore:    r.VecScore(),
		CombinedScore:  r.Combined(),
		Source:         string(r.Source()),
		MatchedFilters: matched,
	}
}
