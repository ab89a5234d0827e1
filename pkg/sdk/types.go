package memberscout

// QueryRequest is one natural-language discovery turn.
type QueryRequest struct {
	// TenantID scopes the search to one community. Required.
	TenantID string `json:"tenant_id"`
	// SessionID groups turns into a conversation. Required.
	SessionID string `json:"session_id"`
	// Text is the natural-language query. Required.
	Text string `json:"text"`
	// Limit caps the number of results. Server default applies when 0.
	Limit int `json:"limit,omitempty"`
	// Offset skips ranked results for pagination.
	Offset int `json:"offset,omitempty"`
}

// QueryResponse is the outcome of a completed discovery turn.
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

// ResultEntry is one ranked member.
type ResultEntry struct {
	Member         Member   `json:"member"`
	LexicalScore   float64  `json:"lexical_score"`
	VectorScore    float64  `json:"vector_score"`
	CombinedScore  float64  `json:"combined_score"`
	Source         string   `json:"source"`
	MatchedFilters []string `json:"matched_filters,omitempty"`
}

// Retrieval sources a result may come from.
const (
	SourceLexical = "lexical"
	SourceVector  = "vector"
	SourceBoth    = "both"
)

// Member is the directory snapshot returned with each result.
type Member struct {
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

// HealthReport is the aggregated component liveness of the service.
type HealthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthy reports whether every component check passed.
func (h HealthReport) Healthy() bool { return h.Status == "ok" }
