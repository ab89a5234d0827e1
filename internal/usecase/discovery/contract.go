// Package discovery orchestrates one query turn end to end: session
// context, extraction, planning, retrieval, and the context append.
package discovery

import (
	"context"

	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
	"github.com/kailas-cloud/memberscout/internal/usecase/extract"
	"github.com/kailas-cloud/memberscout/internal/usecase/retrieve"
)

// ContextStore is the consumer interface for conversation context (ISP).
type ContextStore interface {
	Recent(ctx context.Context, sessionID string) ([]conversation.Turn, error)
	Append(ctx context.Context, turn conversation.Turn) error
}

// Extractor turns raw text plus context into structured extraction output.
type Extractor interface {
	Extract(ctx context.Context, text string, recent []conversation.Turn) (extract.Result, error)
}

// Planner builds executable specs from extraction output.
type Planner interface {
	Plan(tenantID, canonicalText string, filters filter.Set, limit, offset int) (spec.Spec, error)
}

// Retriever executes a spec against the member indexes.
type Retriever interface {
	Retrieve(ctx context.Context, q spec.Spec) (retrieve.Retrieved, error)
}

// Request is one user query turn.
type Request struct {
	TenantID  string
	SessionID string
	Text      string
	Limit     int
	Offset    int
}

// Outcome is the engine's answer for one turn. Ambiguous outcomes carry a
// clarification prompt and no results; they are never recorded in the
// session context.
type Outcome struct {
	TurnID        string
	Intent        string
	Spec          spec.Spec
	Results       []result.Ranked
	Degraded      []string
	CarriedOver   bool
	Confidence    float64
	Ambiguous     bool
	Clarification string
}
