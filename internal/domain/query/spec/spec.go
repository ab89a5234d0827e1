// Package spec defines the immutable search specification produced by the
// query planner and consumed by the retrieval engine.
package spec

import (
	"fmt"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// Result limits. Limit is clamped irrespective of the caller's request to
// bound retrieval cost.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Spec is a validated, immutable search specification. A Spec always carries
// a tenant id; cross-tenant leakage is unacceptable, so construction fails
// fast without one.
type Spec struct {
	tenantID string
	text     string
	filters  filter.Set
	limit    int
	offset   int
}

// New validates and creates a Spec. The limit defaults to DefaultLimit and is
// clamped to MaxLimit; a negative offset is rejected.
func New(tenantID, canonicalText string, filters filter.Set, limit, offset int) (Spec, error) {
	if tenantID == "" {
		return Spec{}, fmt.Errorf("tenant id is required: %w", domain.ErrInvalidSpec)
	}
	if canonicalText == "" && filters.IsEmpty() {
		return Spec{}, fmt.Errorf("empty query text and filters: %w", domain.ErrInvalidSpec)
	}
	if offset < 0 {
		return Spec{}, fmt.Errorf("offset must be non-negative: %w", domain.ErrInvalidSpec)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Spec{
		tenantID: tenantID,
		text:     canonicalText,
		filters:  filters,
		limit:    limit,
		offset:   offset,
	}, nil
}

// TenantID returns the tenant scoping every sub-search.
func (s Spec) TenantID() string { return s.tenantID }

// Text returns the canonical query text fed to the embedding step.
func (s Spec) Text() string { return s.text }

// Filters returns the structured filter set.
func (s Spec) Filters() filter.Set { return s.filters }

// Limit returns the maximum number of results.
func (s Spec) Limit() int { return s.limit }

// Offset returns the result offset.
func (s Spec) Offset() int { return s.offset }

// IsZero reports whether the spec is the zero value (never produced by New).
func (s Spec) IsZero() bool { return s.tenantID == "" }
