// Package plan turns an extraction result into an executable query spec:
// tenant scoping, canonical text cleanup and limit clamping happen here, so
// retrieval receives a spec it can trust without re-validating.
package plan

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// Planner builds specs. It is stateless; the zero value is not usable, use
// NewPlanner.
type Planner struct{}

// NewPlanner creates a Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan validates tenant scoping and shapes the canonical text. When the
// extraction produced filters but no usable text, a minimal description is
// synthesized from the filters so the vector sub-search still has input.
func (p *Planner) Plan(tenantID, canonicalText string, filters filter.Set, limit, offset int) (spec.Spec, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return spec.Spec{}, fmt.Errorf("tenant id is required: %w", domain.ErrInvalidSpec)
	}

	text := normalizeText(canonicalText)
	if text == "" && !filters.IsEmpty() {
		text = describeFilters(filters)
	}

	return spec.New(tenantID, text, filters, limit, offset)
}

// stopwords dropped from canonical text before embedding. Kept minimal;
// entity extraction has already removed filler phrasing.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {}, "and": {}, "or": {},
	"to": {}, "is": {}, "are": {}, "be": {}, "do": {}, "does": {},
}

func normalizeText(text string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!;:'\"()")
		if w == "" {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// describeFilters renders a short phrase from the filters, in canonical kind
// order so the synthesized text is deterministic.
func describeFilters(filters filter.Set) string {
	var parts []string
	for _, c := range filters.Conditions() {
		switch c.Kind() {
		case filter.KindYear:
			parts = append(parts, fmt.Sprintf("%d batch", c.Year()))
		case filter.KindBranch:
			parts = append(parts, strings.ToLower(c.Value()))
		case filter.KindCity:
			parts = append(parts, strings.ToLower(c.Value()))
		case filter.KindSkill:
			parts = append(parts, strings.Join(c.Terms(), " "))
		case filter.KindDesignation:
			parts = append(parts, strings.ToLower(c.Value()))
		case filter.KindTurnover:
			parts = append(parts, "business owner")
		case filter.KindName:
			parts = append(parts, strings.ToLower(c.Value()))
		}
	}
	return strings.Join(parts, " ")
}
