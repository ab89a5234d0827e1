package extract

import (
	"context"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// LLMExtraction is the probabilistic stage's output, shaped like rule output
// so the merge policy can treat both stages uniformly.
type LLMExtraction struct {
	Intent     domain.Intent
	Filters    filter.Set
	Canonical  string
	Confidence float64
}

// IntentExtractor is the LLM-backed extractor consulted for text the
// deterministic rules left unclaimed.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, text string, recentQueries []string) (LLMExtraction, error)
}

// Result is the extractor's combined output for one turn.
type Result struct {
	Filters    filter.Set
	Canonical  string
	Intent     domain.Intent
	Confidence float64
	// CarriedOver reports whether filters from a prior turn were merged in.
	CarriedOver bool
}

// IsAmbiguous reports whether the turn produced nothing usable.
func (r Result) IsAmbiguous() bool {
	return r.Intent == domain.IntentAmbiguous && r.Filters.IsEmpty() && r.Canonical == ""
}
