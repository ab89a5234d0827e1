// Package result defines sub-search hits and the ranked results the engine
// hands to the formatting collaborator. Both are ephemeral values; the core
// never persists them.
package result

import (
	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// Source identifies which sub-searches matched a member.
type Source string

// Result sources.
const (
	SourceLexical Source = "lexical"
	SourceVector  Source = "vector"
	SourceBoth    Source = "both"
)

// Hit is a single sub-search match: a member snapshot plus the sub-search
// score, normalized to [0,1].
type Hit struct {
	member domain.Member
	score  float64
}

// NewHit creates a sub-search hit.
func NewHit(member domain.Member, score float64) Hit {
	return Hit{member: member, score: score}
}

// Member returns the matched member snapshot.
func (h Hit) Member() domain.Member { return h.member }

// Score returns the normalized sub-search score.
func (h Hit) Score() float64 { return h.score }

// Ranked is a merged, scored search result with enough explanation for a
// formatter to render a reply without re-querying the engine.
type Ranked struct {
	member   domain.Member
	lexScore float64
	vecScore float64
	combined float64
	source   Source
	matched  []filter.Kind
}

// NewRanked creates a ranked result.
func NewRanked(
	member domain.Member,
	lexScore, vecScore, combined float64,
	source Source,
	matched []filter.Kind,
) Ranked {
	return Ranked{
		member:   member,
		lexScore: lexScore,
		vecScore: vecScore,
		combined: combined,
		source:   source,
		matched:  matched,
	}
}

// Member returns the member snapshot.
func (r Ranked) Member() domain.Member { return r.member }

// LexScore returns the lexical sub-score (0 when the lexical search missed).
func (r Ranked) LexScore() float64 { return r.lexScore }

// VecScore returns the vector sub-score (0 when the vector search missed).
func (r Ranked) VecScore() float64 { return r.vecScore }

// Combined returns the final ranking score.
func (r Ranked) Combined() float64 { return r.combined }

// Source reports which sub-searches matched.
func (r Ranked) Source() Source { return r.source }

// MatchedFilters returns the filter kinds this member satisfied, in canonical
// order.
func (r Ranked) MatchedFilters() []filter.Kind { return r.matched }
