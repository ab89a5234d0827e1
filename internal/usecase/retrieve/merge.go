package retrieve

import (
	"sort"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// mergeWeights are the combination knobs, validated at construction.
type mergeWeights struct {
	lexical float64
	vector  float64
	// damp discounts members seen by only one live sub-search when both
	// sub-searches ran.
	damp float64
}

// candidate accumulates per-member evidence across sub-searches.
type candidate struct {
	member   domain.Member
	lexScore float64
	vecScore float64
	inLex    bool
	inVec    bool
}

// mergeHits combines the two hit lists into ranked results. bothRan reports
// whether both sub-searches completed; single-source dampening only applies
// then, so a degraded retrieval is not penalized twice. Lexical hits are
// deduplicated by member ID keeping the max score; vector hits may carry
// several embedding kinds per member and also keep the max.
func mergeHits(q spec.Spec, lexHits, vecHits []result.Hit, bothRan bool, w mergeWeights) []result.Ranked {
	byID := make(map[string]*candidate, len(lexHits)+len(vecHits))
	order := make([]string, 0, len(lexHits)+len(vecHits))

	upsert := func(m domain.Member) *candidate {
		c, ok := byID[m.ID]
		if !ok {
			c = &candidate{member: m}
			byID[m.ID] = c
			order = append(order, m.ID)
			return c
		}
		// Prefer the fresher snapshot when the two indexes disagree.
		if m.UpdatedAt > c.member.UpdatedAt {
			c.member = m
		}
		return c
	}

	for _, h := range lexHits {
		c := upsert(h.Member())
		if !c.inLex || h.Score() > c.lexScore {
			c.lexScore = h.Score()
		}
		c.inLex = true
	}
	for _, h := range vecHits {
		c := upsert(h.Member())
		if !c.inVec || h.Score() > c.vecScore {
			c.vecScore = h.Score()
		}
		c.inVec = true
	}

	filters := q.Filters()
	ranked := make([]result.Ranked, 0, len(order))
	for _, id := range order {
		c := byID[id]

		combined := w.lexical*c.lexScore + w.vector*c.vecScore
		if bothRan && c.inLex != c.inVec {
			combined *= w.damp
		}

		source := result.SourceBoth
		switch {
		case c.inLex && !c.inVec:
			source = result.SourceLexical
		case c.inVec && !c.inLex:
			source = result.SourceVector
		}

		ranked = append(ranked, result.NewRanked(
			c.member, c.lexScore, c.vecScore, combined, source, filters.MatchedKinds(c.member),
		))
	}

	sortRanked(ranked)

	// Pagination happens after the total order is fixed, so page N+1
	// continues exactly where page N stopped.
	if q.Offset() >= len(ranked) {
		return ranked[:0]
	}
	ranked = ranked[q.Offset():]

	if len(ranked) > q.Limit() {
		ranked = ranked[:q.Limit()]
	}
	return ranked
}

// sortRanked orders results by combined score desc, then matched-filter
// count desc, then UpdatedAt desc, then member ID asc. The final key is
// total, so equal inputs always produce the same ordering.
func sortRanked(ranked []result.Ranked) {
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Combined() != b.Combined() {
			return a.Combined() > b.Combined()
		}
		if la, lb := len(a.MatchedFilters()), len(b.MatchedFilters()); la != lb {
			return la > lb
		}
		if ua, ub := a.Member().UpdatedAt, b.Member().UpdatedAt; ua != ub {
			return ua > ub
		}
		return a.Member().ID < b.Member().ID
	})
}
