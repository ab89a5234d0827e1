// Package extract turns raw member-discovery text into structured filters,
// canonical embedding text and an intent. A deterministic rule stage runs
// first and claims text spans exclusively; an LLM stage fills in what the
// rules left unclaimed. Rule-derived filters always win over LLM-derived
// ones.
package extract

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// maxRecentQueries caps how many prior raw queries are handed to the LLM
// stage as disambiguation context.
const maxRecentQueries = 3

// Extractor combines the rule stage with an optional LLM stage.
type Extractor struct {
	llm       IntentExtractor
	threshold float64
	log       *zap.Logger
}

// NewExtractor creates an Extractor. llm may be nil, in which case only the
// deterministic rules run. Results below threshold with no filters are
// reported as ambiguous.
func NewExtractor(llm IntentExtractor, threshold float64, log *zap.Logger) *Extractor {
	return &Extractor{llm: llm, threshold: threshold, log: log}
}

// Extract processes one query turn. recent holds the session's prior turns,
// oldest first; it drives filter carry-over and the LLM's context window.
// The only error returned is context cancellation; LLM failures degrade to
// rules-only extraction.
func (e *Extractor) Extract(ctx context.Context, text string, recent []conversation.Turn) (Result, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return Result{Intent: domain.IntentAmbiguous}, nil
	}

	matches, claimed := runRules(lower)

	// First mention wins when a rule matches the same kind twice.
	filters := filter.NewSet()
	var canonicalTokens []string
	for _, m := range matches {
		if !m.cond.IsZero() {
			if _, taken := filters.Get(m.cond.Kind()); !taken {
				filters = filters.With(m.cond)
			}
		}
		if m.canonical != "" {
			canonicalTokens = append(canonicalTokens, m.canonical)
		}
	}

	residual := residualText(lower, claimed)
	confidence := claimedRatio(lower, claimed)

	var llmOut LLMExtraction
	llmUsed := false
	if e.llm != nil && (hasSignificantTokens(residual) || filters.IsEmpty()) {
		out, err := e.llm.ExtractIntent(ctx, text, recentRawQueries(recent))
		switch {
		case err == nil:
			llmOut = out
			llmUsed = true
			filters = filters.MergeMissing(out.Filters)
			if out.Confidence > confidence {
				confidence = out.Confidence
			}
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return Result{}, err
		default:
			e.log.Warn("intent extraction degraded to rules only", zap.Error(err))
		}
	}

	canonical := strings.TrimSpace(strings.Join(append(canonicalTokens, residual), " "))
	if canonical == "" && llmUsed {
		canonical = strings.ToLower(strings.TrimSpace(llmOut.Canonical))
	}

	carried := false
	if shouldCarryOver(lower, filters) {
		if base := lastFilters(recent); !base.IsEmpty() {
			filters = base.Merge(filters)
			carried = true
		}
	}

	intent := llmOut.Intent
	if !llmUsed || !intent.IsValid() || intent == domain.IntentAmbiguous {
		intent = heuristicIntent(filters, canonical)
	}

	if filters.IsEmpty() && !hasSignificantTokens(canonical) {
		return Result{Intent: domain.IntentAmbiguous}, nil
	}
	if confidence < e.threshold && filters.IsEmpty() {
		return Result{Intent: domain.IntentAmbiguous}, nil
	}

	return Result{
		Filters:     filters,
		Canonical:   canonical,
		Intent:      intent,
		Confidence:  confidence,
		CarriedOver: carried,
	}, nil
}

// heuristicIntent classifies a turn when the LLM stage is unavailable or
// undecided.
func heuristicIntent(filters filter.Set, canonical string) domain.Intent {
	if _, ok := filters.Get(filter.KindName); ok {
		return domain.IntentFindSpecificPerson
	}
	_, hasTurnover := filters.Get(filter.KindTurnover)
	_, hasDesignation := filters.Get(filter.KindDesignation)
	if hasTurnover || hasDesignation {
		_, hasYear := filters.Get(filter.KindYear)
		_, hasBranch := filters.Get(filter.KindBranch)
		if hasYear || hasBranch {
			return domain.IntentFindAlumniBusiness
		}
		return domain.IntentFindBusiness
	}
	if !filters.IsEmpty() || hasSignificantTokens(canonical) {
		return domain.IntentFindPeers
	}
	return domain.IntentAmbiguous
}

// --- carry-over ---

var carryOverPronouns = map[string]struct{}{
	"them": {}, "those": {}, "these": {}, "they": {},
	"him": {}, "her": {}, "same": {}, "ones": {},
}

var carryOverPrepositions = map[string]struct{}{
	"in": {}, "from": {}, "at": {}, "with": {},
}

// shouldCarryOver reports whether the turn reads like a refinement of the
// previous query rather than a fresh one.
func shouldCarryOver(lower string, filters filter.Set) bool {
	words := strings.Fields(lower)
	if len(words) == 0 {
		return false
	}
	for _, w := range words {
		if _, ok := carryOverPronouns[strings.Trim(w, ".,?!")]; ok {
			return true
		}
	}
	if _, ok := carryOverPrepositions[words[0]]; ok {
		return true
	}
	return len(words) <= 3 && filters.Len() >= 1
}

// lastFilters returns the filters of the most recent turn that had any.
func lastFilters(recent []conversation.Turn) filter.Set {
	for i := len(recent) - 1; i >= 0; i-- {
		if f := recent[i].Spec.Filters(); !f.IsEmpty() {
			return f
		}
	}
	return filter.NewSet()
}

func recentRawQueries(recent []conversation.Turn) []string {
	start := len(recent) - maxRecentQueries
	if start < 0 {
		start = 0
	}
	out := make([]string, 0, maxRecentQueries)
	for _, t := range recent[start:] {
		if t.RawText != "" {
			out = append(out, t.RawText)
		}
	}
	return out
}

// --- residual text ---

// fillerWords never survive into canonical text and never count as
// significant residual content.
var fillerWords = map[string]struct{}{
	"find": {}, "show": {}, "list": {}, "get": {}, "give": {}, "search": {},
	"me": {}, "us": {}, "all": {}, "any": {}, "some": {}, "please": {},
	"who": {}, "are": {}, "is": {}, "was": {}, "do": {}, "does": {},
	"the": {}, "a": {}, "an": {}, "of": {}, "for": {}, "from": {}, "in": {},
	"at": {}, "on": {}, "with": {}, "and": {}, "or": {}, "to": {},
	"members": {}, "member": {}, "people": {}, "person": {}, "folks": {},
	"anyone": {}, "somebody": {}, "alumni": {}, "batch": {}, "there": {},
	"want": {}, "need": {}, "looking": {}, "i": {}, "we": {}, "you": {},
	"them": {}, "those": {}, "these": {}, "they": {}, "same": {}, "ones": {},
}

// residualText removes claimed spans from lower, then strips punctuation and
// filler words and collapses whitespace.
func residualText(lower string, claimed []span) string {
	buf := []byte(lower)
	for _, c := range claimed {
		for i := c.start; i < c.end && i < len(buf); i++ {
			buf[i] = ' '
		}
	}

	var kept []string
	for _, w := range strings.Fields(string(buf)) {
		w = strings.Trim(w, ".,?!;:'\"()")
		if w == "" {
			continue
		}
		if _, filler := fillerWords[w]; filler {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// hasSignificantTokens reports whether text contains at least one word worth
// sending to the LLM or the embedder.
func hasSignificantTokens(text string) bool {
	for _, w := range strings.Fields(text) {
		if len(w) >= 3 {
			if _, filler := fillerWords[w]; !filler {
				return true
			}
		}
	}
	return false
}

// claimedRatio measures how much of the non-space input the rules accounted
// for. Used as the rules-only confidence signal.
func claimedRatio(lower string, claimed []span) float64 {
	total := 0
	for _, r := range lower {
		if r != ' ' {
			total++
		}
	}
	if total == 0 {
		return 0
	}
	claimedChars := 0
	for _, c := range claimed {
		for _, r := range lower[c.start:min(c.end, len(lower))] {
			if r != ' ' {
				claimedChars++
			}
		}
	}
	return float64(claimedChars) / float64(total)
}
