// Package filter defines the closed set of structured member filters.
// Every condition in a Set is a hard predicate; sub-searches AND them all
// and never relax them.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/memberscout/internal/domain"
)

// Kind enumerates the closed set of filter kinds.
type Kind string

// Filter kinds, in canonical order.
const (
	KindYear        Kind = "year"
	KindBranch      Kind = "branch"
	KindCity        Kind = "city"
	KindSkill       Kind = "skill"
	KindDesignation Kind = "designation"
	KindTurnover    Kind = "turnover"
	KindName        Kind = "name"
)

// canonicalOrder fixes iteration order so that derived output (query strings,
// explanations, synthesized text) is deterministic.
var canonicalOrder = []Kind{
	KindYear, KindBranch, KindCity, KindSkill, KindDesignation, KindTurnover, KindName,
}

// Condition is a single filter clause. Exactly one payload field is set,
// according to the kind.
type Condition struct {
	kind        Kind
	year        int
	value       string
	terms       []string
	minTurnover float64
}

// NewYear creates a graduation-year condition.
func NewYear(year int) (Condition, error) {
	if year < 1900 || year > 2100 {
		return Condition{}, fmt.Errorf("graduation year out of range: %d", year)
	}
	return Condition{kind: KindYear, year: year}, nil
}

// NewBranch creates a branch condition from a normalized branch name.
func NewBranch(branch string) (Condition, error) {
	return newValueCondition(KindBranch, branch)
}

// NewCity creates a city condition from a normalized city name.
func NewCity(city string) (Condition, error) {
	return newValueCondition(KindCity, city)
}

// NewDesignation creates a designation condition.
func NewDesignation(designation string) (Condition, error) {
	return newValueCondition(KindDesignation, designation)
}

// NewName creates a name-token condition.
func NewName(name string) (Condition, error) {
	return newValueCondition(KindName, name)
}

// NewSkills creates a skill-terms condition. Empty terms are dropped; at
// least one term must remain.
func NewSkills(terms ...string) (Condition, error) {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t != "" {
			kept = append(kept, strings.ToLower(t))
		}
	}
	if len(kept) == 0 {
		return Condition{}, fmt.Errorf("skill filter requires at least one term")
	}
	sort.Strings(kept)
	return Condition{kind: KindSkill, terms: kept}, nil
}

// NewTurnoverAtLeast creates a minimum-turnover condition (absolute amount).
func NewTurnoverAtLeast(minAmount float64) (Condition, error) {
	if minAmount <= 0 {
		return Condition{}, fmt.Errorf("turnover threshold must be positive")
	}
	return Condition{kind: KindTurnover, minTurnover: minAmount}, nil
}

func newValueCondition(kind Kind, value string) (Condition, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Condition{}, fmt.Errorf("%s filter requires a value", kind)
	}
	return Condition{kind: kind, value: value}, nil
}

// Kind returns the condition kind.
func (c Condition) Kind() Kind { return c.kind }

// Year returns the graduation year (KindYear only).
func (c Condition) Year() int { return c.year }

// Value returns the string payload (branch, city, designation, name).
func (c Condition) Value() string { return c.value }

// Terms returns the skill terms (KindSkill only).
func (c Condition) Terms() []string { return c.terms }

// MinTurnover returns the turnover threshold (KindTurnover only).
func (c Condition) MinTurnover() float64 { return c.minTurnover }

// IsZero reports whether the condition is unset.
func (c Condition) IsZero() bool { return c.kind == "" }

// matches reports whether member m satisfies the condition.
func (c Condition) matches(m domain.Member) bool {
	switch c.kind {
	case KindYear:
		return m.GraduationYear == c.year
	case KindBranch:
		return strings.EqualFold(m.Branch, c.value)
	case KindCity:
		return strings.EqualFold(m.City, c.value)
	case KindSkill:
		skills := strings.ToLower(m.SkillText)
		for _, t := range c.terms {
			if !strings.Contains(skills, t) {
				return false
			}
		}
		return true
	case KindDesignation:
		return strings.EqualFold(m.Designation, c.value)
	case KindTurnover:
		return m.Turnover >= c.minTurnover
	case KindName:
		return strings.Contains(strings.ToLower(m.Name), strings.ToLower(c.value))
	}
	return false
}

// String renders the condition for logs and explanations.
func (c Condition) String() string {
	switch c.kind {
	case KindYear:
		return fmt.Sprintf("year=%d", c.year)
	case KindSkill:
		return "skill=" + strings.Join(c.terms, ",")
	case KindTurnover:
		return fmt.Sprintf("turnover>=%g", c.minTurnover)
	default:
		return string(c.kind) + "=" + c.value
	}
}

// Set holds at most one condition per kind. The zero value is an empty set.
// Sets are values; mutating methods return a new Set.
type Set struct {
	conds map[Kind]Condition
}

// NewSet creates a Set from conditions. A later condition of the same kind
// replaces an earlier one.
func NewSet(conds ...Condition) Set {
	s := Set{}
	for _, c := range conds {
		s = s.With(c)
	}
	return s
}

// With returns a copy of the set with c added (replacing any condition of the
// same kind). Zero conditions are ignored.
func (s Set) With(c Condition) Set {
	if c.IsZero() {
		return s
	}
	next := make(map[Kind]Condition, len(s.conds)+1)
	for k, v := range s.conds {
		next[k] = v
	}
	next[c.kind] = c
	return Set{conds: next}
}

// Get returns the condition of the given kind, if present.
func (s Set) Get(kind Kind) (Condition, bool) {
	c, ok := s.conds[kind]
	return c, ok
}

// Conditions returns all conditions in canonical kind order.
func (s Set) Conditions() []Condition {
	out := make([]Condition, 0, len(s.conds))
	for _, k := range canonicalOrder {
		if c, ok := s.conds[k]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of conditions.
func (s Set) Len() int { return len(s.conds) }

// IsEmpty reports whether the set has no conditions.
func (s Set) IsEmpty() bool { return len(s.conds) == 0 }

// Merge overlays other onto s: for each kind present in both, the condition
// from other wins. Used for context carry-over and rule/LLM merging.
func (s Set) Merge(other Set) Set {
	merged := s
	for _, c := range other.Conditions() {
		merged = merged.With(c)
	}
	return merged
}

// MergeMissing fills from other only the kinds s does not already have.
// Rule-derived fields win over LLM-derived fields through this method.
func (s Set) MergeMissing(other Set) Set {
	merged := s
	for _, c := range other.Conditions() {
		if _, ok := merged.Get(c.Kind()); !ok {
			merged = merged.With(c)
		}
	}
	return merged
}

// Matches reports whether member m satisfies every condition (AND semantics).
func (s Set) Matches(m domain.Member) bool {
	for _, c := range s.conds {
		if !c.matches(m) {
			return false
		}
	}
	return true
}

// MatchedKinds returns, in canonical order, the kinds whose condition m
// satisfies. Used for ranking tie-breaks and result explanations.
func (s Set) MatchedKinds(m domain.Member) []Kind {
	var out []Kind
	for _, k := range canonicalOrder {
		if c, ok := s.conds[k]; ok && c.matches(m) {
			out = append(out, k)
		}
	}
	return out
}

// String renders the set for logs, in canonical order.
func (s Set) String() string {
	if s.IsEmpty() {
		return "{}"
	}
	parts := make([]string, 0, len(s.conds))
	for _, c := range s.Conditions() {
		parts = append(parts, c.String())
	}
	return "{" + strings.Join(parts, " ") + "}"
}
