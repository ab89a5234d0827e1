package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

// span is a half-open byte range [start, end) in the lowercased input.
type span struct {
	start, end int
}

func (s span) overlapsAny(claimed []span) bool {
	for _, c := range claimed {
		if s.start < c.end && c.start < s.end {
			return true
		}
	}
	return false
}

// match is one rule hit. cond may be zero for rules that claim text without
// producing a structured filter (degrees); canonical carries the token such
// rules contribute to the embedding text.
type match struct {
	cond      filter.Condition
	canonical string
	at        span
}

// rule is a deterministic extraction strategy applied to the lowercased
// query text. Rules run in a fixed order; a span claimed by an earlier rule
// is never re-claimed.
type rule struct {
	name  string
	apply func(lower string) []match
}

// newRules builds the ordered deterministic stage.
func newRules() []rule {
	return []rule{
		{name: "year", apply: applyYearRule},
		{name: "name", apply: applyNameRule},
		{name: "city", apply: vocabRule(cityRegex, citySynonyms, filter.NewCity)},
		{name: "branch", apply: vocabRule(branchRegex, branchSynonyms, filter.NewBranch)},
		{name: "degree", apply: applyDegreeRule},
		{name: "designation", apply: vocabRule(designationRegex, designationSynonyms, filter.NewDesignation)},
		{name: "turnover", apply: applyTurnoverRule},
		{name: "skill", apply: applySkillRule},
	}
}

// runRules applies all rules in order, enforcing exclusive span claims.
func runRules(lower string) ([]match, []span) {
	var matches []match
	var claimed []span

	for _, r := range newRules() {
		for _, m := range r.apply(lower) {
			if m.at.overlapsAny(claimed) {
				continue
			}
			matches = append(matches, m)
			claimed = append(claimed, m.at)
		}
	}
	return matches, claimed
}

// --- year ---

var (
	fullYearRegex  = regexp.MustCompile(`\b(19[5-9][0-9]|20[0-4][0-9])\b`)
	shortYearRegex = regexp.MustCompile(`'([0-9]{2})\b|\b([0-9]{2})\s+batch\b|\bbatch\s+of\s+'?([0-9]{2})\b`)
)

// twoDigitPivot resolves 2-digit years: above the pivot is 19xx, otherwise
// 20xx. Fixed rather than clock-derived so extraction stays reproducible.
const twoDigitPivot = 30

func applyYearRule(lower string) []match {
	var out []match

	for _, loc := range fullYearRegex.FindAllStringIndex(lower, -1) {
		year, err := strconv.Atoi(lower[loc[0]:loc[1]])
		if err != nil {
			continue
		}
		cond, err := filter.NewYear(year)
		if err != nil {
			continue
		}
		out = append(out, match{cond: cond, at: span{loc[0], loc[1]}})
	}

	for _, loc := range shortYearRegex.FindAllStringSubmatchIndex(lower, -1) {
		yy := -1
		for g := 1; g <= 3; g++ {
			if loc[2*g] >= 0 {
				v, err := strconv.Atoi(lower[loc[2*g]:loc[2*g+1]])
				if err == nil {
					yy = v
				}
				break
			}
		}
		if yy < 0 {
			continue
		}
		year := 2000 + yy
		if yy > twoDigitPivot {
			year = 1900 + yy
		}
		cond, err := filter.NewYear(year)
		if err != nil {
			continue
		}
		out = append(out, match{cond: cond, at: span{loc[0], loc[1]}})
	}

	return out
}

// --- vocabulary (city, branch, designation) ---

// Plural surface forms ("founders", "ceos") are tolerated by the trailing
// s? and resolved by lookupVocab.
var (
	cityRegex        = regexp.MustCompile(`\b(?:` + vocabPattern(citySynonyms) + `)s?\b`)
	branchRegex      = regexp.MustCompile(`\b(?:` + vocabPattern(branchSynonyms) + `)s?\b`)
	degreeRegex      = regexp.MustCompile(`\b(?:` + vocabPattern(degreeSynonyms) + `)s?\b`)
	designationRegex = regexp.MustCompile(`\b(?:` + vocabPattern(designationSynonyms) + `)s?\b`)
)

func lookupVocab(table map[string]string, key string) (string, bool) {
	if v, ok := table[key]; ok {
		return v, true
	}
	if trimmed, ok := strings.CutSuffix(key, "s"); ok {
		v, found := table[trimmed]
		return v, found
	}
	return "", false
}

func vocabRule(
	re *regexp.Regexp,
	table map[string]string,
	newCond func(string) (filter.Condition, error),
) func(string) []match {
	return func(lower string) []match {
		var out []match
		for _, loc := range re.FindAllStringIndex(lower, -1) {
			normalized, ok := lookupVocab(table, lower[loc[0]:loc[1]])
			if !ok {
				continue
			}
			cond, err := newCond(normalized)
			if err != nil {
				continue
			}
			out = append(out, match{cond: cond, at: span{loc[0], loc[1]}})
		}
		return out
	}
}

// applyDegreeRule claims degree mentions without producing a filter; the
// normalized degree flows into the canonical text instead.
func applyDegreeRule(lower string) []match {
	var out []match
	for _, loc := range degreeRegex.FindAllStringIndex(lower, -1) {
		normalized, ok := lookupVocab(degreeSynonyms, lower[loc[0]:loc[1]])
		if !ok {
			continue
		}
		out = append(out, match{canonical: strings.ToLower(normalized), at: span{loc[0], loc[1]}})
	}
	return out
}

// --- name lookup phrasing ---

var nameRegex = regexp.MustCompile(
	`(?:who\s+is|profile\s+of|details?\s+of|named)\s+((?:[a-z][a-z'.]*)(?:\s+[a-z][a-z'.]*){0,2})`,
)

// nameStopwords end a captured name early ("who is ramesh from chennai"
// claims only "ramesh").
var nameStopwords = map[string]struct{}{
	"from": {}, "in": {}, "at": {}, "with": {}, "and": {}, "or": {},
	"the": {}, "who": {}, "working": {}, "based": {},
}

func applyNameRule(lower string) []match {
	var out []match
	for _, loc := range nameRegex.FindAllStringSubmatchIndex(lower, -1) {
		capStart, capEnd := loc[2], loc[3]
		name, end := trimNameAtStopword(lower, capStart, capEnd)
		if name == "" {
			continue
		}
		cond, err := filter.NewName(titleCase(name))
		if err != nil {
			continue
		}
		// Claim the full trigger phrase so "who is" never leaks into the
		// residual text.
		out = append(out, match{cond: cond, at: span{loc[0], end}})
	}
	return out
}

// trimNameAtStopword cuts the captured name at the first stopword and
// returns the kept text with its adjusted end offset.
func trimNameAtStopword(lower string, start, end int) (string, int) {
	text := lower[start:end]
	words := strings.Fields(text)
	kept := words[:0]
	offset := start
	for _, w := range words {
		if _, stop := nameStopwords[w]; stop {
			break
		}
		kept = append(kept, w)
		offset = start + strings.Index(text, w) + len(w)
	}
	if len(kept) == 0 {
		return "", start
	}
	return strings.Join(kept, " "), offset
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// --- turnover threshold ---

var turnoverRegex = regexp.MustCompile(
	`(?:turnover|revenue)\s+(?:above|over|of\s+more\s+than|more\s+than|greater\s+than|exceeding|of\s+at\s+least|at\s+least)\s+` +
		`(?:rs\.?\s*)?([0-9]+(?:\.[0-9]+)?)\s*(crores?|cr|lakhs?|lacs?|millions?|mn)?\b`,
)

// turnoverMultiplier maps a unit word to rupees. A bare number defaults to
// crores, the unit the directory quotes brackets in.
func turnoverMultiplier(unit string) float64 {
	switch {
	case unit == "", strings.HasPrefix(unit, "cr"):
		return 1e7
	case strings.HasPrefix(unit, "lakh"), strings.HasPrefix(unit, "lac"):
		return 1e5
	case strings.HasPrefix(unit, "million"), unit == "mn":
		return 1e6
	}
	return 1e7
}

func applyTurnoverRule(lower string) []match {
	var out []match
	for _, loc := range turnoverRegex.FindAllStringSubmatchIndex(lower, -1) {
		amount, err := strconv.ParseFloat(lower[loc[2]:loc[3]], 64)
		if err != nil {
			continue
		}
		unit := ""
		if loc[4] >= 0 {
			unit = lower[loc[4]:loc[5]]
		}
		cond, err := filter.NewTurnoverAtLeast(amount * turnoverMultiplier(unit))
		if err != nil {
			continue
		}
		out = append(out, match{cond: cond, at: span{loc[0], loc[1]}})
	}
	return out
}

// --- skill phrasing ---

var skillRegex = regexp.MustCompile(
	`(?:skills?\s+in|skilled\s+in|expertise\s+in|experts?\s+in|experienced?\s+in|working\s+on)\s+([a-z0-9+#. ,\-]+)`,
)

func applySkillRule(lower string) []match {
	var out []match
	for _, loc := range skillRegex.FindAllStringSubmatchIndex(lower, -1) {
		raw := lower[loc[2]:loc[3]]
		terms := splitSkillTerms(raw)
		if len(terms) == 0 {
			continue
		}
		cond, err := filter.NewSkills(terms...)
		if err != nil {
			continue
		}
		out = append(out, match{cond: cond, canonical: strings.Join(terms, " "), at: span{loc[0], loc[1]}})
	}
	return out
}

func splitSkillTerms(raw string) []string {
	raw = strings.NewReplacer(" and ", ",", " or ", ",").Replace(raw)
	var terms []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.Trim(part, ".?!"))
		if part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}
