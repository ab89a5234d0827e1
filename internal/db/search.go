package db

// Predicate is one hard pre-filter clause applied inside FT.SEARCH. Exactly
// one of Tag, Text, or a numeric bound pair is set.
type Predicate struct {
	Field string
	// Tag is an exact TAG match value.
	Tag string
	// Text is a full-text term matched against a TEXT field.
	Text string
	// Min and Max are inclusive NUMERIC bounds; nil means unbounded.
	Min *float64
	Max *float64
}

// TagPredicate creates an exact tag match predicate.
func TagPredicate(field, value string) Predicate {
	return Predicate{Field: field, Tag: value}
}

// TextPredicate creates a full-text term predicate.
func TextPredicate(field, term string) Predicate {
	return Predicate{Field: field, Text: term}
}

// NumPredicate creates an inclusive numeric range predicate.
func NumPredicate(field string, minBound, maxBound *float64) Predicate {
	return Predicate{Field: field, Min: minBound, Max: maxBound}
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Predicates   []Predicate
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	TextField    string
	Query        string
	Predicates   []Predicate
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
