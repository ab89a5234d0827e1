package domain

// KeyPrefix namespaces all keys written by this service.
const KeyPrefix = "memberscout:"

// Member is the read-side view of a directory member. The record itself is
// owned externally; the engine only reads the attributes used as filter
// targets and for rendering explanations.
type Member struct {
	ID             string
	Name           string
	GraduationYear int
	Degree         string
	Branch         string
	City           string
	SkillText      string
	Organization   string
	Designation    string
	Turnover       float64
	TurnoverLabel  string
	CommunityID    string
	UpdatedAt      int64
}

// EmbeddingKind distinguishes the embedding spaces kept per member.
type EmbeddingKind string

// Embedding kinds indexed per (member, community).
const (
	KindProfile    EmbeddingKind = "profile"
	KindSkills     EmbeddingKind = "skills"
	KindContextual EmbeddingKind = "contextual"
)

// IsValid reports whether k is one of the known embedding kinds.
func (k EmbeddingKind) IsValid() bool {
	switch k {
	case KindProfile, KindSkills, KindContextual:
		return true
	}
	return false
}
