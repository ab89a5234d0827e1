package member

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/db"
	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// Repo implements the retrieval engine's LexicalIndex and VectorIndex.
type Repo struct {
	store  store
	logger *zap.Logger
}

// New creates a member search repository.
func New(s store, logger *zap.Logger) *Repo {
	return &Repo{store: s, logger: logger}
}

// memberReturnFields are requested from both indexes so every hit carries a
// full member snapshot.
var memberReturnFields = []string{
	fieldID, fieldName, fieldGradYear, fieldDegree, fieldBranch, fieldCity,
	fieldSkills, fieldOrg, fieldDesignation, fieldTurnover, fieldTurnLabel,
	fieldCommunityID, fieldUpdatedAt,
}

// SearchText runs the BM25 sub-search over member profiles. Scores are
// normalized to [0,1) with score/(score+1) since raw BM25 is unbounded.
func (r *Repo) SearchText(ctx context.Context, q spec.Spec, topK int) ([]result.Hit, error) {
	sr, err := r.store.SearchBM25(ctx, &db.TextQuery{
		IndexName:    memberIndexName,
		TextField:    fieldProfile,
		Query:        q.Text(),
		Predicates:   buildPredicates(q),
		TopK:         topK,
		ReturnFields: memberReturnFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search members bm25: %w", err)
	}
	return r.toHits(sr, q.TenantID(), func(e db.SearchEntry) float64 {
		return e.Score / (e.Score + 1)
	}), nil
}

// SearchVector runs the KNN sub-search over member embeddings. A member may
// appear once per embedding kind; the engine's merge keeps the max.
// __vector_score must be requested explicitly: with a RETURN clause the
// search returns only the named fields, and without the distance every hit
// would score 0.
func (r *Repo) SearchVector(ctx context.Context, q spec.Spec, vector []float32, topK int) ([]result.Hit, error) {
	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    embeddingIndexName,
		Predicates:   buildPredicates(q),
		Vector:       vector,
		K:            topK,
		ReturnFields: append([]string{fieldMemberID, fieldKind, "__vector_score"}, memberReturnFields...),
	})
	if err != nil {
		return nil, fmt.Errorf("search embeddings knn: %w", err)
	}
	return r.toHits(sr, q.TenantID(), func(e db.SearchEntry) float64 {
		return e.Score
	}), nil
}

// buildPredicates maps the spec's filters onto index fields. The tenant
// predicate is always present; sub-searches are tenant-scoped by
// construction.
func buildPredicates(q spec.Spec) []db.Predicate {
	preds := []db.Predicate{db.TagPredicate(fieldCommunityID, q.TenantID())}

	for _, c := range q.Filters().Conditions() {
		switch c.Kind() {
		case filter.KindYear:
			y := float64(c.Year())
			preds = append(preds, db.NumPredicate(fieldGradYear, &y, &y))
		case filter.KindBranch:
			preds = append(preds, db.TagPredicate(fieldBranch, c.Value()))
		case filter.KindCity:
			preds = append(preds, db.TagPredicate(fieldCity, c.Value()))
		case filter.KindSkill:
			for _, term := range c.Terms() {
				preds = append(preds, db.TextPredicate(fieldProfile, term))
			}
		case filter.KindDesignation:
			preds = append(preds, db.TagPredicate(fieldDesignation, c.Value()))
		case filter.KindTurnover:
			minTurnover := c.MinTurnover()
			preds = append(preds, db.NumPredicate(fieldTurnover, &minTurnover, nil))
		case filter.KindName:
			preds = append(preds, db.TextPredicate(fieldName, c.Value()))
		}
	}
	return preds
}

// toHits converts search entries to hits, dropping any entry whose
// community does not match the queried tenant. The predicate already scopes
// the search; the drop guards against index misconfiguration.
func (r *Repo) toHits(sr *db.SearchResult, tenantID string, score func(db.SearchEntry) float64) []result.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	hits := make([]result.Hit, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		m := parseMember(entry)
		if m.CommunityID != tenantID {
			r.logger.Error("dropping cross-tenant search entry",
				zap.String("key", entry.Key),
				zap.String("tenant_id", tenantID),
				zap.String("entry_community", m.CommunityID),
			)
			continue
		}
		if m.ID == "" {
			continue
		}
		hits = append(hits, result.NewHit(m, score(entry)))
	}
	return hits
}

// parseMember reads a member snapshot from flat hash fields. Embedding
// entries carry the member id under member_id; member entries under id.
func parseMember(entry db.SearchEntry) domain.Member {
	f := entry.Fields

	id := f[fieldID]
	if id == "" {
		id = f[fieldMemberID]
	}
	if id == "" {
		// Fall back to the key suffix for hashes written without an id field.
		if rest, ok := strings.CutPrefix(entry.Key, memberKeyPrefix); ok {
			id = rest
		}
	}

	return domain.Member{
		ID:             id,
		Name:           f[fieldName],
		GraduationYear: parseInt(f[fieldGradYear]),
		Degree:         f[fieldDegree],
		Branch:         f[fieldBranch],
		City:           f[fieldCity],
		SkillText:      f[fieldSkills],
		Organization:   f[fieldOrg],
		Designation:    f[fieldDesignation],
		Turnover:       parseFloat(f[fieldTurnover]),
		TurnoverLabel:  f[fieldTurnLabel],
		CommunityID:    f[fieldCommunityID],
		UpdatedAt:      int64(parseFloat(f[fieldUpdatedAt])),
	}
}

func parseInt(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
