// Package member adapts the member and embedding indexes in RediSearch to
// the retrieval engine's sub-search interfaces. The member hash backs the
// BM25 sub-search; embedding hashes carry denormalized member attributes so
// KNN pre-filters never need a second round trip.
package member

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/memberscout/internal/db"
	"github.com/kailas-cloud/memberscout/internal/domain"
)

// Key and index names.
const (
	memberKeyPrefix = domain.KeyPrefix + "member:"
	memberIndexName = domain.KeyPrefix + "members:idx"

	embeddingKeyPrefix = domain.KeyPrefix + "embedding:"
	embeddingIndexName = domain.KeyPrefix + "embeddings:idx"
)

// Hash field names shared by both indexes.
const (
	fieldID          = "id"
	fieldName        = "name"
	fieldGradYear    = "graduation_year"
	fieldDegree      = "degree"
	fieldBranch      = "branch"
	fieldCity        = "city"
	fieldSkills      = "skills"
	fieldOrg         = "organization"
	fieldDesignation = "designation"
	fieldTurnover    = "turnover"
	fieldTurnLabel   = "turnover_label"
	fieldCommunityID = "community_id"
	fieldUpdatedAt   = "updated_at"
	fieldProfile     = "profile"

	// Embedding-only fields.
	fieldMemberID = "member_id"
	fieldKind     = "kind"
	fieldVector   = "vector"
)

// HNSW construction parameters.
const (
	hnswM           = 16
	hnswEFConstruct = 200
)

// indexStore is the consumer interface for index management (ISP).
type indexStore interface {
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// EnsureIndexes creates the member and embedding indexes if they do not
// exist yet. Existing indexes are left untouched; schema migration is an
// operational task, not a startup one.
func EnsureIndexes(ctx context.Context, s indexStore, vectorDim int) error {
	memberDef, err := db.NewIndex(memberIndexName).
		Prefix(memberKeyPrefix).
		Tag(fieldCommunityID).
		Tag(fieldBranch).
		Tag(fieldCity).
		Tag(fieldDegree).
		Tag(fieldDesignation).
		Numeric(fieldGradYear).
		Numeric(fieldTurnover).
		Numeric(fieldUpdatedAt).
		Text(fieldName).
		Text(fieldProfile).
		Build()
	if err != nil {
		return fmt.Errorf("build member index: %w", err)
	}

	embeddingDef, err := db.NewIndex(embeddingIndexName).
		Prefix(embeddingKeyPrefix).
		Tag(fieldKind).
		Tag(fieldCommunityID).
		Tag(fieldBranch).
		Tag(fieldCity).
		Tag(fieldDegree).
		Tag(fieldDesignation).
		Numeric(fieldGradYear).
		Numeric(fieldTurnover).
		Numeric(fieldUpdatedAt).
		Text(fieldName).
		Text(fieldProfile).
		VectorHNSW(fieldVector, vectorDim, db.DistanceCosine, hnswM, hnswEFConstruct).
		Build()
	if err != nil {
		return fmt.Errorf("build embedding index: %w", err)
	}

	for _, def := range []*db.IndexDefinition{memberDef, embeddingDef} {
		exists, err := s.IndexExists(ctx, def.Name)
		if err != nil {
			return fmt.Errorf("check index %s: %w", def.Name, err)
		}
		if exists {
			continue
		}
		if err := s.CreateIndex(ctx, def); err != nil {
			return fmt.Errorf("create index %s: %w", def.Name, err)
		}
	}
	return nil
}
