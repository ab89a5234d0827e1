// Package retrieve runs the hybrid retrieval pipeline: embed the query text,
// fan out lexical and vector sub-searches, then merge, rank and deduplicate
// deterministically. Hard filters are applied inside each sub-search and
// never relaxed here.
package retrieve

import (
	"context"

	"github.com/kailas-cloud/memberscout/internal/domain/query/result"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

// LexicalIndex is the consumer interface for the BM25 sub-search (ISP).
type LexicalIndex interface {
	SearchText(ctx context.Context, q spec.Spec, topK int) ([]result.Hit, error)
}

// VectorIndex is the consumer interface for the KNN sub-search (ISP).
type VectorIndex interface {
	SearchVector(ctx context.Context, q spec.Spec, vector []float32, topK int) ([]result.Hit, error)
}
