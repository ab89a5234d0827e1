package member

import (
	"context"
	"strconv"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/db"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

type mockStore struct {
	knnFn  func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	bm25Fn func(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)

	lastKNN  *db.KNNQuery
	lastBM25 *db.TextQuery
}

func (m *mockStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	m.lastKNN = q
	if m.knnFn != nil {
		return m.knnFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	m.lastBM25 = q
	if m.bm25Fn != nil {
		return m.bm25Fn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

type mockIndexStore struct {
	existing map[string]bool
	created  []string
	checkErr error
	createFn func(def *db.IndexDefinition) error
}

func (m *mockIndexStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	if m.createFn != nil {
		if err := m.createFn(def); err != nil {
			return err
		}
	}
	m.created = append(m.created, def.Name)
	return nil
}

func (m *mockIndexStore) IndexExists(_ context.Context, name string) (bool, error) {
	if m.checkErr != nil {
		return false, m.checkErr
	}
	return m.existing[name], nil
}

func newTestRepo(s *mockStore) *Repo {
	return New(s, zap.NewNop())
}

func testSpec(t *testing.T, text string, conds ...filter.Condition) spec.Spec {
	t.Helper()
	q, err := spec.New("community-1", text, filter.NewSet(conds...), 10, 0)
	if err != nil {
		t.Fatalf("spec.New: %v", err)
	}
	return q
}

func memberEntry(id string, score float64) db.SearchEntry {
	return db.SearchEntry{
		Key:   memberKeyPrefix + id,
		Score: score,
		Fields: map[string]string{
			fieldID:          id,
			fieldName:        "Member " + id,
			fieldGradYear:    "1998",
			fieldDegree:      "BE",
			fieldBranch:      "Mechanical",
			fieldCity:        "Chennai",
			fieldSkills:      "fabrication",
			fieldOrg:         "Acme Fabricators",
			fieldDesignation: "Founder",
			fieldTurnover:    "50000000",
			fieldTurnLabel:   "5 crore",
			fieldCommunityID: "community-1",
			fieldUpdatedAt:   strconv.Itoa(1700000000),
		},
	}
}
