package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
	"github.com/kailas-cloud/memberscout/internal/domain/query/spec"
)

type mockListStore struct {
	rpushFn  func(ctx context.Context, key string, value []byte, keep int) error
	lrangeFn func(ctx context.Context, key string, n int) ([][]byte, error)
	expireFn func(ctx context.Context, key string, ttl time.Duration) error

	pushed  [][]byte
	lastKey string
	lastTTL time.Duration
}

func (m *mockListStore) RPushTrim(ctx context.Context, key string, value []byte, keep int) error {
	m.lastKey = key
	m.pushed = append(m.pushed, value)
	if m.rpushFn != nil {
		return m.rpushFn(ctx, key, value, keep)
	}
	return nil
}

func (m *mockListStore) LRangeLast(ctx context.Context, key string, n int) ([][]byte, error) {
	m.lastKey = key
	if m.lrangeFn != nil {
		return m.lrangeFn(ctx, key, n)
	}
	return nil, nil
}

func (m *mockListStore) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.lastTTL = ttl
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl)
	}
	return nil
}

func testTurn(t *testing.T, id, sessionID string) conversation.Turn {
	t.Helper()
	year, err := filter.NewYear(1998)
	if err != nil {
		t.Fatalf("NewYear: %v", err)
	}
	q, err := spec.New("community-1", "mechanical engineers", filter.NewSet(year), 10, 0)
	if err != nil {
		t.Fatalf("spec.New: %v", err)
	}
	return conversation.Turn{
		ID:        id,
		SessionID: sessionID,
		TenantID:  "community-1",
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		RawText:   "mechanical engineers from 1998",
		Spec:      q,
		ResultIDs: []string{"m1", "m2"},
	}
}

func turnIDs(turns []conversation.Turn) []string {
	ids := make([]string, len(turns))
	for i, t := range turns {
		ids[i] = t.ID
	}
	return ids
}

func turnID(i int) string {
	return fmt.Sprintf("turn-%02d", i)
}
