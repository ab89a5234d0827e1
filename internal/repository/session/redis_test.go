package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain/query/filter"
)

func TestRedisStore_AppendPushesAndRefreshesTTL(t *testing.T) {
	m := &mockListStore{}
	s := NewRedisStore(m, 10, 30*time.Minute, zap.NewNop())

	if err := s.Append(context.Background(), testTurn(t, turnID(0), "s1")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if m.lastKey != sessionKeyPrefix+"s1" {
		t.Errorf("unexpected session key %q", m.lastKey)
	}
	if len(m.pushed) != 1 {
		t.Fatalf("expected one push, got %d", len(m.pushed))
	}
	if m.lastTTL != 30*time.Minute {
		t.Errorf("expected idle TTL refresh, got %v", m.lastTTL)
	}
}

func TestRedisStore_AppendPropagatesPushErrors(t *testing.T) {
	pushErr := errors.New("redis down")
	m := &mockListStore{rpushFn: func(_ context.Context, _ string, _ []byte, _ int) error {
		return pushErr
	}}
	s := NewRedisStore(m, 10, 30*time.Minute, zap.NewNop())

	if err := s.Append(context.Background(), testTurn(t, turnID(0), "s1")); !errors.Is(err, pushErr) {
		t.Fatalf("expected wrapped push error, got %v", err)
	}
}

func TestRedisStore_RecentDecodesTurns(t *testing.T) {
	row, err := encodeTurn(testTurn(t, turnID(0), "s1"))
	if err != nil {
		t.Fatalf("encodeTurn: %v", err)
	}
	m := &mockListStore{lrangeFn: func(_ context.Context, _ string, _ int) ([][]byte, error) {
		return [][]byte{row}, nil
	}}
	s := NewRedisStore(m, 10, 30*time.Minute, zap.NewNop())

	turns, err := s.Recent(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 1 || turns[0].ID != turnID(0) {
		t.Fatalf("expected the decoded turn, got %+v", turns)
	}
}

func TestRedisStore_RecentSkipsUndecodableRows(t *testing.T) {
	good, err := encodeTurn(testTurn(t, turnID(1), "s1"))
	if err != nil {
		t.Fatalf("encodeTurn: %v", err)
	}
	m := &mockListStore{lrangeFn: func(_ context.Context, _ string, _ int) ([][]byte, error) {
		return [][]byte{[]byte("{garbage"), good}, nil
	}}
	s := NewRedisStore(m, 10, 30*time.Minute, zap.NewNop())

	turns, err := s.Recent(context.Background(), "s1")
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 1 || turns[0].ID != turnID(1) {
		t.Fatalf("expected the garbage row skipped, got %+v", turns)
	}
}

func TestCodec_RoundTripsTurn(t *testing.T) {
	in := testTurn(t, turnID(0), "s1")

	data, err := encodeTurn(in)
	if err != nil {
		t.Fatalf("encodeTurn: %v", err)
	}
	out, err := decodeTurn(data)
	if err != nil {
		t.Fatalf("decodeTurn: %v", err)
	}

	if out.ID != in.ID || out.SessionID != in.SessionID || out.TenantID != in.TenantID {
		t.Errorf("identity fields changed: %+v", out)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp changed: %v vs %v", out.Timestamp, in.Timestamp)
	}
	if out.RawText != in.RawText {
		t.Errorf("raw text changed: %q", out.RawText)
	}
	if out.Spec.TenantID() != in.Spec.TenantID() || out.Spec.Text() != in.Spec.Text() {
		t.Errorf("spec changed: %+v", out.Spec)
	}
	c, ok := out.Spec.Filters().Get(filter.KindYear)
	if !ok || c.Year() != 1998 {
		t.Errorf("expected the year filter to survive, got %+v", out.Spec.Filters())
	}
	if len(out.ResultIDs) != 2 {
		t.Errorf("expected result ids to survive, got %v", out.ResultIDs)
	}
}

func TestCodec_DropsInvalidFilters(t *testing.T) {
	set := decodeFilters([]filterDTO{
		{Kind: "year", Year: 1998},
		{Kind: "year", Year: -3},
		{Kind: "made_up_kind", Value: "x"},
		{Kind: "city", Value: "Chennai"},
	})

	if _, ok := set.Get(filter.KindYear); !ok {
		t.Error("expected the valid year filter kept")
	}
	if _, ok := set.Get(filter.KindCity); !ok {
		t.Error("expected the valid city filter kept")
	}
	if got := len(set.Conditions()); got != 2 {
		t.Errorf("expected invalid entries dropped, got %d conditions", got)
	}
}
