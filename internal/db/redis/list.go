package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/memberscout/internal/db"
)

// RPushTrim appends value to the list at key and trims it to its last keep
// entries. Two commands, no transaction: RPUSH and LTRIM are each atomic,
// and LTRIM -keep..-1 is idempotent, so interleaved writers can only trim
// the list to the window sooner — the bound itself always holds.
func (s *Store) RPushTrim(ctx context.Context, key string, value []byte, keep int) error {
	if keep <= 0 {
		return fmt.Errorf("keep must be positive")
	}

	push := s.b().Rpush().Key(key).Element(string(value)).Build()
	if err := s.do(ctx, push).Error(); err != nil {
		return &db.Error{Op: db.OpRPush, Err: err}
	}

	trim := s.b().Ltrim().Key(key).Start(int64(-keep)).Stop(-1).Build()
	if err := s.do(ctx, trim).Error(); err != nil {
		return &db.Error{Op: db.OpLTrim, Err: err}
	}
	return nil
}

// LRangeLast returns up to n trailing list entries, oldest first.
func (s *Store) LRangeLast(ctx context.Context, key string, n int) ([][]byte, error) {
	if n <= 0 {
		return nil, nil
	}

	cmd := s.b().Lrange().Key(key).Start(int64(-n)).Stop(-1).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpLRange, Err: err}
	}

	out := make([][]byte, 0, len(raw))
	for _, msg := range raw {
		b, err := msg.AsBytes()
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// Expire sets a TTL on a key.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration) error {
	cmd := s.b().Expire().Key(key).Seconds(int64(ttl.Seconds())).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}
