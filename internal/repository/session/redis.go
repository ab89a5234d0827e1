package session

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/memberscout/internal/domain"
	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
)

var sessionKeyPrefix = domain.KeyPrefix + "session:"

// listStore is the consumer interface for session persistence (ISP).
type listStore interface {
	RPushTrim(ctx context.Context, key string, value []byte, keep int) error
	LRangeLast(ctx context.Context, key string, n int) ([][]byte, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
}

// RedisStore keeps session windows in Redis lists, trimmed to the window
// size on every write and expiring after the idle TTL.
type RedisStore struct {
	store   listStore
	window  int
	idleTTL time.Duration
	logger  *zap.Logger
}

// NewRedisStore creates a Redis-backed context store.
func NewRedisStore(s listStore, window int, idleTTL time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{store: s, window: window, idleTTL: idleTTL, logger: logger}
}

func sessionKey(sessionID string) string {
	return sessionKeyPrefix + sessionID
}

// Recent returns up to window turns for the session, oldest first. Entries
// that fail to decode are skipped with a log line rather than failing the
// whole read.
func (s *RedisStore) Recent(ctx context.Context, sessionID string) ([]conversation.Turn, error) {
	rows, err := s.store.LRangeLast(ctx, sessionKey(sessionID), s.window)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", sessionID, err)
	}

	turns := make([]conversation.Turn, 0, len(rows))
	for _, row := range rows {
		t, err := decodeTurn(row)
		if err != nil {
			s.logger.Warn("skipping undecodable session turn",
				zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Append pushes a turn onto the session list, trims to the window and
// refreshes the idle TTL.
func (s *RedisStore) Append(ctx context.Context, turn conversation.Turn) error {
	data, err := encodeTurn(turn)
	if err != nil {
		return err
	}

	key := sessionKey(turn.SessionID)
	if err := s.store.RPushTrim(ctx, key, data, s.window); err != nil {
		return fmt.Errorf("append session %s: %w", turn.SessionID, err)
	}
	if err := s.store.Expire(ctx, key, s.idleTTL); err != nil {
		return fmt.Errorf("refresh session ttl %s: %w", turn.SessionID, err)
	}
	return nil
}
