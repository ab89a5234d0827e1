package session

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/memberscout/internal/domain/conversation"
)

// sweepEvery bounds how often a write triggers an expiry sweep.
const sweepEvery = 64

type memoryEntry struct {
	mu       sync.Mutex
	turns    []conversation.Turn
	lastSeen time.Time
}

// MemoryStore keeps session windows in process memory. Suitable for a
// single-replica deployment; the Redis store carries the same contract for
// anything bigger.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	window  int
	idleTTL time.Duration
	now     func() time.Time
	writes  int
}

// NewMemoryStore creates an in-memory context store keeping the last window
// turns per session, dropped after idleTTL without activity.
func NewMemoryStore(window int, idleTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		window:  window,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// Recent returns up to window turns for the session, oldest first. An
// unknown or expired session yields an empty slice, not an error.
func (s *MemoryStore) Recent(_ context.Context, sessionID string) ([]conversation.Turn, error) {
	e := s.lookup(sessionID)
	if e == nil {
		return nil, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s.now().Sub(e.lastSeen) > s.idleTTL {
		return nil, nil
	}
	out := make([]conversation.Turn, len(e.turns))
	copy(out, e.turns)
	return out, nil
}

// Append adds a turn to the session window, evicting the oldest turn when
// the window is full.
func (s *MemoryStore) Append(_ context.Context, turn conversation.Turn) error {
	e := s.obtain(turn.SessionID)

	e.mu.Lock()
	now := s.now()
	if now.Sub(e.lastSeen) > s.idleTTL {
		e.turns = e.turns[:0]
	}
	e.lastSeen = now
	e.turns = append(e.turns, turn)
	if len(e.turns) > s.window {
		e.turns = append(e.turns[:0], e.turns[len(e.turns)-s.window:]...)
	}
	e.mu.Unlock()

	s.maybeSweep()
	return nil
}

func (s *MemoryStore) lookup(sessionID string) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[sessionID]
}

func (s *MemoryStore) obtain(sessionID string) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[sessionID]
	if !ok {
		e = &memoryEntry{lastSeen: s.now()}
		s.entries[sessionID] = e
	}
	return e
}

// maybeSweep drops expired sessions every sweepEvery writes, keeping memory
// bounded without a background goroutine.
func (s *MemoryStore) maybeSweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writes%sweepEvery != 0 {
		return
	}

	cutoff := s.now().Add(-s.idleTTL)
	for id, e := range s.entries {
		e.mu.Lock()
		expired := e.lastSeen.Before(cutoff)
		e.mu.Unlock()
		if expired {
			delete(s.entries, id)
		}
	}
}
