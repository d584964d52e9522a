package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry[T any] struct {
	v         T
	expiresAt time.Time
}

func (e memoryEntry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

type MemoryStore[T any] struct {
	mu  sync.RWMutex
	m   map[string]memoryEntry[T]
	ttl time.Duration
	now func() time.Time
}

// NewMemoryStore returns an in-process store. A zero ttl keeps entries
// until they are deleted.
func NewMemoryStore[T any](ttl time.Duration) *MemoryStore[T] {
	return &MemoryStore[T]{m: map[string]memoryEntry[T]{}, ttl: ttl, now: time.Now}
}

func (s *MemoryStore[T]) Get(_ context.Context, id string) (T, bool, error) {
	var zero T
	s.mu.RLock()
	e, ok := s.m[id]
	s.mu.RUnlock()
	if !ok {
		return zero, false, nil
	}
	now := s.now()
	if !e.expired(now) {
		return e.v, true, nil
	}

	// a Put may have replaced the entry since the read lock was released
	s.mu.Lock()
	if cur, ok := s.m[id]; ok && cur.expired(now) {
		delete(s.m, id)
	}
	s.mu.Unlock()
	return zero, false, nil
}

func (s *MemoryStore[T]) Put(_ context.Context, id string, v T) error {
	e := memoryEntry[T]{v: v}
	if s.ttl > 0 {
		e.expiresAt = s.now().Add(s.ttl)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = e
	return nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
	return nil
}

func (s *MemoryStore[T]) NewID() string {
	return newID()
}
