package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps session records in a map. It is the test backend and the
// demo default; records do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	recs  map[string]Record
	ttl   time.Duration
	locks *sessionLocks
	now   func() time.Time
}

// NewMemoryStore creates an in-memory store. ttl zero disables aging.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		recs:  make(map[string]Record),
		ttl:   ttl,
		locks: newSessionLocks(),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	s.mu.Lock()
	s.recs[id] = Record{UpdatedAt: s.now().UTC()}
	s.mu.Unlock()
	return id, nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	rec, ok := s.recs[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	if expired(rec, s.ttl, s.now()) {
		return Record{}, ErrExpired
	}
	return rec, nil
}

func (s *MemoryStore) Save(ctx context.Context, id string, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now().UTC()
	}
	s.mu.Lock()
	s.recs[id] = rec
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) MarkExpired(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return ErrNotFound
	}
	rec.Expired = true
	s.recs[id] = rec
	return nil
}

func (s *MemoryStore) Acquire(ctx context.Context, id string) (func(), error) {
	return s.locks.acquire(ctx, id)
}

func (s *MemoryStore) Close() error { return nil }
