package session

import (
	"context"
	"sync"
)

// sessionLocks is a keyed mutex shared by every backend: one lock per live
// session id, created on demand and dropped when the last holder releases.
// It serializes cycles within this process; cross-process locking is out of
// scope for the built-in backends.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
}

type lockEntry struct {
	sem  chan struct{} // capacity 1; holding the token means holding the lock
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*lockEntry)}
}

// acquire blocks until the session lock is free or ctx is done.
func (l *sessionLocks) acquire(ctx context.Context, id string) (func(), error) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		l.put(id, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			<-e.sem
			l.put(id, e)
		})
	}
	return release, nil
}

func (l *sessionLocks) put(id string, e *lockEntry) {
	l.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, id)
	}
	l.mu.Unlock()
}
