// Package session defines the persistence contract for session records and
// the storage backends behind it: memory, sqlite, redis, and bolt. A record
// is opaque to the store; the panel codec owns its layout.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports a session id with no record behind it.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired reports a record past its TTL or explicitly expired.
	// Callers recover from this by starting a fresh session; it is never a
	// user-visible failure.
	ErrExpired = errors.New("session: expired")
)

// Record is one session's persisted state. Payload is the serialized panel
// tree; the store overwrites it wholesale on every successful cycle.
type Record struct {
	Payload   []byte
	Expired   bool
	UpdatedAt time.Time
}

// Store is the persistence collaborator. Implementations must serialize
// concurrent cycles against the same session id through Acquire: the cycle
// runner holds the session from restore until persist (or failure), so at
// most one writer completes a state transition per acquisition.
type Store interface {
	// Create allocates a fresh session id with an empty record.
	Create(ctx context.Context) (string, error)

	// Load returns the record for id, ErrNotFound if it never existed, or
	// ErrExpired if it is past recovery.
	Load(ctx context.Context, id string) (Record, error)

	// Save overwrites the record for id.
	Save(ctx context.Context, id string, rec Record) error

	// MarkExpired tombstones the record; later Loads return ErrExpired.
	MarkExpired(ctx context.Context, id string) error

	// Acquire takes the per-session lock, blocking until it is free or ctx
	// is done. The returned release must be called exactly once.
	Acquire(ctx context.Context, id string) (func(), error)

	Close() error
}

// expired reports whether a record is past its useful life under ttl.
// A zero ttl means records never age out; the Expired flag still applies.
func expired(rec Record, ttl time.Duration, now time.Time) bool {
	if rec.Expired {
		return true
	}
	return ttl > 0 && now.Sub(rec.UpdatedAt) > ttl
}
