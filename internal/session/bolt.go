package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("sessions")

// BoltStore persists session records in a single bbolt file: one bucket,
// session id as key. The file-backed analogue of the sqlite backend with no
// schema to migrate.
type BoltStore struct {
	db    *bolt.DB
	ttl   time.Duration
	locks *sessionLocks
	now   func() time.Time
}

// NewBoltStore opens (or creates) the database at path.
func NewBoltStore(path string, ttl time.Duration) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("session: open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session: init bolt bucket: %w", err)
	}
	return &BoltStore{db: db, ttl: ttl, locks: newSessionLocks(), now: time.Now}, nil
}

func (s *BoltStore) put(id string, rec storedRecord) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(id), data)
	})
	if err != nil {
		return fmt.Errorf("session: bolt put: %w", err)
	}
	return nil
}

func (s *BoltStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.put(id, storedRecord{UpdatedAt: s.now().UTC()}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *BoltStore) get(id string) (storedRecord, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(boltBucket).Get([]byte(id)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return storedRecord{}, fmt.Errorf("session: bolt get: %w", err)
	}
	if data == nil {
		return storedRecord{}, ErrNotFound
	}
	var sr storedRecord
	if err := sonic.Unmarshal(data, &sr); err != nil {
		return storedRecord{}, fmt.Errorf("session: unmarshal record: %w", err)
	}
	return sr, nil
}

func (s *BoltStore) Load(ctx context.Context, id string) (Record, error) {
	sr, err := s.get(id)
	if err != nil {
		return Record{}, err
	}
	rec := Record{Payload: sr.Payload, Expired: sr.Expired, UpdatedAt: sr.UpdatedAt}
	if expired(rec, s.ttl, s.now()) {
		return Record{}, ErrExpired
	}
	return rec, nil
}

func (s *BoltStore) Save(ctx context.Context, id string, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now().UTC()
	}
	return s.put(id, storedRecord{Payload: rec.Payload, Expired: rec.Expired, UpdatedAt: rec.UpdatedAt})
}

func (s *BoltStore) MarkExpired(ctx context.Context, id string) error {
	sr, err := s.get(id)
	if err != nil {
		return err
	}
	sr.Expired = true
	return s.put(id, sr)
}

func (s *BoltStore) Acquire(ctx context.Context, id string) (func(), error) {
	return s.locks.acquire(ctx, id)
}

func (s *BoltStore) Close() error { return s.db.Close() }
