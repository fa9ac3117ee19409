package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "panelkit:session:"

// storedRecord is the serialized form shared by the redis and bolt backends.
type storedRecord struct {
	Payload   []byte    `json:"payload"`
	Expired   bool      `json:"expired"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisStore persists session records in redis. TTL is enforced by redis
// itself; MarkExpired additionally writes a tombstone so expiry is visible
// before the TTL fires.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	locks  *sessionLocks
}

// NewRedisStore connects to the given redis URL and pings it once.
func NewRedisStore(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("session: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("session: connect redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl, locks: newSessionLocks()}, nil
}

func (s *RedisStore) set(ctx context.Context, id string, rec storedRecord) error {
	data, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+id, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) get(ctx context.Context, id string) (storedRecord, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return storedRecord{}, ErrNotFound
	}
	if err != nil {
		return storedRecord{}, fmt.Errorf("session: redis get: %w", err)
	}
	var rec storedRecord
	if err := sonic.Unmarshal(data, &rec); err != nil {
		return storedRecord{}, fmt.Errorf("session: unmarshal record: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	if err := s.set(ctx, id, storedRecord{UpdatedAt: time.Now().UTC()}); err != nil {
		return "", err
	}
	return id, nil
}

func (s *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if rec.Expired {
		return Record{}, ErrExpired
	}
	return Record{Payload: rec.Payload, UpdatedAt: rec.UpdatedAt}, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	return s.set(ctx, id, storedRecord{Payload: rec.Payload, Expired: rec.Expired, UpdatedAt: rec.UpdatedAt})
}

func (s *RedisStore) MarkExpired(ctx context.Context, id string) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	rec.Expired = true
	return s.set(ctx, id, rec)
}

func (s *RedisStore) Acquire(ctx context.Context, id string) (func(), error) {
	return s.locks.acquire(ctx, id)
}

func (s *RedisStore) Close() error { return s.client.Close() }
