package session

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists session records in a single sqlite file.
type SQLiteStore struct {
	db    *sql.DB
	ttl   time.Duration
	locks *sessionLocks
	now   func() time.Time
}

// NewSQLiteStore opens (or creates) the database at path and applies
// migrations. ttl zero disables aging.
func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db, ttl: ttl, locks: newSessionLocks(), now: time.Now}, nil
}

func runMigrations(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("session: load migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("session: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("session: migrate: %w", err)
	}
	// m.Close would close the shared *sql.DB; the store keeps using it.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("session: migrate up: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO sessions(id, payload, expired, updated_at) VALUES (?, ?, 0, ?)
	`, id, []byte{}, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("session: create: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (Record, error) {
	var rec Record
	var exp int
	err := s.db.QueryRowContext(ctx, `
	SELECT payload, expired, updated_at FROM sessions WHERE id = ?
	`, id).Scan(&rec.Payload, &exp, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("session: load: %w", err)
	}
	rec.Expired = exp != 0
	if expired(rec, s.ttl, s.now()) {
		return Record{}, ErrExpired
	}
	return rec, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = s.now().UTC()
	}
	exp := 0
	if rec.Expired {
		exp = 1
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO sessions(id, payload, expired, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
	 payload=excluded.payload,
	 expired=excluded.expired,
	 updated_at=excluded.updated_at;
	`, id, rec.Payload, exp, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkExpired(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET expired = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: mark expired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: mark expired: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Acquire(ctx context.Context, id string) (func(), error) {
	return s.locks.acquire(ctx, id)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
