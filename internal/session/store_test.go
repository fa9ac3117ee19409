package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behavior every backend must share.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	rec, err := s.Load(ctx, id)
	require.NoError(t, err)
	require.Empty(t, rec.Payload)

	payload := []byte(`{"version":1}`)
	require.NoError(t, s.Save(ctx, id, Record{Payload: payload}))

	rec, err = s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, payload, rec.Payload)
	require.False(t, rec.UpdatedAt.IsZero())

	// wholesale overwrite
	payload2 := []byte(`{"version":1,"nodes":[]}`)
	require.NoError(t, s.Save(ctx, id, Record{Payload: payload2}))
	rec, err = s.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, payload2, rec.Payload)

	_, err = s.Load(ctx, "no-such-session")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.MarkExpired(ctx, id))
	_, err = s.Load(ctx, id)
	require.ErrorIs(t, err, ErrExpired)

	require.ErrorIs(t, s.MarkExpired(ctx, "no-such-session"), ErrNotFound)
}

func testStoreAcquire(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Create(ctx)
	require.NoError(t, err)

	release, err := s.Acquire(ctx, id)
	require.NoError(t, err)

	// a second acquire must wait for release
	entered := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r2, err := s.Acquire(ctx, id)
		if err == nil {
			close(entered)
			r2()
		}
	}()

	select {
	case <-entered:
		t.Fatal("second acquire succeeded while lock held")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	wg.Wait()
	select {
	case <-entered:
	default:
		t.Fatal("second acquire never succeeded")
	}

	// acquire honors context cancellation while blocked
	r3, err := s.Acquire(ctx, id)
	require.NoError(t, err)
	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(cctx, id)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	r3()
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(0)
	t.Cleanup(func() { _ = s.Close() })
	testStoreContract(t, s)
}

func TestMemoryStoreAcquire(t *testing.T) {
	t.Parallel()
	s := NewMemoryStore(0)
	testStoreAcquire(t, s)
}

func TestMemoryStoreTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := NewMemoryStore(time.Minute)
	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, id, Record{Payload: []byte("x")}))

	_, err = s.Load(ctx, id)
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Load(ctx, id)
	require.ErrorIs(t, err, ErrExpired)
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestSQLiteStoreAcquire(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStoreAcquire(t, s)
}

func TestSQLiteStoreReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sessions.db")
	s, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)

	id, err := s.Create(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, id, Record{Payload: []byte("persisted")}))
	require.NoError(t, s.Close())

	// records and schema survive reopen; migrations are idempotent
	s2, err := NewSQLiteStore(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })

	rec, err := s2.Load(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []byte("persisted"), rec.Payload)
}

func TestBoltStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.bolt")
	s, err := NewBoltStore(path, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestBoltStoreTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sessions.bolt")
	s, err := NewBoltStore(path, time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	id, err := s.Create(ctx)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = s.Load(ctx, id)
	require.ErrorIs(t, err, ErrExpired)
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("PANELKIT_TEST_REDIS_URL")
	if url == "" {
		t.Skip("PANELKIT_TEST_REDIS_URL not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, url, time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
	testStoreAcquire(t, s)
}
