package session

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/diewo77/invoice-web/auth"
	"github.com/diewo77/invoice-web/internal/apiclient"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&Entry{}))
	return NewGormStore(db)
}

func stores(t *testing.T) map[string]Store {
	out := map[string]Store{
		"memory": NewMemoryStore(),
		"gorm":   newSQLiteStore(t),
	}
	if addr := os.Getenv("REDIS_TEST_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		t.Cleanup(func() { _ = rdb.Close() })
		out["redis"] = NewRedisStore(rdb, "test:"+t.Name()+":")
	}
	return out
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "a", "1", 0))
			require.NoError(t, s.Set(ctx, "b", "2", time.Hour))
			v, err := s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "1", v)

			require.NoError(t, s.Set(ctx, "a", "one", 0))
			v, err = s.Get(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "one", v)

			require.NoError(t, s.Delete(ctx, "a", "b", "never-set"))
			_, err = s.Get(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = s.Get(ctx, "b")
			assert.ErrorIs(t, err, ErrNotFound)
			require.NoError(t, s.Delete(ctx))
		})
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", "v", time.Minute))
	now = now.Add(59 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)
	now = now.Add(time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStoreExpiryAndPurge(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newSQLiteStore(t)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, s.Set(ctx, "long", "v", time.Hour))
	require.NoError(t, s.Set(ctx, "forever", "v", 0))

	now = now.Add(2 * time.Minute)
	_, err := s.Get(ctx, "short")
	assert.ErrorIs(t, err, ErrNotFound)

	now = now.Add(2 * time.Hour)
	n, err := s.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = s.Get(ctx, "forever")
	require.NoError(t, err)
}

func TestManagerRoundTrip(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, quietLogger())
	ctx := context.Background()

	_, ok, err := m.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	st := AuthState{
		Token:   "tok",
		User:    &apiclient.User{UserID: 1, FirstName: "Ada", Email: "ada@example.com"},
		Company: &apiclient.Company{CompanyID: 2, CompanyName: "Acme"},
	}
	require.NoError(t, m.Save(ctx, "sid", st))
	got, ok, err := m.Load(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, got)

	require.NoError(t, m.Clear(ctx, "sid"))
	_, ok, err = m.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerTokenSource(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, quietLogger())
	ctx := auth.WithSessionID(context.Background(), "sid")

	_, ok := m.Token(context.Background())
	assert.False(t, ok, "no session id in context")

	require.NoError(t, m.Save(ctx, "sid", AuthState{Token: "tok"}))
	tok, ok := m.Token(ctx)
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)
	assert.True(t, m.SignedIn(ctx))

	m.Expire(ctx)
	_, ok = m.Token(ctx)
	assert.False(t, ok)
	assert.False(t, m.SignedIn(ctx))
	_, err := store.Get(ctx, "sid:ai_auth")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerSessionsAreIsolated(t *testing.T) {
	m := NewManager(NewMemoryStore(), time.Hour, quietLogger())
	a := auth.WithSessionID(context.Background(), "a")
	b := auth.WithSessionID(context.Background(), "b")
	require.NoError(t, m.Save(a, "a", AuthState{Token: "ta"}))
	require.NoError(t, m.Save(b, "b", AuthState{Token: "tb"}))

	m.Expire(a)
	_, ok := m.Token(a)
	assert.False(t, ok)
	tok, ok := m.Token(b)
	assert.True(t, ok)
	assert.Equal(t, "tb", tok)
}

func TestManagerToleratesCorruptAuthBlob(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, time.Hour, quietLogger())
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "sid:ai_token", "tok", 0))
	require.NoError(t, store.Set(ctx, "sid:ai_auth", "{not json", 0))

	st, ok, err := m.Load(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok", st.Token)
	assert.Nil(t, st.User)
}

func TestLocalGuardAdmitsOne(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()

	held, ok, err := g.Acquire(ctx, "save:sid")
	require.NoError(t, err)
	require.True(t, ok)

	var admitted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if done, ok, _ := g.Acquire(ctx, "save:sid"); ok {
				admitted.Add(1)
				done()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), admitted.Load())

	held()
	held()
	done, ok, err := g.Acquire(ctx, "save:sid")
	require.NoError(t, err)
	assert.True(t, ok, "key is free again after release")
	done()
}

func TestLocalGuardKeysAreIndependent(t *testing.T) {
	g := NewLocalGuard()
	ctx := context.Background()
	r1, ok, _ := g.Acquire(ctx, "a")
	require.True(t, ok)
	r2, ok, _ := g.Acquire(ctx, "b")
	require.True(t, ok)
	_, ok, _ = g.Acquire(ctx, "a")
	assert.False(t, ok)
	r1()
	r2()
}
