package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Guard admits one in-flight operation per key. Acquire returns ok=false
// when the key is already held.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// LocalGuard holds keys in process memory.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

func (g *LocalGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}

// RedisGuard holds keys as Redis locks so that several server instances
// share them. ttl bounds how long a crashed holder blocks the key.
type RedisGuard struct {
	locker *redislock.Client
	prefix string
	ttl    time.Duration
}

func NewRedisGuard(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisGuard {
	return &RedisGuard{locker: redislock.New(rdb), prefix: prefix, ttl: ttl}
}

func (g *RedisGuard) Acquire(ctx context.Context, key string) (func(), bool, error) {
	lock, err := g.locker.Obtain(ctx, g.prefix+key, g.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: obtain lock: %w", err)
	}
	return func() { _ = lock.Release(context.Background()) }, true, nil
}
