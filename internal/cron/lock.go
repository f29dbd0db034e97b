package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgredis "github.com/angelmondragon/vendorpool-backend/pkg/redis"
	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Minute

// Lock guards a cron cycle across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type lockStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	LockKey(name string) string
}

// RedisLock is a SETNX lease on vp:lock:<name>. The TTL bounds how long a
// crashed worker can block the others.
type RedisLock struct {
	store lockStore
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLock(store lockStore, name string, ttl time.Duration) (*RedisLock, error) {
	if store == nil {
		return nil, errors.New("redis store required for cron lock")
	}
	if name == "" {
		return nil, errors.New("cron lock name required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{store: store, key: store.LockKey(name), ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.store.SetNX(ctx, l.key, token, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.token = token
	}
	return ok, nil
}

// Release deletes the key only while it still carries our token; an expired
// lease picked up by another replica is left alone.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	defer func() { l.token = "" }()

	current, err := l.store.Get(ctx, l.key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", l.key, err)
	}
	if current != l.token {
		return nil
	}
	if err := l.store.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete %s: %w", l.key, err)
	}
	return nil
}
