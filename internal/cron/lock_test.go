package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memoryStore) LockKey(name string) string { return "vp:lock:" + name }

func TestRedisLockAcquireRelease(t *testing.T) {
	store := newMemoryStore()
	first, err := NewRedisLock(store, "cron", 0)
	require.NoError(t, err)
	second, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, defaultLockTTL, store.ttls["vp:lock:cron"])

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	// a lock that never acquired must not free someone else's lease
	require.NoError(t, second.Release(ctx))
	require.Contains(t, store.values, "vp:lock:cron")

	require.NoError(t, first.Release(ctx))
	require.NotContains(t, store.values, "vp:lock:cron")

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockLeavesForeignLease(t *testing.T) {
	store := newMemoryStore()
	lock, err := NewRedisLock(store, "cron", time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := lock.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// simulate expiry and takeover by another replica
	store.values["vp:lock:cron"] = "other-owner"
	require.NoError(t, lock.Release(ctx))
	require.Equal(t, "other-owner", store.values["vp:lock:cron"])
}

func TestNewRedisLockValidation(t *testing.T) {
	_, err := NewRedisLock(nil, "cron", time.Minute)
	require.Error(t, err)
	_, err = NewRedisLock(newMemoryStore(), "", time.Minute)
	require.Error(t, err)
}
