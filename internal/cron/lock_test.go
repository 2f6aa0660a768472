package cron

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/churchhub-backend/pkg/instance"
)

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) DelIfValue(_ context.Context, key, value string) (bool, error) {
	if m.values[key] != value {
		return false, nil
	}
	delete(m.values, key)
	return true, nil
}

func (m *memoryStore) LockKey(name string) string { return "ch:lock:" + name }

func TestRedisLockIsPerJob(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	a, err := NewRedisLock(store, time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	b, _ := NewRedisLock(store, time.Minute)
	ctx := context.Background()

	if ok, err := a.Acquire(ctx, "prayer-archive"); err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	if ok, _ := b.Acquire(ctx, "prayer-archive"); ok {
		t.Fatal("second instance must not acquire a held job lock")
	}
	if ok, _ := b.Acquire(ctx, "rejected-member-cleanup"); !ok {
		t.Fatal("other jobs stay acquirable")
	}
	owner := store.values["ch:lock:cron:prayer-archive"]
	if !strings.HasPrefix(owner, instance.ID()+":") {
		t.Fatalf("owner should carry the instance id, got %q", owner)
	}

	if err := b.Release(ctx, "prayer-archive"); err != nil {
		t.Fatalf("foreign release: %v", err)
	}
	if _, ok := store.values["ch:lock:cron:prayer-archive"]; !ok {
		t.Fatal("non-owner release must not delete the key")
	}
	if err := a.Release(ctx, "prayer-archive"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["ch:lock:cron:prayer-archive"]; ok {
		t.Fatal("owner release should delete the key")
	}
}

func TestRedisLockReleaseAfterExpiry(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	lock, _ := NewRedisLock(store, time.Minute)
	ctx := context.Background()
	if ok, _ := lock.Acquire(ctx, "job"); !ok {
		t.Fatal("acquire failed")
	}
	delete(store.values, "ch:lock:cron:job")
	if err := lock.Release(ctx, "job"); err != nil {
		t.Fatalf("release after expiry: %v", err)
	}
}
