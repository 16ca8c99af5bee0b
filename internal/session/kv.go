package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned by KV implementations when a key holds no value.
var ErrNotFound = errors.New("session: key not found")

// KV is the persistence medium behind a Store. Keys are fully qualified.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Append pushes value onto a list at key, keeping only the newest max entries.
	Append(ctx context.Context, key, value string, max int) error
	// List returns list entries newest first.
	List(ctx context.Context, key string) ([]string, error)
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !e.expiresAt.After(now)
}

// MemoryKV is a process-local KV, used in tests and single-instance deployments.
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]memoryEntry
	lists  map[string][]string
	now    func() time.Time
	// afterRead runs between releasing the read lock and taking the write lock in Get.
	afterRead func()
}

// NewMemoryKV creates an empty in-memory store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{
		values: make(map[string]memoryEntry),
		lists:  make(map[string][]string),
		now:    time.Now,
	}
}

func (m *MemoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return "", ErrNotFound
	}
	if !entry.expired(m.now()) {
		return entry.value, nil
	}
	if m.afterRead != nil {
		m.afterRead()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// a Set may have replaced the entry since the read lock was released
	if current, ok := m.values[key]; ok && current.expired(m.now()) {
		delete(m.values, key)
	} else if ok {
		return current.value, nil
	}
	return "", ErrNotFound
}

func (m *MemoryKV) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = entry
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.values, key)
		delete(m.lists, key)
	}
	return nil
}

func (m *MemoryKV) Append(_ context.Context, key, value string, max int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]string{value}, m.lists[key]...)
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	m.lists[key] = list
	return nil
}

func (m *MemoryKV) List(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lists[key]...), nil
}
