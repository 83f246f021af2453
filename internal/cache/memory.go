package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore — потокобезопасная реализация Store в памяти процесса.
// Подходит для одного инстанса и для тестов; для горизонтального
// масштабирования обработчика диалога используется RedisStore.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*memoryEntry
}

type memoryEntry struct {
	value     string
	expiresAt time.Time // нулевое значение — без TTL
}

// NewMemoryStore создаёт хранилище и запускает фоновую очистку просроченных ключей.
func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		items: make(map[string]*memoryEntry),
	}

	go ms.cleanup()

	return ms
}

// Get возвращает значение по ключу или ErrCacheMiss.
func (ms *MemoryStore) Get(_ context.Context, key string) (string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	entry, exists := ms.items[key]
	if !exists {
		return "", ErrCacheMiss
	}

	// Просроченные записи не отдаём, их удалит cleanup.
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		return "", ErrCacheMiss
	}

	return entry.value, nil
}

// Set сохраняет значение; ttl <= 0 означает запись без срока жизни.
func (ms *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	entry := &memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	ms.items[key] = entry
	return nil
}

// Delete удаляет ключ.
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.items, key)
	return nil
}

// cleanup периодически удаляет просроченные записи.
func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		ms.mu.Lock()
		now := time.Now()
		for key, entry := range ms.items {
			if !entry.expiresAt.IsZero() && now.After(entry.expiresAt) {
				delete(ms.items, key)
			}
		}
		ms.mu.Unlock()
	}
}
