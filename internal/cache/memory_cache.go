package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/annel0/topomap/internal/logging"
)

// MemoryCache реализует TileCache в памяти процесса.
// Промахи читаются из Cold Storage (Read-Through), запись идёт сразу в оба уровня (Write-Through).
type MemoryCache struct {
	mu         sync.RWMutex
	items      map[string]memoryItem
	defaultTTL time.Duration

	coldStorage ColdStorage
	invalidator CacheInvalidator

	stats

	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type memoryItem struct {
	value   []byte
	expires time.Time // нулевое значение - без истечения
}

func (it memoryItem) expired(now time.Time) bool {
	return !it.expires.IsZero() && now.After(it.expires)
}

// NewMemoryCache создаёт кеш в памяти. defaultTTL <= 0 означает хранение без истечения.
// coldStorage может быть nil.
func NewMemoryCache(defaultTTL time.Duration, coldStorage ColdStorage) *MemoryCache {
	c := &MemoryCache{
		items:       make(map[string]memoryItem),
		defaultTTL:  defaultTTL,
		coldStorage: coldStorage,
		stopCh:      make(chan struct{}),
	}
	if defaultTTL > 0 {
		c.startJanitor(defaultTTL)
	}
	return c
}

// Get получает значение из памяти или Cold Storage.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer c.recordLatency(start)

	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if ok && !it.expired(start) {
		c.hit()
		return it.value, nil
	}
	c.miss()

	if c.coldStorage != nil {
		val, err := c.coldStorage.Load(ctx, key)
		if err == nil {
			c.coldHit()
			c.put(key, val, c.defaultTTL)
			return val, nil
		}
		if !IsCacheMiss(err) {
			logging.Warn("Cold storage load error for key %s: %v", key, err)
		}
	}
	return nil, ErrCacheMiss
}

// Set сохраняет значение в памяти и Cold Storage.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer c.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.put(key, value, ttl)

	if c.coldStorage != nil {
		if err := c.coldStorage.Store(ctx, key, value); err != nil {
			logging.Error("Failed to write to cold storage: %v", err)
			return err
		}
	}
	return nil
}

func (c *MemoryCache) put(key string, value []byte, ttl time.Duration) {
	it := memoryItem{value: value}
	if ttl > 0 {
		it.expires = time.Now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = it
	c.mu.Unlock()
}

// Delete удаляет ключ из памяти и Cold Storage.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()

	if c.coldStorage != nil {
		return c.coldStorage.Delete(ctx, key)
	}
	return nil
}

// InvalidatePrefix удаляет ключи с префиксом локально и уведомляет другие узлы.
func (c *MemoryCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if err := c.dropPrefix(ctx, prefix); err != nil {
		return err
	}
	if c.invalidator != nil {
		return c.invalidator.PublishInvalidation(ctx, prefix)
	}
	return nil
}

// dropPrefix удаляет ключи с префиксом без рассылки уведомлений.
func (c *MemoryCache) dropPrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	dropped := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			dropped++
		}
	}
	c.mu.Unlock()
	logging.Debug("Memory cache: dropped %d keys with prefix %s", dropped, prefix)

	if c.coldStorage != nil {
		return c.coldStorage.DeletePrefix(ctx, prefix)
	}
	return nil
}

// UseInvalidator подключает распределённую инвалидацию: уведомления других
// узлов очищают локальный кеш, а InvalidatePrefix начинает их рассылать.
func (c *MemoryCache) UseInvalidator(ctx context.Context, inv CacheInvalidator) error {
	c.invalidator = inv
	return inv.SubscribeInvalidations(ctx, func(prefix string) error {
		return c.dropPrefix(context.Background(), prefix)
	})
}

// Len возвращает число ключей в памяти (включая ещё не вычищенные устаревшие).
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// GetMetrics возвращает текущие метрики кеша.
func (c *MemoryCache) GetMetrics() *CacheMetrics {
	m := c.snapshot()
	m.TotalKeys = int64(c.Len())
	return m
}

// Close останавливает очистку устаревших записей.
func (c *MemoryCache) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopCh)
		c.wg.Wait()
	})
	return nil
}

// startJanitor периодически удаляет устаревшие записи.
func (c *MemoryCache) startJanitor(interval time.Duration) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.evictExpired()
			case <-c.stopCh:
				return
			}
		}
	}()
}

func (c *MemoryCache) evictExpired() {
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, it := range c.items {
		if it.expired(now) {
			delete(c.items, key)
		}
	}
}
