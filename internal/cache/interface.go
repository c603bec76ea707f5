package cache

import (
	"context"
	"errors"
	"time"
)

// TileCache определяет горячий кеш готовых тайлов.
// Двухуровневая архитектура: Hot Cache (память или Redis) + Cold Storage (Badger).
//
// Использование:
//
//	c := NewMemoryCache(10*time.Minute, store)
//	data, err := c.Get(ctx, "tile:topo:0:0")
//	err = c.Set(ctx, "tile:topo:0:0", png, 0)
//	err = c.InvalidatePrefix(ctx, "tile:topo:")
type TileCache interface {
	// Get получает значение по ключу. При промахе читает Cold Storage (Read-Through).
	// Возвращает ErrCacheMiss если ключ не найден нигде.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение с указанным TTL (0 - TTL по умолчанию) и пишет его в Cold Storage.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет ключ из кеша и Cold Storage.
	Delete(ctx context.Context, key string) error

	// InvalidatePrefix удаляет все ключи с префиксом и рассылает уведомление другим узлам.
	InvalidatePrefix(ctx context.Context, prefix string) error

	// GetMetrics возвращает метрики кеша.
	GetMetrics() *CacheMetrics

	// Close останавливает фоновые задачи и закрывает соединения кеша.
	Close() error
}

// ColdStorage определяет интерфейс для постоянного хранения тайлов.
// Используется как fallback когда данные отсутствуют в Hot Cache.
type ColdStorage interface {
	// Load загружает данные. Возвращает ErrCacheMiss если ключа нет.
	Load(ctx context.Context, key string) ([]byte, error)

	// Store сохраняет данные.
	Store(ctx context.Context, key string, value []byte) error

	// BatchLoad загружает несколько записей; отсутствующие ключи пропускаются.
	BatchLoad(ctx context.Context, keys []string) (map[string][]byte, error)

	// BatchStore сохраняет несколько записей.
	BatchStore(ctx context.Context, items map[string][]byte) error

	// Delete удаляет запись; отсутствие ключа не считается ошибкой.
	Delete(ctx context.Context, key string) error

	// DeletePrefix удаляет все записи с префиксом.
	DeletePrefix(ctx context.Context, prefix string) error

	// Close закрывает хранилище.
	Close() error
}

// CacheInvalidator управляет инвалидацией кеша через Pub/Sub.
type CacheInvalidator interface {
	// PublishInvalidation отправляет уведомление об инвалидации префикса.
	PublishInvalidation(ctx context.Context, prefix string) error

	// SubscribeInvalidations подписывается на уведомления других узлов.
	SubscribeInvalidations(ctx context.Context, handler InvalidationHandler) error

	// Close закрывает соединение.
	Close() error
}

// InvalidationHandler обрабатывает уведомления об инвалидации кеша.
type InvalidationHandler func(prefix string) error

// CacheMetrics содержит метрики производительности кеша.
type CacheMetrics struct {
	TotalRequests int64   `json:"total_requests"`
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	ColdHits      int64   `json:"cold_hits"`
	HitRatio      float64 `json:"hit_ratio"`

	AvgLatencyMs float64 `json:"avg_latency_ms"`
	MaxLatencyMs float64 `json:"max_latency_ms"`

	TotalKeys     int64 `json:"total_keys"`
	PendingWrites int64 `json:"pending_writes"`

	LastUpdate time.Time `json:"last_update"`
}

// CacheConfig содержит конфигурацию Redis кеша.
type CacheConfig struct {
	RedisURL      string `yaml:"redis_url"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// TTL настройки
	DefaultTTL time.Duration `yaml:"default_ttl"`
	MaxTTL     time.Duration `yaml:"max_ttl"`

	// Write-Behind конфигурация
	WriteBehindEnabled   bool          `yaml:"write_behind_enabled"`
	WriteBehindInterval  time.Duration `yaml:"write_behind_interval"`
	WriteBehindBatchSize int           `yaml:"write_behind_batch_size"`

	// Производительность
	MaxConnections int           `yaml:"max_connections"`
	PoolTimeout    time.Duration `yaml:"pool_timeout"`
}

// Ошибки кеша
var (
	ErrCacheMiss   = NewCacheError("cache miss")
	ErrInvalidKey  = NewCacheError("invalid key")
	ErrCacheClosed = NewCacheError("cache closed")
)

// CacheError представляет ошибку кеша.
type CacheError struct {
	Message string
}

func (e *CacheError) Error() string {
	return e.Message
}

func NewCacheError(message string) *CacheError {
	return &CacheError{Message: message}
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
