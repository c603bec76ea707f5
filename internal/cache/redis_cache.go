package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/annel0/topomap/internal/logging"
	"github.com/go-redis/redis/v8"
)

// scanBatch - сколько ключей запрашивать за один SCAN
const scanBatch = 500

// RedisCache реализует TileCache используя Redis как Hot Cache.
// Поддерживает Write-Behind паттерн для асинхронной записи в Cold Storage.
//
// Особенности:
// - Автоматические метрики (hit ratio, latency)
// - Write-Behind с настраиваемым интервалом
// - Инвалидация по префиксу через SCAN MATCH
// - Graceful shutdown
type RedisCache struct {
	client      *redis.Client
	config      *CacheConfig
	coldStorage ColdStorage
	invalidator CacheInvalidator

	// Write-Behind
	writeBehindQueue chan *writeItem
	writeBehindStop  chan struct{}
	writeBehindWg    sync.WaitGroup

	stats
}

// writeItem представляет элемент в очереди Write-Behind.
type writeItem struct {
	Key   string
	Value []byte
}

// NewRedisCache создаёт новый Redis кеш с опциональным Cold Storage.
//
// Параметры:
//
//	config - конфигурация Redis и Write-Behind
//	coldStorage - опциональное постоянное хранилище (может быть nil)
//	invalidator - опциональный invalidator для Pub/Sub (может быть nil)
func NewRedisCache(config *CacheConfig, coldStorage ColdStorage, invalidator CacheInvalidator) (*RedisCache, error) {
	// Настройки по умолчанию
	if config.DefaultTTL == 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.MaxTTL == 0 {
		config.MaxTTL = 24 * time.Hour
	}
	if config.WriteBehindInterval == 0 {
		config.WriteBehindInterval = 5 * time.Second
	}
	if config.WriteBehindBatchSize == 0 {
		config.WriteBehindBatchSize = 100
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = 10
	}
	if config.PoolTimeout == 0 {
		config.PoolTimeout = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         config.RedisURL,
		Password:     config.RedisPassword,
		DB:           config.RedisDB,
		PoolSize:     config.MaxConnections,
		PoolTimeout:  config.PoolTimeout,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	// Проверяем соединение
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisCache{
		client:      rdb,
		config:      config,
		coldStorage: coldStorage,
		invalidator: invalidator,
	}

	if config.WriteBehindEnabled && coldStorage != nil {
		cache.writeBehindQueue = make(chan *writeItem, config.WriteBehindBatchSize*2)
		cache.writeBehindStop = make(chan struct{})
		cache.startWriteBehind()
	}

	logging.Info("Redis cache initialized: %s (Write-Behind: %v)", config.RedisURL, config.WriteBehindEnabled)
	return cache, nil
}

// Get получает тайл из Redis. При промахе пытается загрузить из Cold Storage (Read-Through).
func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	defer r.recordLatency(start)

	val, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		r.hit()
		return val, nil
	}
	r.miss()

	if !errors.Is(err, redis.Nil) {
		logging.Error("Redis Get error for key %s: %v", key, err)
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	if r.coldStorage != nil {
		val, err := r.coldStorage.Load(ctx, key)
		if err == nil {
			r.coldHit()
			// Прогреваем кеш для следующих запросов
			if err := r.client.Set(ctx, key, val, r.config.DefaultTTL).Err(); err != nil {
				logging.Warn("Redis warm-up failed for key %s: %v", key, err)
			}
			return val, nil
		}
		logging.Debug("Cold storage miss for key %s: %v", key, err)
	}

	return nil, ErrCacheMiss
}

// Set сохраняет тайл в Redis и Cold Storage (сразу или через Write-Behind).
func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	defer r.recordLatency(start)

	if key == "" {
		return ErrInvalidKey
	}
	if ttl <= 0 {
		ttl = r.config.DefaultTTL
	}
	if ttl > r.config.MaxTTL {
		ttl = r.config.MaxTTL
	}

	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logging.Error("Redis Set error for key %s: %v", key, err)
		return fmt.Errorf("redis set error: %w", err)
	}

	if r.coldStorage == nil {
		return nil
	}
	if r.writeBehindQueue != nil {
		select {
		case r.writeBehindQueue <- &writeItem{Key: key, Value: value}:
			return nil
		default:
			// Очередь полна, пишем синхронно
			logging.Warn("Write-behind queue full, writing synchronously: %s", key)
		}
	}
	return r.coldStorage.Store(ctx, key, value)
}

// Delete удаляет ключ из Redis и Cold Storage.
func (r *RedisCache) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		logging.Error("Redis Delete error for key %s: %v", key, err)
		return fmt.Errorf("redis delete error: %w", err)
	}
	if r.coldStorage != nil {
		return r.coldStorage.Delete(ctx, key)
	}
	return nil
}

// InvalidatePrefix удаляет ключи с префиксом и отправляет уведомление другим узлам.
func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	if err := r.dropPrefix(ctx, prefix); err != nil {
		return err
	}
	if r.invalidator != nil {
		if err := r.invalidator.PublishInvalidation(ctx, prefix); err != nil {
			logging.Error("Failed to publish invalidation for prefix %s: %v", prefix, err)
			return err
		}
	}
	return nil
}

// dropPrefix удаляет ключи через SCAN MATCH без рассылки уведомлений.
func (r *RedisCache) dropPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	deleted := 0
	for {
		keys, next, err := r.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan error: %w", err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis delete error: %w", err)
			}
			deleted += len(keys)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	logging.Debug("Redis cache: dropped %d keys with prefix %s", deleted, prefix)

	if r.coldStorage != nil {
		return r.coldStorage.DeletePrefix(ctx, prefix)
	}
	return nil
}

// SubscribeInvalidations очищает локальное Cold Storage по уведомлениям других узлов.
// Сам Redis общий для всех узлов, поэтому его ключи уже удалены отправителем.
func (r *RedisCache) SubscribeInvalidations(ctx context.Context) error {
	if r.invalidator == nil || r.coldStorage == nil {
		return nil
	}
	return r.invalidator.SubscribeInvalidations(ctx, func(prefix string) error {
		return r.coldStorage.DeletePrefix(context.Background(), prefix)
	})
}

// Close закрывает соединение с Redis и останавливает Write-Behind.
func (r *RedisCache) Close() error {
	if r.writeBehindStop != nil {
		close(r.writeBehindStop)
		r.writeBehindWg.Wait()
	}

	if err := r.client.Close(); err != nil {
		logging.Error("Error closing Redis connection: %v", err)
		return err
	}

	logging.Info("Redis cache closed")
	return nil
}

// GetMetrics возвращает текущие метрики кеша.
func (r *RedisCache) GetMetrics() *CacheMetrics {
	m := r.snapshot()
	if n, err := r.client.DBSize(context.Background()).Result(); err == nil {
		m.TotalKeys = n
	}
	if r.writeBehindQueue != nil {
		m.PendingWrites = int64(len(r.writeBehindQueue))
	}
	return m
}

// startWriteBehind запускает горутину для асинхронной записи в Cold Storage.
func (r *RedisCache) startWriteBehind() {
	r.writeBehindWg.Add(1)
	go func() {
		defer r.writeBehindWg.Done()

		ticker := time.NewTicker(r.config.WriteBehindInterval)
		defer ticker.Stop()

		batch := make(map[string][]byte)

		for {
			select {
			case item := <-r.writeBehindQueue:
				batch[item.Key] = item.Value

				if len(batch) >= r.config.WriteBehindBatchSize {
					r.flushWriteBehindBatch(batch)
					batch = make(map[string][]byte)
				}

			case <-ticker.C:
				if len(batch) > 0 {
					r.flushWriteBehindBatch(batch)
					batch = make(map[string][]byte)
				}

			case <-r.writeBehindStop:
				// Дописываем очередь и накопленный batch перед выходом
				for {
					select {
					case item := <-r.writeBehindQueue:
						batch[item.Key] = item.Value
						continue
					default:
					}
					break
				}
				r.flushWriteBehindBatch(batch)
				return
			}
		}
	}()

	logging.Info("Write-Behind started (interval: %v, batch size: %d)",
		r.config.WriteBehindInterval, r.config.WriteBehindBatchSize)
}

// flushWriteBehindBatch записывает batch в Cold Storage.
func (r *RedisCache) flushWriteBehindBatch(batch map[string][]byte) {
	if len(batch) == 0 {
		return
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.coldStorage.BatchStore(ctx, batch); err != nil {
		logging.Error("Write-Behind batch store failed (%d items): %v", len(batch), err)
	} else {
		logging.Debug("Write-Behind batch stored: %d items in %v", len(batch), time.Since(start))
	}
}
