package cache

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryColdStorage - Cold Storage в памяти для тестов
type memoryColdStorage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryColdStorage() *memoryColdStorage {
	return &memoryColdStorage{data: make(map[string][]byte)}
}

func (m *memoryColdStorage) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memoryColdStorage) Store(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryColdStorage) BatchLoad(ctx context.Context, keys []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, k := range keys {
		if v, err := m.Load(ctx, k); err == nil {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memoryColdStorage) BatchStore(ctx context.Context, items map[string][]byte) error {
	for k, v := range items {
		_ = m.Store(ctx, k, v)
	}
	return nil
}

func (m *memoryColdStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryColdStorage) DeletePrefix(ctx context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *memoryColdStorage) Close() error { return nil }

func (m *memoryColdStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

// recordingInvalidator запоминает опубликованные префиксы
type recordingInvalidator struct {
	published []string
	handler   InvalidationHandler
}

func (r *recordingInvalidator) PublishInvalidation(ctx context.Context, prefix string) error {
	r.published = append(r.published, prefix)
	return nil
}

func (r *recordingInvalidator) SubscribeInvalidations(ctx context.Context, h InvalidationHandler) error {
	r.handler = h
	return nil
}

func (r *recordingInvalidator) Close() error { return nil }

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, nil)
	defer c.Close()

	_, err := c.Get(ctx, "tile:topo:0:0")
	assert.True(t, IsCacheMiss(err))

	require.NoError(t, c.Set(ctx, "tile:topo:0:0", []byte("png"), 0))
	v, err := c.Get(ctx, "tile:topo:0:0")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), v)

	assert.ErrorIs(t, c.Set(ctx, "", []byte("x"), 0), ErrInvalidKey)

	m := c.GetMetrics()
	assert.Equal(t, int64(1), m.CacheHits)
	assert.Equal(t, int64(1), m.CacheMisses)
	assert.Equal(t, 0.5, m.HitRatio)
	assert.Equal(t, int64(1), m.TotalKeys)
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0, nil)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 20*time.Millisecond))
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	time.Sleep(40 * time.Millisecond)

	_, err := c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "b")
	assert.NoError(t, err, "без TTL ключ не истекает")
}

func TestMemoryCache_ReadThroughWriteThrough(t *testing.T) {
	ctx := context.Background()
	cold := newMemoryColdStorage()
	cold.data["tile:topo:1:1"] = []byte("cold")

	c := NewMemoryCache(time.Minute, cold)
	defer c.Close()

	v, err := c.Get(ctx, "tile:topo:1:1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cold"), v)
	assert.Equal(t, 1, c.Len(), "значение из Cold Storage попадает в память")
	assert.Equal(t, int64(1), c.GetMetrics().ColdHits)

	require.NoError(t, c.Set(ctx, "tile:topo:2:2", []byte("hot"), 0))
	assert.True(t, cold.has("tile:topo:2:2"))

	require.NoError(t, c.Delete(ctx, "tile:topo:2:2"))
	assert.False(t, cold.has("tile:topo:2:2"))
	_, err = c.Get(ctx, "tile:topo:2:2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryCache_InvalidatePrefix(t *testing.T) {
	ctx := context.Background()
	cold := newMemoryColdStorage()
	inv := &recordingInvalidator{}

	c := NewMemoryCache(time.Minute, cold)
	defer c.Close()
	require.NoError(t, c.UseInvalidator(ctx, inv))

	for _, k := range []string{"tile:topo:0:0", "tile:topo:0:0:day", "tile:shadow:0:0"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	require.NoError(t, c.InvalidatePrefix(ctx, "tile:topo:"))
	assert.Equal(t, []string{"tile:topo:"}, inv.published)
	assert.Equal(t, 1, c.Len())
	assert.False(t, cold.has("tile:topo:0:0:day"))
	assert.True(t, cold.has("tile:shadow:0:0"))

	// Уведомление другого узла чистит локальный кеш без повторной рассылки
	require.NotNil(t, inv.handler)
	require.NoError(t, inv.handler("tile:shadow:"))
	assert.Equal(t, 0, c.Len())
	assert.Len(t, inv.published, 1)
}

func TestNATSInvalidator_HandleIgnoresOwnMessages(t *testing.T) {
	var got []string
	n := &NATSInvalidator{
		nodeID:  "node-a",
		handler: func(prefix string) error { got = append(got, prefix); return nil },
	}

	own, _ := json.Marshal(InvalidationMessage{Prefix: "tile:a:", NodeID: "node-a"})
	other, _ := json.Marshal(InvalidationMessage{Prefix: "tile:b:", NodeID: "node-b"})

	n.handle(own)
	n.handle(other)
	n.handle([]byte("{broken"))

	assert.Equal(t, []string{"tile:b:"}, got)
	assert.Equal(t, int64(3), n.receivedCount)
	assert.Equal(t, int64(1), n.errorsCount)
}

func TestNATSInvalidator_Live(t *testing.T) {
	url := os.Getenv("TOPOMAP_TEST_NATS_URL")
	if url == "" {
		t.Skip("TOPOMAP_TEST_NATS_URL не задан")
	}

	a, err := NewNATSInvalidator(&InvalidatorConfig{NATSURL: url, Subject: "test.invalidation"}, "")
	require.NoError(t, err)
	defer a.Close()
	b, err := NewNATSInvalidator(&InvalidatorConfig{NATSURL: url, Subject: "test.invalidation"}, "")
	require.NoError(t, err)
	defer b.Close()
	assert.NotEqual(t, a.NodeID(), b.NodeID())

	received := make(chan string, 1)
	require.NoError(t, b.SubscribeInvalidations(context.Background(), func(prefix string) error {
		received <- prefix
		return nil
	}))
	require.NoError(t, b.conn.Flush())

	require.NoError(t, a.PublishInvalidation(context.Background(), "tile:topo:"))
	select {
	case p := <-received:
		assert.Equal(t, "tile:topo:", p)
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление не получено")
	}
}

func TestRedisCache_Live(t *testing.T) {
	addr := os.Getenv("TOPOMAP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TOPOMAP_TEST_REDIS_ADDR не задан")
	}

	ctx := context.Background()
	cold := newMemoryColdStorage()
	inv := &recordingInvalidator{}
	c, err := NewRedisCache(&CacheConfig{RedisURL: addr, DefaultTTL: time.Minute}, cold, inv)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "test:tile:x:0:0", []byte("a"), 0))
	require.NoError(t, c.Set(ctx, "test:tile:x:0:1", []byte("b"), 0))
	v, err := c.Get(ctx, "test:tile:x:0:0")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), v)
	assert.True(t, cold.has("test:tile:x:0:1"))

	require.NoError(t, c.InvalidatePrefix(ctx, "test:tile:x:"))
	_, err = c.Get(ctx, "test:tile:x:0:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, []string{"test:tile:x:"}, inv.published)
}
