package app

import (
	"bytes"
	"context"
	"testing"

	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/render"
	"github.com/annel0/topomap/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.World.Height = 64
	cfg.Render.TileSize = 8
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(), Options{WithCache: true, InMemory: true, Registry: prometheus.NewRegistry()})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.Store)
	require.NotNil(t, a.Cache)
	assert.Len(t, a.Maps, 2)

	data, err := a.Tiles.GetTile(ctx, "topo", 0, 0, false)
	require.NoError(t, err)

	// Тайл сохранён в хранилище через кеш, чанки - через мир
	n, err := a.Store.CountTiles(render.MapPrefix("topo"))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	stored, err := a.Store.Load(ctx, render.TileKey("topo", 0, 0, false))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, stored))

	chunk, err := a.Store.LoadChunk(world.ChunkCoord{}, 64)
	require.NoError(t, err)
	assert.NotNil(t, chunk)
}

func TestNew_WithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Path = ""
	a, err := New(context.Background(), cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Store)
	assert.Nil(t, a.Cache)
	m, err := a.Map("topo-shadow")
	require.NoError(t, err)
	assert.Equal(t, 60.0, m.Inclination)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Maps[0].Lighting = "missing"
	_, err := New(context.Background(), cfg, Options{InMemory: true})
	assert.ErrorContains(t, err, "неизвестное освещение")

	cfg = testConfig()
	cfg.Cache.Backend = "memcached"
	_, err = New(context.Background(), cfg, Options{InMemory: true, WithCache: true})
	assert.ErrorContains(t, err, "memcached")

	cfg = testConfig()
	cfg.World.Height = 100
	_, err = New(context.Background(), cfg, Options{InMemory: true})
	assert.Error(t, err)
}
