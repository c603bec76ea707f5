package world

import (
	"sync"
	"testing"

	"github.com/annel0/topomap/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryChunkStore - хранилище чанков в памяти для тестов
type memoryChunkStore struct {
	mu     sync.Mutex
	chunks map[ChunkCoord]*Chunk
	saves  int
}

func newMemoryChunkStore() *memoryChunkStore {
	return &memoryChunkStore{chunks: make(map[ChunkCoord]*Chunk)}
}

func (m *memoryChunkStore) LoadChunk(coords ChunkCoord, height int) (*Chunk, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chunks[coords], nil
}

func (m *memoryChunkStore) SaveChunk(c *Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks[c.Coords] = c.Clone()
	m.saves++
	return nil
}

func TestNewWorld_InvalidHeight(t *testing.T) {
	_, err := NewWorld("w", 1, 100, nil)
	assert.Error(t, err, "Высота не кратная 16 должна отклоняться")

	_, err = NewWorld("w", 1, 0, nil)
	assert.Error(t, err)
}

func TestWorld_ChunkGeneratedOnce(t *testing.T) {
	store := newMemoryChunkStore()
	w, err := NewWorld("w", 42, 128, store)
	require.NoError(t, err)

	a, err := w.Chunk(ChunkCoord{X: 1, Z: -1})
	require.NoError(t, err)
	b, err := w.Chunk(ChunkCoord{X: 1, Z: -1})
	require.NoError(t, err)

	assert.Same(t, a, b, "Повторный запрос должен вернуть тот же чанк")
	assert.Equal(t, 1, store.saves, "Сгенерированный чанк сохраняется один раз")
	assert.Equal(t, 1, w.LoadedChunks())
}

func TestWorld_LoadsFromStore(t *testing.T) {
	store := newMemoryChunkStore()
	saved := NewChunk(ChunkCoord{X: 0, Z: 0}, 64)
	saved.SetBlock(0, 5, 0, block.LavaBlockID)
	store.chunks[saved.Coords] = saved

	w, err := NewWorld("w", 1, 64, store)
	require.NoError(t, err)

	id, err := w.GetBlock(0, 5, 0)
	require.NoError(t, err)
	assert.Equal(t, block.LavaBlockID, id)
	assert.Equal(t, 0, store.saves, "Загруженный чанк не пересохраняется")
}

func TestWorld_SetBlockKeepsSnapshots(t *testing.T) {
	w, err := NewWorld("w", 7, 64, nil)
	require.NoError(t, err)

	snapshot, err := w.ChunkCache(0, 0, 15, 15)
	require.NoError(t, err)
	before := snapshot.BlockID(3, 63, 3)

	require.NoError(t, w.SetBlock(3, 63, 3, block.SnowBlockID))

	id, err := w.GetBlock(3, 63, 3)
	require.NoError(t, err)
	assert.Equal(t, block.SnowBlockID, id)
	assert.Equal(t, before, snapshot.BlockID(3, 63, 3), "Снимок не должен видеть изменений")

	assert.Error(t, w.SetBlock(0, 64, 0, block.StoneBlockID))
}

func TestWorld_NegativeCoordinates(t *testing.T) {
	w, err := NewWorld("w", 3, 64, nil)
	require.NoError(t, err)

	require.NoError(t, w.SetBlock(-1, 60, -17, block.IceBlockID))
	id, err := w.GetBlock(-1, 60, -17)
	require.NoError(t, err)
	assert.Equal(t, block.IceBlockID, id)
	assert.Equal(t, ChunkCoord{X: -1, Z: -2}, ChunkCoordOf(-1, -17))
}

func TestBrightnessTable(t *testing.T) {
	w, err := NewWorld("w", 3, 64, nil)
	require.NoError(t, err)

	table := w.BrightnessTable()
	require.Len(t, table, MaxLightLevel+1)
	assert.Equal(t, 0, table[0])
	assert.Equal(t, MaxLightLevel, table[MaxLightLevel])
	for i := 1; i < len(table); i++ {
		assert.GreaterOrEqual(t, table[i], table[i-1], "Таблица яркости должна быть неубывающей")
	}
}
