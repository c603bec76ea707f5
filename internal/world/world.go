package world

import (
	"fmt"
	"math"
	"sync"

	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/world/block"
)

// DefaultHeight - высота мира по умолчанию
const DefaultHeight = 256

// ChunkStore - постоянное хранилище чанков
type ChunkStore interface {
	// LoadChunk возвращает сохранённый чанк или nil, nil если его нет
	LoadChunk(coords ChunkCoord, height int) (*Chunk, error)
	// SaveChunk сохраняет чанк
	SaveChunk(chunk *Chunk) error
}

// World - воксельный мир, собранный из чанков.
// Чанки генерируются по запросу и кешируются в памяти.
type World struct {
	Name      string
	height    int
	seed      int64
	generator *Generator
	store     ChunkStore
	log       *logging.Logger

	mu     sync.RWMutex
	chunks map[ChunkCoord]*Chunk

	brightness []int
}

// NewWorld создаёт мир. store может быть nil - тогда чанки живут только в памяти.
func NewWorld(name string, seed int64, height int, store ChunkStore) (*World, error) {
	if height <= 0 || height%ChunkSize != 0 {
		return nil, fmt.Errorf("недопустимая высота мира %d: нужно положительное кратное %d", height, ChunkSize)
	}
	return &World{
		Name:       name,
		height:     height,
		seed:       seed,
		generator:  NewGenerator(seed, height),
		store:      store,
		log:        logging.GetComponentLogger("world"),
		chunks:     make(map[ChunkCoord]*Chunk),
		brightness: buildBrightnessTable(),
	}, nil
}

// Height возвращает высоту мира
func (w *World) Height() int {
	return w.height
}

// Seed возвращает сид мира
func (w *World) Seed() int64 {
	return w.seed
}

// Generator возвращает генератор ландшафта
func (w *World) Generator() *Generator {
	return w.generator
}

// BrightnessTable возвращает таблицу яркости: уровень света 0..15 -> эффективный уровень 0..15
func (w *World) BrightnessTable() []int {
	return w.brightness
}

// buildBrightnessTable строит нелинейную кривую яркости
func buildBrightnessTable() []int {
	table := make([]int, MaxLightLevel+1)
	for i := range table {
		f := 1.0 - float64(i)/MaxLightLevel
		v := (1.0 - f) / (f*3.0 + 1.0)
		table[i] = int(math.Round(v * MaxLightLevel))
	}
	return table
}

// Chunk возвращает чанк: из памяти, из хранилища или свежесгенерированный
func (w *World) Chunk(coords ChunkCoord) (*Chunk, error) {
	w.mu.RLock()
	chunk, ok := w.chunks[coords]
	w.mu.RUnlock()
	if ok {
		return chunk, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	// Проверяем еще раз на случай race condition
	if chunk, ok := w.chunks[coords]; ok {
		return chunk, nil
	}

	if w.store != nil {
		loaded, err := w.store.LoadChunk(coords, w.height)
		if err != nil {
			return nil, fmt.Errorf("загрузка чанка (%d,%d): %w", coords.X, coords.Z, err)
		}
		if loaded != nil {
			w.chunks[coords] = loaded
			return loaded, nil
		}
	}

	chunk = w.generator.GenerateChunk(coords)
	w.log.Debug("Сгенерирован чанк (%d,%d): %d блоков", coords.X, coords.Z, chunk.CountNonAir())

	if w.store != nil {
		if err := w.store.SaveChunk(chunk); err != nil {
			w.log.Warn("Не удалось сохранить чанк (%d,%d): %v", coords.X, coords.Z, err)
		}
	}

	w.chunks[coords] = chunk
	return chunk, nil
}

// GetBlock возвращает ID блока по глобальным координатам
func (w *World) GetBlock(x, y, z int) (block.BlockID, error) {
	chunk, err := w.Chunk(ChunkCoordOf(x, z))
	if err != nil {
		return block.AirBlockID, err
	}
	return chunk.GetBlock(x&15, y, z&15), nil
}

// SetBlock устанавливает блок по глобальным координатам.
// Чанк копируется, поэтому ранее выданные снимки (ChunkCache) не меняются.
func (w *World) SetBlock(x, y, z int, id block.BlockID) error {
	if y < 0 || y >= w.height {
		return fmt.Errorf("высота %d вне мира [0,%d)", y, w.height)
	}
	coords := ChunkCoordOf(x, z)
	chunk, err := w.Chunk(coords)
	if err != nil {
		return err
	}

	cp := chunk.Clone()
	cp.SetBlock(x&15, y, z&15, id)

	w.mu.Lock()
	w.chunks[coords] = cp
	w.mu.Unlock()

	if w.store != nil {
		if err := w.store.SaveChunk(cp); err != nil {
			return fmt.Errorf("сохранение чанка (%d,%d): %w", coords.X, coords.Z, err)
		}
	}
	return nil
}

// ChunkCache собирает снимок чанков, покрывающих блоки [minX,maxX]x[minZ,maxZ]
func (w *World) ChunkCache(minX, minZ, maxX, maxZ int) (*ChunkCache, error) {
	lo := ChunkCoordOf(minX, minZ)
	hi := ChunkCoordOf(maxX, maxZ)
	cache := newChunkCache(w.height, lo, hi)

	for cz := lo.Z; cz <= hi.Z; cz++ {
		for cx := lo.X; cx <= hi.X; cx++ {
			chunk, err := w.Chunk(ChunkCoord{X: cx, Z: cz})
			if err != nil {
				return nil, err
			}
			cache.put(chunk)
		}
	}
	return cache, nil
}

// LoadedChunks возвращает число чанков в памяти
func (w *World) LoadedChunks() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.chunks)
}
