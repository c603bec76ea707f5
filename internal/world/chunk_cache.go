package world

import (
	"github.com/annel0/topomap/internal/world/block"
)

// ChunkCache - неизменяемый снимок прямоугольной области чанков для отрисовки одного тайла.
// Чтение безопасно из любого числа горутин.
type ChunkCache struct {
	height int
	lo     ChunkCoord
	hi     ChunkCoord
	width  int
	chunks []*Chunk
}

func newChunkCache(height int, lo, hi ChunkCoord) *ChunkCache {
	width := hi.X - lo.X + 1
	depth := hi.Z - lo.Z + 1
	return &ChunkCache{
		height: height,
		lo:     lo,
		hi:     hi,
		width:  width,
		chunks: make([]*Chunk, width*depth),
	}
}

// NewChunkCache собирает снимок из готовых чанков (используется генераторами тестовых сцен)
func NewChunkCache(height int, chunks ...*Chunk) *ChunkCache {
	if len(chunks) == 0 {
		return newChunkCache(height, ChunkCoord{}, ChunkCoord{})
	}
	lo, hi := chunks[0].Coords, chunks[0].Coords
	for _, c := range chunks[1:] {
		lo.X = min(lo.X, c.Coords.X)
		lo.Z = min(lo.Z, c.Coords.Z)
		hi.X = max(hi.X, c.Coords.X)
		hi.Z = max(hi.Z, c.Coords.Z)
	}
	cache := newChunkCache(height, lo, hi)
	for _, c := range chunks {
		cache.put(c)
	}
	return cache
}

func (cc *ChunkCache) put(c *Chunk) {
	cc.chunks[(c.Coords.Z-cc.lo.Z)*cc.width+(c.Coords.X-cc.lo.X)] = c
}

// Height возвращает высоту мира
func (cc *ChunkCache) Height() int {
	return cc.height
}

// Chunk возвращает чанк или nil, если он не попал в снимок
func (cc *ChunkCache) Chunk(coords ChunkCoord) *Chunk {
	if coords.X < cc.lo.X || coords.X > cc.hi.X || coords.Z < cc.lo.Z || coords.Z > cc.hi.Z {
		return nil
	}
	return cc.chunks[(coords.Z-cc.lo.Z)*cc.width+(coords.X-cc.lo.X)]
}

// BlockID возвращает блок по глобальным координатам; вне снимка - воздух
func (cc *ChunkCache) BlockID(x, y, z int) block.BlockID {
	c := cc.Chunk(ChunkCoordOf(x, z))
	if c == nil {
		return block.AirBlockID
	}
	return c.GetBlock(x&15, y, z&15)
}

// Iterator создаёт курсор, установленный в (x, y, z)
func (cc *ChunkCache) Iterator(x, y, z int) *MapIterator {
	it := &MapIterator{cache: cc}
	it.InitFromPosition(x, y, z)
	return it
}
