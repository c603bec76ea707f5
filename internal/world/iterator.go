package world

import (
	"github.com/annel0/topomap/internal/world/block"
)

// MapIterator - курсор по снимку чанков, которым драйвер обхода двигает луч
type MapIterator struct {
	cache   *ChunkCache
	x, y, z int
	chunk   *Chunk
}

// InitFromPosition переставляет курсор в глобальные координаты
func (it *MapIterator) InitFromPosition(x, y, z int) {
	it.x, it.y, it.z = x, y, z
	it.chunk = it.cache.Chunk(ChunkCoordOf(x, z))
}

// StepPosition сдвигает курсор на один блок в направлении step
func (it *MapIterator) StepPosition(step BlockStep) {
	dx, dy, dz := step.Delta()
	it.y += dy
	if dx == 0 && dz == 0 {
		return
	}
	oldCX, oldCZ := it.x>>4, it.z>>4
	it.x += dx
	it.z += dz
	if it.x>>4 != oldCX || it.z>>4 != oldCZ {
		it.chunk = it.cache.Chunk(ChunkCoordOf(it.x, it.z))
	}
}

// X возвращает текущую координату X
func (it *MapIterator) X() int { return it.x }

// Y возвращает текущую высоту
func (it *MapIterator) Y() int { return it.y }

// Z возвращает текущую координату Z
func (it *MapIterator) Z() int { return it.z }

// WorldHeight возвращает высоту мира
func (it *MapIterator) WorldHeight() int {
	return it.cache.height
}

// BlockTypeID возвращает тип текущего блока
func (it *MapIterator) BlockTypeID() block.BlockID {
	if it.chunk == nil {
		return block.AirBlockID
	}
	return it.chunk.GetBlock(it.x&15, it.y, it.z&15)
}

// BlockTypeIDAt возвращает тип соседнего блока в направлении step
func (it *MapIterator) BlockTypeIDAt(step BlockStep) block.BlockID {
	dx, dy, dz := step.Delta()
	x, y, z := it.x+dx, it.y+dy, it.z+dz
	if x>>4 == it.x>>4 && z>>4 == it.z>>4 {
		if it.chunk == nil {
			return block.AirBlockID
		}
		return it.chunk.GetBlock(x&15, y, z&15)
	}
	return it.cache.BlockID(x, y, z)
}

// SkyLight возвращает небесный свет в текущей ячейке
func (it *MapIterator) SkyLight() int {
	if it.y >= it.cache.height || it.chunk == nil {
		return MaxLightLevel
	}
	if it.y < 0 {
		return 0
	}
	return it.chunk.SkyLight(it.x&15, it.y, it.z&15)
}

// EmittedLight возвращает излучение блока в текущей ячейке
func (it *MapIterator) EmittedLight() int {
	if it.chunk == nil {
		return 0
	}
	return it.chunk.EmittedLight(it.x&15, it.y, it.z&15)
}

// LightAt возвращает уровни света соседней ячейки в направлении step
func (it *MapIterator) LightAt(step BlockStep) (sky, emitted int) {
	nb := MapIterator{cache: it.cache}
	dx, dy, dz := step.Delta()
	nb.InitFromPosition(it.x+dx, it.y+dy, it.z+dz)
	return nb.SkyLight(), nb.EmittedLight()
}
