package world

import (
	"github.com/annel0/topomap/internal/world/block"
)

// ChunkSize - размер чанка по X и Z
const ChunkSize = 16

// MaxLightLevel - максимальный уровень освещения
const MaxLightLevel = 15

// ChunkCoord - координаты чанка в сетке чанков
type ChunkCoord struct {
	X int
	Z int
}

// ChunkCoordOf возвращает координаты чанка, содержащего блок (x, z)
func ChunkCoordOf(x, z int) ChunkCoord {
	return ChunkCoord{X: x >> 4, Z: z >> 4}
}

// Chunk представляет столб мира 16x16 блоков на всю высоту мира.
// Чанк неизменяем после публикации в World: изменения идут через копию (см. World.SetBlock).
type Chunk struct {
	Coords    ChunkCoord
	Height    int
	Blocks    []block.BlockID              // Индекс (y*16+z)*16+x
	HeightMap [ChunkSize * ChunkSize]int16 // Верхний непустой блок столбца, -1 если столб пуст
}

// NewChunk создаёт пустой (заполненный воздухом) чанк
func NewChunk(coords ChunkCoord, height int) *Chunk {
	c := &Chunk{
		Coords: coords,
		Height: height,
		Blocks: make([]block.BlockID, ChunkSize*ChunkSize*height),
	}
	for i := range c.HeightMap {
		c.HeightMap[i] = -1
	}
	return c
}

func (c *Chunk) index(x, y, z int) int {
	return (y*ChunkSize+z)*ChunkSize + x
}

// GetBlock возвращает ID блока по локальным координатам; вне высоты мира - воздух
func (c *Chunk) GetBlock(x, y, z int) block.BlockID {
	if y < 0 || y >= c.Height {
		return block.AirBlockID
	}
	return c.Blocks[c.index(x, y, z)]
}

// SetBlock устанавливает блок по локальным координатам и обновляет карту высот
func (c *Chunk) SetBlock(x, y, z int, id block.BlockID) {
	if y < 0 || y >= c.Height {
		return
	}
	c.Blocks[c.index(x, y, z)] = id

	col := z*ChunkSize + x
	top := int(c.HeightMap[col])
	if id != block.AirBlockID {
		if y > top {
			c.HeightMap[col] = int16(y)
		}
		return
	}
	if y == top {
		c.HeightMap[col] = int16(c.scanTop(x, z, y-1))
	}
}

// scanTop ищет верхний непустой блок столбца, начиная с from и ниже
func (c *Chunk) scanTop(x, z, from int) int {
	for y := from; y >= 0; y-- {
		if c.Blocks[c.index(x, y, z)] != block.AirBlockID {
			return y
		}
	}
	return -1
}

// RecalculateHeightMap пересчитывает карту высот целиком
func (c *Chunk) RecalculateHeightMap() {
	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			c.HeightMap[z*ChunkSize+x] = int16(c.scanTop(x, z, c.Height-1))
		}
	}
}

// TopY возвращает высоту верхнего непустого блока столбца
func (c *Chunk) TopY(x, z int) int {
	return int(c.HeightMap[z*ChunkSize+x])
}

// SkyLight возвращает уровень небесного света в ячейке.
// Над поверхностью - максимум; в толще воды свет гаснет на 2 за блок; под твёрдыми блоками - темнота.
func (c *Chunk) SkyLight(x, y, z int) int {
	top := c.TopY(x, z)
	if y > top {
		return MaxLightLevel
	}
	for yy := top; yy >= y; yy-- {
		if !block.IsWater(c.GetBlock(x, yy, z)) {
			return 0
		}
	}
	level := MaxLightLevel - 2*(top-y+1)
	if level < 0 {
		level = 0
	}
	return level
}

// EmittedLight возвращает собственное излучение блока
func (c *Chunk) EmittedLight(x, y, z int) int {
	return block.Emission(c.GetBlock(x, y, z))
}

// Clone создаёт глубокую копию чанка
func (c *Chunk) Clone() *Chunk {
	cp := &Chunk{
		Coords:    c.Coords,
		Height:    c.Height,
		Blocks:    make([]block.BlockID, len(c.Blocks)),
		HeightMap: c.HeightMap,
	}
	copy(cp.Blocks, c.Blocks)
	return cp
}

// CountNonAir возвращает количество непустых блоков (используется в логах и тестах)
func (c *Chunk) CountNonAir() int {
	n := 0
	for _, id := range c.Blocks {
		if id != block.AirBlockID {
			n++
		}
	}
	return n
}
