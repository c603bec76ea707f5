package world

import (
	"math/rand"

	"github.com/annel0/topomap/internal/util"
	"github.com/annel0/topomap/internal/world/block"
)

// Константы генерации ландшафта (доли высоты мира)
const (
	SeaLevelFraction = 0.25 // Уровень моря
	MinTerrainFrac   = 0.12 // Самое глубокое дно
	MaxTerrainFrac   = 0.70 // Самые высокие вершины
	SnowLineFrac     = 0.55 // Выше - снег
)

// Generator генерирует ландшафт мира
type Generator struct {
	Seed          int64   // Сид для генерации шума
	Height        int     // Высота мира
	NoiseScale    float64 // Масштаб основного шума (высота)
	DetailScale   float64 // Масштаб шума мелких неровностей
	ForestDensity float64 // Плотность лесов (от 0 до 1)
	GrassDensity  float64 // Плотность высокой травы

	noise *util.Noise
}

// NewGenerator создаёт новый генератор мира
func NewGenerator(seed int64, height int) *Generator {
	return &Generator{
		Seed:          seed,
		Height:        height,
		NoiseScale:    0.01,
		DetailScale:   0.08,
		ForestDensity: 0.02,
		GrassDensity:  0.10,
		noise:         util.NewNoise(seed),
	}
}

// SeaLevel возвращает уровень моря
func (g *Generator) SeaLevel() int {
	return int(float64(g.Height) * SeaLevelFraction)
}

// TerrainHeight возвращает высоту поверхности в глобальных координатах
func (g *Generator) TerrainHeight(x, z int) int {
	base := g.noise.Noise2D(float64(x)*g.NoiseScale, float64(z)*g.NoiseScale)
	detail := g.noise.Noise2D(float64(x)*g.DetailScale+1000, float64(z)*g.DetailScale+1000)
	v := base*0.85 + detail*0.15

	minH := float64(g.Height) * MinTerrainFrac
	maxH := float64(g.Height) * MaxTerrainFrac
	h := int(minH + v*(maxH-minH))
	if h >= g.Height-8 {
		h = g.Height - 8
	}
	return h
}

// GenerateChunk генерирует чанк по его координатам
func (g *Generator) GenerateChunk(coords ChunkCoord) *Chunk {
	chunk := NewChunk(coords, g.Height)

	// Для каждого чанка создаем уникальный сид на основе глобального сида и координат
	chunkSeed := g.Seed + int64(coords.X)*341873128712 + int64(coords.Z)*132897987541
	rng := rand.New(rand.NewSource(chunkSeed))

	seaLevel := g.SeaLevel()
	snowLine := int(float64(g.Height) * SnowLineFrac)

	globalStartX := coords.X << 4
	globalStartZ := coords.Z << 4

	for z := 0; z < ChunkSize; z++ {
		for x := 0; x < ChunkSize; x++ {
			h := g.TerrainHeight(globalStartX+x, globalStartZ+z)

			for y := 0; y <= h; y++ {
				var id block.BlockID
				switch {
				case y < h-3:
					id = block.StoneBlockID
				case h < seaLevel+2:
					// Дно водоёмов и пляжи
					if h < seaLevel-6 {
						id = block.GravelBlockID
					} else {
						id = block.SandBlockID
					}
				case y < h:
					id = block.DirtBlockID
				case h >= snowLine:
					id = block.SnowBlockID
				default:
					id = block.GrassBlockID
				}
				chunk.SetBlock(x, y, z, id)
			}

			// Заполняем водоёмы до уровня моря
			for y := h + 1; y <= seaLevel; y++ {
				chunk.SetBlock(x, y, z, block.StationaryWaterBlockID)
			}

			if h <= seaLevel || chunk.GetBlock(x, h, z) != block.GrassBlockID {
				continue
			}

			// Деревья не ставим у края чанка, чтобы крона не выходила за его пределы
			inner := x >= 2 && x < ChunkSize-2 && z >= 2 && z < ChunkSize-2
			switch r := rng.Float64(); {
			case inner && r < g.ForestDensity:
				g.placeTree(chunk, x, h+1, z, 4+rng.Intn(2))
			case r < g.ForestDensity+g.GrassDensity:
				chunk.SetBlock(x, h+1, z, block.TallGrassBlockID)
			}
		}
	}

	return chunk
}

// placeTree ставит дерево со стволом высотой trunk
func (g *Generator) placeTree(chunk *Chunk, x, y, z, trunk int) {
	if y+trunk+1 >= g.Height {
		return
	}
	for dy := trunk - 2; dy <= trunk+1; dy++ {
		r := 2
		if dy >= trunk {
			r = 1
		}
		for dz := -r; dz <= r; dz++ {
			for dx := -r; dx <= r; dx++ {
				if chunk.GetBlock(x+dx, y+dy, z+dz) == block.AirBlockID {
					chunk.SetBlock(x+dx, y+dy, z+dz, block.LeavesBlockID)
				}
			}
		}
	}
	for dy := 0; dy < trunk; dy++ {
		chunk.SetBlock(x, y+dy, z, block.LogBlockID)
	}
}
