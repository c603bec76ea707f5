package world

import (
	"testing"

	"github.com/annel0/topomap/internal/world/block"
)

func TestGeneratorDeterministic(t *testing.T) {
	g1 := NewGenerator(12345, 128)
	g2 := NewGenerator(12345, 128)

	a := g1.GenerateChunk(ChunkCoord{X: 3, Z: -2})
	b := g2.GenerateChunk(ChunkCoord{X: 3, Z: -2})

	for i := range a.Blocks {
		if a.Blocks[i] != b.Blocks[i] {
			t.Fatalf("Генерация с одинаковым сидом должна совпадать (индекс %d)", i)
		}
	}
}

func TestGeneratorColumns(t *testing.T) {
	g := NewGenerator(99, 128)
	sea := g.SeaLevel()

	for cx := -2; cx <= 2; cx++ {
		chunk := g.GenerateChunk(ChunkCoord{X: cx, Z: 0})
		for z := 0; z < ChunkSize; z++ {
			for x := 0; x < ChunkSize; x++ {
				top := chunk.TopY(x, z)
				if top < sea {
					t.Errorf("Поверхность (%d,%d) ниже уровня моря %d: %d", x, z, sea, top)
				}
				if top >= chunk.Height {
					t.Errorf("Поверхность вне мира: %d", top)
				}
				if chunk.GetBlock(x, 0, z) == block.AirBlockID {
					t.Errorf("Нижний блок столба (%d,%d) не должен быть воздухом", x, z)
				}
			}
		}
	}
}

func TestGeneratorTerrainHeightRange(t *testing.T) {
	g := NewGenerator(1, 256)
	minFrac := MinTerrainFrac
	for x := -50; x < 50; x += 7 {
		for z := -50; z < 50; z += 7 {
			h := g.TerrainHeight(x, z)
			if h < int(256*minFrac) || h > 256-8 {
				t.Errorf("Высота (%d,%d)=%d вне допустимого диапазона", x, z, h)
			}
		}
	}
}
