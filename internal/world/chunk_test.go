package world

import (
	"testing"

	"github.com/annel0/topomap/internal/world/block"
)

func TestChunkCreateAndGetBlock(t *testing.T) {
	chunk := NewChunk(ChunkCoord{X: 5, Z: 10}, 64)

	if chunk.Coords.X != 5 || chunk.Coords.Z != 10 {
		t.Errorf("Ожидались координаты {5,10}, получено {%d,%d}", chunk.Coords.X, chunk.Coords.Z)
	}

	// Проверяем, что блоки инициализированы как пустые
	if id := chunk.GetBlock(3, 20, 4); id != block.AirBlockID {
		t.Errorf("Ожидался пустой блок (AirBlockID), получен %d", id)
	}

	chunk.SetBlock(3, 20, 4, block.StoneBlockID)
	if id := chunk.GetBlock(3, 20, 4); id != block.StoneBlockID {
		t.Errorf("Ожидался StoneBlockID, получен %d", id)
	}

	// Вне высоты мира всегда воздух
	if id := chunk.GetBlock(3, 64, 4); id != block.AirBlockID {
		t.Errorf("Над миром ожидался воздух, получен %d", id)
	}
	if id := chunk.GetBlock(3, -1, 4); id != block.AirBlockID {
		t.Errorf("Под миром ожидался воздух, получен %d", id)
	}
}

func TestChunkHeightMap(t *testing.T) {
	chunk := NewChunk(ChunkCoord{}, 64)

	if top := chunk.TopY(1, 1); top != -1 {
		t.Errorf("Пустой столб должен иметь высоту -1, получено %d", top)
	}

	chunk.SetBlock(1, 10, 1, block.StoneBlockID)
	chunk.SetBlock(1, 30, 1, block.LeavesBlockID)
	if top := chunk.TopY(1, 1); top != 30 {
		t.Errorf("Ожидалась высота 30, получено %d", top)
	}

	// Удаление верхнего блока опускает карту высот
	chunk.SetBlock(1, 30, 1, block.AirBlockID)
	if top := chunk.TopY(1, 1); top != 10 {
		t.Errorf("Ожидалась высота 10, получено %d", top)
	}

	chunk.Blocks[chunk.index(1, 40, 1)] = block.DirtBlockID
	chunk.RecalculateHeightMap()
	if top := chunk.TopY(1, 1); top != 40 {
		t.Errorf("После пересчёта ожидалась высота 40, получено %d", top)
	}
}

func TestChunkSkyLight(t *testing.T) {
	chunk := NewChunk(ChunkCoord{}, 64)
	chunk.SetBlock(0, 10, 0, block.SandBlockID)
	chunk.SetBlock(0, 11, 0, block.StationaryWaterBlockID)
	chunk.SetBlock(0, 12, 0, block.StationaryWaterBlockID)

	if l := chunk.SkyLight(0, 13, 0); l != MaxLightLevel {
		t.Errorf("Над водой ожидался свет 15, получено %d", l)
	}
	if l := chunk.SkyLight(0, 12, 0); l != 13 {
		t.Errorf("В верхнем слое воды ожидался свет 13, получено %d", l)
	}
	if l := chunk.SkyLight(0, 11, 0); l != 11 {
		t.Errorf("Во втором слое воды ожидался свет 11, получено %d", l)
	}
	if l := chunk.SkyLight(0, 10, 0); l != 0 {
		t.Errorf("Под дном ожидалась темнота, получено %d", l)
	}
}

func TestChunkClone(t *testing.T) {
	chunk := NewChunk(ChunkCoord{X: 1, Z: 2}, 32)
	chunk.SetBlock(2, 2, 2, block.StoneBlockID)

	cp := chunk.Clone()
	cp.SetBlock(2, 2, 2, block.DirtBlockID)

	if chunk.GetBlock(2, 2, 2) != block.StoneBlockID {
		t.Error("Изменение копии не должно затрагивать оригинал")
	}
	if cp.CountNonAir() != 1 {
		t.Errorf("Ожидался 1 непустой блок, получено %d", cp.CountNonAir())
	}
}
