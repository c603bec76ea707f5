package shader

import (
	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
)

// mockIterator - драйвер обхода для тестов: текущая высота и соседи задаются вручную
type mockIterator struct {
	y         int
	height    int
	neighbors map[world.BlockStep]block.BlockID
	queries   int
}

func newMockIterator(height int) *mockIterator {
	return &mockIterator{height: height, neighbors: make(map[world.BlockStep]block.BlockID)}
}

func (m *mockIterator) Y() int           { return m.y }
func (m *mockIterator) WorldHeight() int { return m.height }

func (m *mockIterator) BlockTypeIDAt(step world.BlockStep) block.BlockID {
	m.queries++
	if id, ok := m.neighbors[step]; ok {
		return id
	}
	// По умолчанию соседи - камень
	return block.StoneBlockID
}

// mockPerspective - состояние луча на шаге
type mockPerspective struct {
	id   block.BlockID
	sub  [3]int
	step world.BlockStep
	sky  int
}

func (p *mockPerspective) BlockTypeID() block.BlockID      { return p.id }
func (p *mockPerspective) SubblockCoord() [3]int           { return p.sub }
func (p *mockPerspective) LastBlockStep() world.BlockStep  { return p.step }
func (p *mockPerspective) LightLevels() (sky, emitted int) { return p.sky, 0 }

// topDown - вход сверху в точку (1,scale-1,1), не касающуюся краёв при scale >= 3
func topDown(id block.BlockID) *mockPerspective {
	return &mockPerspective{id: id, sub: [3]int{1, 3, 1}, step: world.StepYMinus, sky: 15}
}

// passLighting - освещение без изменений цвета
type passLighting struct {
	dual bool
}

func (l *passLighting) Name() string               { return "pass" }
func (l *passLighting) IsNightAndDayEnabled() bool { return l.dual }
func (l *passLighting) ApplyLighting(ps PerspectiveState, ss State, in color.Color, out []color.Color) {
	for i := range out {
		out[i] = in
	}
	if l.dual {
		// Ночной вариант темнее вдвое
		out[0].SetRGBA(int(in.R)/2, int(in.G)/2, int(in.B)/2, int(in.A))
	}
}

// scriptLighting подменяет вклад заранее заданными цветами по очереди
type scriptLighting struct {
	colors []color.Color
	calls  int
}

func (l *scriptLighting) Name() string               { return "script" }
func (l *scriptLighting) IsNightAndDayEnabled() bool { return false }
func (l *scriptLighting) ApplyLighting(ps PerspectiveState, ss State, in color.Color, out []color.Color) {
	out[0] = l.colors[l.calls]
	l.calls++
}
