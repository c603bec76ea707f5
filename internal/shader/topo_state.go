package shader

import (
	"fmt"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
)

// maxSlots - максимум накопителей цвета (ночь и день)
const maxSlots = 2

// TopoState - состояние топографического шейдера для одного тайла.
// Принадлежит задаче отрисовки тайла и не разделяется между горутинами.
type TopoState struct {
	shader   *TopoShader
	lighting Lighting
	iter     MapIterator

	color    [maxSlots]color.Color // Накопленный цвет луча
	tmpColor [maxSlots]color.Color // Освещённый вклад текущего блока
	slots    int
	c        color.Color // Сырой вклад текущего блока

	scale       int
	heightShift int // Сдвиг высоты, чтобы уложить мир в 256 корзин шкалы
	inWater     bool
	brightness  []int
}

func newTopoState(s *TopoShader, lighting Lighting, iter MapIterator, scale int, brightness []int) *TopoState {
	st := &TopoState{
		shader:     s,
		lighting:   lighting,
		iter:       iter,
		slots:      1,
		scale:      scale,
		brightness: brightness,
	}
	if lighting.IsNightAndDayEnabled() {
		st.slots = 2
	}

	wh := iter.WorldHeight()
	for wh > RampSize {
		st.heightShift++
		wh >>= 1
	}
	return st
}

// Shader возвращает шейдер, создавший состояние
func (st *TopoState) Shader() Shader {
	return st.shader
}

// Lighting возвращает модель освещения
func (st *TopoState) Lighting() Lighting {
	return st.lighting
}

// Slots возвращает число накопителей (1 или 2)
func (st *TopoState) Slots() int {
	return st.slots
}

// HeightShift возвращает сдвиг высоты
func (st *TopoState) HeightShift() int {
	return st.heightShift
}

// LightingTable возвращает таблицу яркости мира или nil
func (st *TopoState) LightingTable() []int {
	return st.brightness
}

// Reset сбрасывает состояние для нового луча
func (st *TopoState) Reset(ps PerspectiveState) {
	for i := 0; i < st.slots; i++ {
		st.color[i].SetTransparent()
	}
	st.inWater = false
}

// ProcessBlock обрабатывает очередной блок на пути луча.
// Возвращает true, если луч завершён, false - если нужно продолжать.
func (st *TopoState) ProcessBlock(ps PerspectiveState) bool {
	blockType := ps.BlockTypeID()
	hidden := st.shader.hidden

	if hidden.Contains(blockType) {
		return false
	}

	xyz := ps.SubblockCoord()
	last := st.scale - 1

	// Контуры рисуем у края столба, за которым скрытый сосед (вход сверху/снизу),
	// или на верхнем слое блока (вход сбоку)
	var onLine bool
	if st.shader.lineColor != nil {
		if ps.LastBlockStep().IsVertical() {
			onLine = (xyz[0] == 0 && hidden.Contains(st.iter.BlockTypeIDAt(world.StepXMinus))) ||
				(xyz[0] == last && hidden.Contains(st.iter.BlockTypeIDAt(world.StepXPlus))) ||
				(xyz[2] == 0 && hidden.Contains(st.iter.BlockTypeIDAt(world.StepZMinus))) ||
				(xyz[2] == last && hidden.Contains(st.iter.BlockTypeIDAt(world.StepZPlus)))
		} else {
			onLine = xyz[1] == last
		}
	}

	switch {
	case onLine:
		st.c.SetColor(*st.shader.lineColor)
		st.inWater = false
	case st.shader.waterColor != nil && block.IsWater(blockType):
		if st.inWater {
			// Рисуем только верхний слой воды
			return false
		}
		st.c.SetColor(*st.shader.waterColor)
		st.inWater = true
	default:
		idx := st.iter.Y() >> st.heightShift
		if idx < 0 || idx >= RampSize {
			panic(fmt.Sprintf("topo shader %s: индекс высоты %d вне шкалы (y=%d, shift=%d)",
				st.shader.name, idx, st.iter.Y(), st.heightShift))
		}
		st.c.SetColor(st.shader.fillColor[idx])
		st.inWater = false
	}

	st.lighting.ApplyLighting(ps, st, st.c, st.tmpColor[:st.slots])

	return st.composite()
}

// composite накладывает вклад блока под накопленный цвет (front-to-back)
func (st *TopoState) composite() bool {
	// Если вклада ещё не было, берём новый цвет как есть
	if st.color[0].IsTransparent() {
		for i := 0; i < st.slots; i++ {
			st.color[i].SetColor(st.tmpColor[i])
		}
		return st.color[0].A == 255
	}

	alpha := int(st.color[0].A)
	alpha2 := int(st.tmpColor[0].A) * (255 - alpha) / 255
	talpha := alpha + alpha2
	if talpha > 0 {
		for i := 0; i < st.slots; i++ {
			nc, oc := st.tmpColor[i], st.color[i]
			st.color[i].SetRGBA(
				(int(nc.R)*alpha2+int(oc.R)*alpha)/talpha,
				(int(nc.G)*alpha2+int(oc.G)*alpha)/talpha,
				(int(nc.B)*alpha2+int(oc.B)*alpha)/talpha,
				talpha)
		}
	} else {
		for i := 0; i < st.slots; i++ {
			st.color[i].SetTransparent()
		}
	}

	// Недостающая единица альфы уже ничего не изменит
	return talpha >= 254
}

// RayFinished - луч вышел из мира; накопленный цвет остаётся результатом
func (st *TopoState) RayFinished(ps PerspectiveState) {
}

// RayColor копирует результат луча
func (st *TopoState) RayColor(c *color.Color, index int) {
	c.SetColor(st.color[index])
}

// Cleanup вызывается после последнего луча тайла
func (st *TopoState) Cleanup() {
}
