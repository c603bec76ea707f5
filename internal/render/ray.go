package render

import (
	"math"

	"github.com/annel0/topomap/internal/shader"
	"github.com/annel0/topomap/internal/vec"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
)

// axisSteps - шаги в положительном и отрицательном направлении по осям X, Y, Z
var axisSteps = [3][2]world.BlockStep{
	{world.StepXPlus, world.StepXMinus},
	{world.StepYPlus, world.StepYMinus},
	{world.StepZPlus, world.StepZMinus},
}

// rayTracer ведёт луч по сетке блоков (Amanatides-Woo) и отдаёт каждый блок
// шейдеру. Реализует shader.PerspectiveState для текущего шага.
// Один rayTracer на тайл, не разделяется между горутинами.
type rayTracer struct {
	iter  *world.MapIterator
	scale int

	sub  [3]int
	last world.BlockStep
}

func newRayTracer(iter *world.MapIterator, scale int) *rayTracer {
	return &rayTracer{iter: iter, scale: scale, last: world.StepYMinus}
}

func (r *rayTracer) BlockTypeID() block.BlockID {
	return r.iter.BlockTypeID()
}

func (r *rayTracer) SubblockCoord() [3]int {
	return r.sub
}

func (r *rayTracer) LastBlockStep() world.BlockStep {
	return r.last
}

// LightLevels возвращает свет ячейки, из которой луч вошёл в текущий блок
func (r *rayTracer) LightLevels() (sky, emitted int) {
	return r.iter.LightAt(r.last.Opposite())
}

// trace проводит луч из origin в направлении dir, пока шейдер не завершит его
// или луч не уйдёт ниже мира. Возвращает число обработанных блоков.
// dir.Y должен быть отрицательным.
func (r *rayTracer) trace(st shader.State, origin, dir vec.Vec3Float) int {
	cell := origin.Floor()
	var (
		step   [3]int
		tMax   [3]float64
		tDelta [3]float64
	)
	for axis := 0; axis < 3; axis++ {
		d := dir.Get(axis)
		p := origin.Get(axis)
		c := float64(cell.Get(axis))
		switch {
		case d > 0:
			step[axis] = 1
			tDelta[axis] = 1 / d
			tMax[axis] = (c + 1 - p) / d
		case d < 0:
			step[axis] = -1
			tDelta[axis] = -1 / d
			tMax[axis] = (p - c) / -d
		default:
			tDelta[axis] = math.Inf(1)
			tMax[axis] = math.Inf(1)
		}
	}

	r.iter.InitFromPosition(cell.X, cell.Y, cell.Z)
	r.last = world.StepYMinus
	st.Reset(r)

	steps := 0
	for {
		// При равенстве предпочитаем вертикальный шаг
		axis := 1
		if tMax[0] < tMax[axis] {
			axis = 0
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}

		t := tMax[axis]
		cell.Set(axis, cell.Get(axis)+step[axis])
		tMax[axis] += tDelta[axis]

		bs := axisSteps[axis][0]
		if step[axis] < 0 {
			bs = axisSteps[axis][1]
		}
		r.iter.StepPosition(bs)
		r.last = bs

		if cell.Y < 0 {
			st.RayFinished(r)
			return steps
		}
		if cell.Y >= r.iter.WorldHeight() {
			continue
		}

		// Точка входа внутри блока
		entry := origin.Add(dir.Mul(t))
		for a := 0; a < 3; a++ {
			if a == axis {
				if step[a] < 0 {
					r.sub[a] = r.scale - 1
				} else {
					r.sub[a] = 0
				}
				continue
			}
			frac := entry.Get(a) - float64(cell.Get(a))
			r.sub[a] = clampSub(int(math.Floor(frac*float64(r.scale))), r.scale)
		}

		steps++
		if st.ProcessBlock(r) {
			return steps
		}
	}
}

func clampSub(v, scale int) int {
	if v < 0 {
		return 0
	}
	if v >= scale {
		return scale - 1
	}
	return v
}
