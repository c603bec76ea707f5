package lighting

import (
	"testing"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/shader"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePerspective struct {
	sky, emitted int
}

func (p fakePerspective) BlockTypeID() block.BlockID      { return block.StoneBlockID }
func (p fakePerspective) SubblockCoord() [3]int           { return [3]int{} }
func (p fakePerspective) LastBlockStep() world.BlockStep  { return world.StepYMinus }
func (p fakePerspective) LightLevels() (sky, emitted int) { return p.sky, p.emitted }

// fakeState отдаёт только таблицу яркости
type fakeState struct {
	shader.State
	table []int
}

func (s fakeState) LightingTable() []int { return s.table }

func TestDefault_PassThrough(t *testing.T) {
	l, err := NewDefault(config.Node{"name": "default"})
	require.NoError(t, err)
	assert.False(t, l.IsNightAndDayEnabled())

	in := color.NewRGBA(10, 20, 30, 40)
	out := make([]color.Color, 2)
	l.ApplyLighting(fakePerspective{}, fakeState{}, in, out)
	assert.Equal(t, in, out[0])
	assert.Equal(t, in, out[1])
}

func TestShadow_Scale(t *testing.T) {
	l, err := NewShadow(config.Node{"name": "s"})
	require.NoError(t, err)
	assert.Equal(t, 0, l.ShadowScale(0))
	assert.Equal(t, 256, l.ShadowScale(15))
	assert.Equal(t, 256, l.ShadowScale(99), "уровень обрезается до 15")

	half, err := NewShadow(config.Node{"name": "s", "shadowstrength": 0.5})
	require.NoError(t, err)
	assert.Equal(t, 128, half.ShadowScale(0))
	assert.Equal(t, 256, half.ShadowScale(15))

	// Сила вне диапазона обрезается
	none, err := NewShadow(config.Node{"name": "s", "shadowstrength": -3.0})
	require.NoError(t, err)
	assert.Equal(t, 256, none.ShadowScale(0))
}

func TestShadow_ApplyLighting(t *testing.T) {
	l, err := NewShadow(config.Node{"name": "s", "use-brightness-table": false})
	require.NoError(t, err)

	in := color.NewRGBA(200, 100, 50, 180)
	out := make([]color.Color, 1)

	l.ApplyLighting(fakePerspective{sky: 15}, fakeState{}, in, out)
	assert.Equal(t, in, out[0], "на полном свету цвет не меняется")

	l.ApplyLighting(fakePerspective{sky: 0}, fakeState{}, in, out)
	assert.Equal(t, color.NewRGBA(0, 0, 0, 180), out[0], "альфа сохраняется")

	// Свечение блока сильнее неба
	l.ApplyLighting(fakePerspective{sky: 0, emitted: 15}, fakeState{}, in, out)
	assert.Equal(t, in, out[0])
}

func TestShadow_Ambient(t *testing.T) {
	l, err := NewShadow(config.Node{"name": "s", "ambientlight": 15, "use-brightness-table": false})
	require.NoError(t, err)

	in := color.New(90, 90, 90)
	out := make([]color.Color, 1)
	l.ApplyLighting(fakePerspective{sky: 0}, fakeState{}, in, out)
	assert.Equal(t, in, out[0])
}

func TestShadow_BrightnessTable(t *testing.T) {
	l, err := NewShadow(config.Node{"name": "s"})
	require.NoError(t, err)

	// Таблица, переводящая любой уровень в полный свет
	table := make([]int, world.MaxLightLevel+1)
	for i := range table {
		table[i] = world.MaxLightLevel
	}
	in := color.New(40, 50, 60)
	out := make([]color.Color, 1)
	l.ApplyLighting(fakePerspective{sky: 0}, fakeState{table: table}, in, out)
	assert.Equal(t, in, out[0])

	// Короткая таблица игнорируется
	l.ApplyLighting(fakePerspective{sky: 0}, fakeState{table: []int{15}}, in, out)
	assert.Equal(t, color.New(0, 0, 0), out[0])
}

func TestShadow_NightAndDay(t *testing.T) {
	l, err := NewShadow(config.Node{"name": "nd", "night-and-day": true, "use-brightness-table": false})
	require.NoError(t, err)
	assert.True(t, l.IsNightAndDayEnabled())

	in := color.New(255, 255, 255)
	out := make([]color.Color, 2)
	l.ApplyLighting(fakePerspective{sky: 15}, fakeState{}, in, out)

	assert.Equal(t, in, out[1], "днём полный свет")
	// Ночью небо 15-11 = 4: множитель int(256*4/15) = 68, 255*68>>8 = 67
	assert.Equal(t, color.New(67, 67, 67), out[0])

	// Свечение не зависит от времени суток
	l.ApplyLighting(fakePerspective{sky: 15, emitted: 15}, fakeState{}, in, out)
	assert.Equal(t, in, out[0])
}

func TestRegistry(t *testing.T) {
	assert.Equal(t, []string{"default", "shadow"}, Classes())

	l, err := FromNode(config.Node{"name": "plain"})
	require.NoError(t, err)
	assert.IsType(t, &Default{}, l)

	l, err = FromNode(config.Node{"class": "shadow", "name": "sh"})
	require.NoError(t, err)
	assert.Equal(t, "sh", l.Name())

	_, err = FromNode(config.Node{"class": "sunset", "name": "x"})
	assert.ErrorIs(t, err, ErrUnknownLighting)

	l, err = FromNode(config.Node{})
	assert.Error(t, err)
	assert.Nil(t, l)
}
