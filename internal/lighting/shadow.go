package lighting

import (
	"errors"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/shader"
	"github.com/annel0/topomap/internal/world"
)

// nightSkyReduction - на сколько уровней ночью темнее небесный свет
const nightSkyReduction = 11

// Shadow затемняет цвет по уровню света ячейки, из которой пришёл луч.
// С включённым night-and-day пишет два цвета: ночной в out[0] и дневной в out[1].
type Shadow struct {
	name               string
	strength           float64
	ambient            int
	nightAndDay        bool
	useBrightnessTable bool
	shadowScale        [world.MaxLightLevel + 1]int
}

// NewShadow создаёт теневое освещение.
// Параметры: shadowstrength (0..1, по умолчанию 1), ambientlight (0..15, по умолчанию 0),
// night-and-day, use-brightness-table.
func NewShadow(node config.Node) (*Shadow, error) {
	name := node.GetString("name", "")
	if name == "" {
		return nil, errors.New("lighting: не задано имя (name)")
	}

	l := &Shadow{
		name:               name,
		strength:           node.GetFloat("shadowstrength", 1.0),
		ambient:            node.GetInt("ambientlight", 0),
		nightAndDay:        node.GetBool("night-and-day", false),
		useBrightnessTable: node.GetBool("use-brightness-table", true),
	}
	if l.strength < 0 || l.strength > 1 {
		logging.GetShaderLogger().Warn("Освещение %s: shadowstrength %.2f вне [0,1], обрезано", name, l.strength)
		l.strength = clampFloat(l.strength, 0, 1)
	}
	l.ambient = clampInt(l.ambient, 0, world.MaxLightLevel)

	for i := range l.shadowScale {
		v := 1.0 - l.strength*float64(world.MaxLightLevel-i)/float64(world.MaxLightLevel)
		l.shadowScale[i] = clampInt(int(256*v), 0, 256)
	}
	return l, nil
}

func (l *Shadow) Name() string {
	return l.name
}

func (l *Shadow) IsNightAndDayEnabled() bool {
	return l.nightAndDay
}

// ShadowScale возвращает множитель (из 256) для уровня света
func (l *Shadow) ShadowScale(level int) int {
	return l.shadowScale[clampInt(level, 0, world.MaxLightLevel)]
}

func (l *Shadow) ApplyLighting(ps shader.PerspectiveState, ss shader.State, in color.Color, out []color.Color) {
	sky, emitted := ps.LightLevels()
	table := ss.LightingTable()

	day := l.level(sky, emitted, table)
	if l.nightAndDay && len(out) > 1 {
		night := l.level(sky-nightSkyReduction, emitted, table)
		out[0] = shade(in, l.shadowScale[night])
		out[1] = shade(in, l.shadowScale[day])
		return
	}
	out[0] = shade(in, l.shadowScale[day])
}

// level - итоговый уровень света ячейки с учётом фона и таблицы яркости
func (l *Shadow) level(sky, emitted int, table []int) int {
	lv := clampInt(max(sky, emitted), 0, world.MaxLightLevel)
	if l.useBrightnessTable && len(table) > world.MaxLightLevel {
		lv = clampInt(table[lv], 0, world.MaxLightLevel)
	}
	return max(lv, l.ambient)
}

func shade(in color.Color, scale int) color.Color {
	return color.NewRGBA(
		(int(in.R)*scale)>>8,
		(int(in.G)*scale)>>8,
		(int(in.B)*scale)>>8,
		int(in.A))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
