package render

import (
	"fmt"
	"math"

	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/lighting"
	"github.com/annel0/topomap/internal/shader"
	"github.com/annel0/topomap/internal/vec"
)

const (
	MinScale       = 1
	MaxScale       = 16
	MinInclination = 30.0
	MaxInclination = 90.0
)

// Map - описание карты: шейдер, освещение и параметры лучей
type Map struct {
	Name               string
	Title              string
	Shader             shader.Shader
	Lighting           shader.Lighting
	Scale              int     // Пикселей на ребро блока
	Inclination        float64 // Угол луча к горизонту в градусах, 90 - строго вниз
	TileSize           int     // Блоков на ребро тайла
	UseBrightnessTable bool

	dir vec.Vec3Float
}

// NewMap проверяет параметры и создаёт карту
func NewMap(mc config.MapConfig, tileSize int, sh shader.Shader, l shader.Lighting) (*Map, error) {
	if mc.Name == "" {
		return nil, fmt.Errorf("карта без имени")
	}
	if sh == nil || l == nil {
		return nil, fmt.Errorf("карта %q: не задан шейдер или освещение", mc.Name)
	}
	if mc.Scale < MinScale || mc.Scale > MaxScale {
		return nil, fmt.Errorf("карта %q: масштаб %d вне [%d,%d]", mc.Name, mc.Scale, MinScale, MaxScale)
	}
	if mc.Inclination < MinInclination || mc.Inclination > MaxInclination {
		return nil, fmt.Errorf("карта %q: наклон %.1f вне [%.0f,%.0f]", mc.Name, mc.Inclination, MinInclination, MaxInclination)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("карта %q: размер тайла %d", mc.Name, tileSize)
	}

	title := mc.Title
	if title == "" {
		title = mc.Name
	}
	return &Map{
		Name:               mc.Name,
		Title:              title,
		Shader:             sh,
		Lighting:           l,
		Scale:              mc.Scale,
		Inclination:        mc.Inclination,
		TileSize:           tileSize,
		UseBrightnessTable: mc.UseBrightnessTable,
		dir:                rayDirection(mc.Inclination),
	}, nil
}

// rayDirection - единичный вектор луча: вниз и на юг (+Z) под углом inclination к горизонту
func rayDirection(inclination float64) vec.Vec3Float {
	if inclination >= MaxInclination {
		return vec.Vec3Float{Y: -1}
	}
	rad := inclination * math.Pi / 180
	return vec.Vec3Float{Y: -math.Sin(rad), Z: math.Cos(rad)}
}

// Direction возвращает направление лучей карты
func (m *Map) Direction() vec.Vec3Float {
	return m.dir
}

// ImageSize возвращает размер стороны тайла в пикселях
func (m *Map) ImageSize() int {
	return m.TileSize * m.Scale
}

// NightAndDay сообщает, что карта рисует отдельный дневной вариант
func (m *Map) NightAndDay() bool {
	return m.Lighting.IsNightAndDayEnabled()
}

// ClientConfiguration возвращает описание карты для клиента
func (m *Map) ClientConfiguration() map[string]interface{} {
	cfg := map[string]interface{}{
		"name":        m.Name,
		"title":       m.Title,
		"scale":       m.Scale,
		"inclination": m.Inclination,
		"tilesize":    m.TileSize,
		"lighting":    m.Lighting.Name(),
		"nightandday": m.NightAndDay(),
	}
	m.Shader.AddClientConfiguration(cfg)
	return cfg
}

// BuildMaps создаёт шейдеры, освещение и карты из конфигурации
func BuildMaps(cfg *config.Config) ([]*Map, error) {
	shaders := make(map[string]shader.Shader, len(cfg.Shaders))
	for _, node := range cfg.Shaders {
		sh, err := shader.FromNode(node)
		if err != nil {
			return nil, fmt.Errorf("шейдер %q: %w", node.GetString("name", ""), err)
		}
		shaders[sh.Name()] = sh
	}

	lightings := make(map[string]shader.Lighting, len(cfg.Lightings))
	for _, node := range cfg.Lightings {
		l, err := lighting.FromNode(node)
		if err != nil {
			return nil, fmt.Errorf("освещение %q: %w", node.GetString("name", ""), err)
		}
		lightings[l.Name()] = l
	}

	maps := make([]*Map, 0, len(cfg.Maps))
	for _, mc := range cfg.Maps {
		sh, ok := shaders[mc.Shader]
		if !ok {
			return nil, fmt.Errorf("карта %q: неизвестный шейдер %q", mc.Name, mc.Shader)
		}
		l, ok := lightings[mc.Lighting]
		if !ok {
			return nil, fmt.Errorf("карта %q: неизвестное освещение %q", mc.Name, mc.Lighting)
		}
		m, err := NewMap(mc, cfg.Render.TileSize, sh, l)
		if err != nil {
			return nil, err
		}
		maps = append(maps, m)
	}
	return maps, nil
}
