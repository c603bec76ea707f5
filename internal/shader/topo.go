package shader

import (
	"errors"
	"fmt"
	"io"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
	"github.com/annel0/topomap/internal/world"
	"github.com/annel0/topomap/internal/world/block"
)

// ErrExportUnsupported возвращается шейдерами, не поддерживающими экспорт материалов
var ErrExportUnsupported = fmt.Errorf("export unsupported: %w", errors.ErrUnsupported)

// TopoShader - топографический шейдер: заливка по высоте, контуры у краёв,
// полупрозрачная вода и скрытые типы блоков.
// После создания не изменяется и безопасен для чтения из любого числа горутин.
type TopoShader struct {
	name       string
	fillColor  Ramp
	lineColor  *color.Color
	waterColor *color.Color
	hidden     *HiddenSet
}

// NewTopoShader создаёт шейдер из узла конфигурации
func NewTopoShader(node config.Node) (*TopoShader, error) {
	return newTopoShader(node, logging.GetShaderLogger())
}

func newTopoShader(node config.Node, log *logging.Logger) (*TopoShader, error) {
	name := node.GetString("name", "")
	if name == "" {
		return nil, errors.New("topo shader: не задано имя (name)")
	}

	s := &TopoShader{
		name:       name,
		fillColor:  BuildRamp(ReadRampAnchors(node, log)),
		lineColor:  readColor(node, "linecolor", log),
		waterColor: readColor(node, "watercolor", log),
		hidden:     NewHiddenSet(node.GetList("hiddenids")),
	}

	waterAlpha := node.GetFloat("wateralpha", 1.0)
	if waterAlpha < 1.0 && s.waterColor != nil {
		s.waterColor.SetAlpha(int(255 * waterAlpha))
	}

	log.Debug("Шейдер %s: линии=%v, вода=%v", name, s.lineColor != nil, s.waterColor != nil)
	return s, nil
}

// Name возвращает имя шейдера
func (s *TopoShader) Name() string {
	return s.name
}

// DataNeeds - шейдеру нужны только типы блоков
func (s *TopoShader) DataNeeds() DataNeeds {
	return DataNeeds{BlockTypeData: true}
}

// Ramp возвращает шкалу цветов по высоте
func (s *TopoShader) Ramp() *Ramp {
	return &s.fillColor
}

// Hidden возвращает набор скрытых типов блоков
func (s *TopoShader) Hidden() *HiddenSet {
	return s.hidden
}

// LineColor возвращает цвет контуров или nil
func (s *TopoShader) LineColor() *color.Color {
	return s.lineColor
}

// WaterColor возвращает цвет воды или nil
func (s *TopoShader) WaterColor() *color.Color {
	return s.waterColor
}

// StateInstance создаёт состояние для всех лучей одного тайла
func (s *TopoShader) StateInstance(lighting Lighting, iter MapIterator, scale int, brightness []int) State {
	return newTopoState(s, lighting, iter, scale, brightness)
}

// AddClientConfiguration добавляет имя шейдера в описание карты
func (s *TopoShader) AddClientConfiguration(m map[string]interface{}) {
	m["shader"] = s.name
}

// ExportMaterialLibrary не поддерживается топографическим шейдером
func (s *TopoShader) ExportMaterialLibrary(w io.Writer) error {
	return ErrExportUnsupported
}

// BlockMaterials - у топографического шейдера нет материалов
func (s *TopoShader) BlockMaterials(id block.BlockID, steps []world.BlockStep) []string {
	return []string{}
}

func init() {
	Register("topo", func(node config.Node) (Shader, error) {
		s, err := NewTopoShader(node)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}
