package lighting

import (
	"errors"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/shader"
)

// Default - освещение без изменений: цвет шейдера попадает в результат как есть
type Default struct {
	name string
}

// NewDefault создаёт освещение по умолчанию
func NewDefault(node config.Node) (*Default, error) {
	name := node.GetString("name", "")
	if name == "" {
		return nil, errors.New("lighting: не задано имя (name)")
	}
	return &Default{name: name}, nil
}

func (l *Default) Name() string {
	return l.name
}

func (l *Default) IsNightAndDayEnabled() bool {
	return false
}

func (l *Default) ApplyLighting(ps shader.PerspectiveState, ss shader.State, in color.Color, out []color.Color) {
	for i := range out {
		out[i] = in
	}
}
