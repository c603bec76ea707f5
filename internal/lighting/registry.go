package lighting

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/shader"
)

// ErrUnknownLighting возвращается для незарегистрированного класса освещения
var ErrUnknownLighting = errors.New("unknown lighting class")

// Constructor создаёт модель освещения из узла конфигурации
type Constructor func(node config.Node) (shader.Lighting, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register добавляет класс освещения
func Register(class string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[class] = ctor
}

// New создаёт освещение указанного класса
func New(class string, node config.Node) (shader.Lighting, error) {
	registryMu.RLock()
	ctor, ok := registry[class]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLighting, class)
	}
	return ctor(node)
}

// FromNode создаёт освещение по полю class (по умолчанию default)
func FromNode(node config.Node) (shader.Lighting, error) {
	return New(node.GetString("class", "default"), node)
}

// Classes возвращает зарегистрированные классы
func Classes() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for c := range registry {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func init() {
	Register("default", func(node config.Node) (shader.Lighting, error) {
		l, err := NewDefault(node)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
	Register("shadow", func(node config.Node) (shader.Lighting, error) {
		l, err := NewShadow(node)
		if err != nil {
			return nil, err
		}
		return l, nil
	})
}
