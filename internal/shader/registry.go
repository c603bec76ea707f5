package shader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/annel0/topomap/internal/config"
)

// ErrUnknownShader возвращается для незарегистрированного класса шейдера
var ErrUnknownShader = errors.New("unknown shader class")

// Constructor создаёт шейдер из узла конфигурации
type Constructor func(node config.Node) (Shader, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Constructor)
)

// Register добавляет класс шейдера в регистр
func Register(class string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[class] = ctor
}

// New создаёт шейдер указанного класса
func New(class string, node config.Node) (Shader, error) {
	registryMu.RLock()
	ctor, ok := registry[class]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownShader, class)
	}
	return ctor(node)
}

// FromNode создаёт шейдер по полю class узла (по умолчанию topo)
func FromNode(node config.Node) (Shader, error) {
	return New(node.GetString("class", "topo"), node)
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
