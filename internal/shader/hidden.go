package shader

import (
	"github.com/annel0/topomap/internal/world/block"
)

// maxHiddenID - граница (не включая) допустимых скрываемых идентификаторов
const maxHiddenID = 65535

// HiddenSet - битовая маска типов блоков, которые шейдер не рисует.
// Воздух (0) входит в набор всегда.
type HiddenSet struct {
	bits [2048]uint32
}

// NewHiddenSet строит набор из значений конфигурации. Учитываются только целые
// числа в интервале (0, 65535); прочие значения молча пропускаются.
func NewHiddenSet(values []interface{}) *HiddenSet {
	hs := &HiddenSet{}
	hs.bits[0] = 0x1
	for _, o := range values {
		v, ok := asInt(o)
		if !ok {
			continue
		}
		if v > 0 && v < maxHiddenID {
			hs.bits[v>>5] |= 1 << (v & 0x1F)
		}
	}
	return hs
}

// Contains проверяет принадлежность идентификатора набору
func (hs *HiddenSet) Contains(id block.BlockID) bool {
	return id == 0 || hs.bits[id>>5]&(1<<(id&0x1F)) != 0
}

// asInt принимает только целочисленные типы Go
func asInt(o interface{}) (int64, bool) {
	switch v := o.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > maxHiddenID {
			return 0, false
		}
		return int64(v), true
	default:
		return 0, false
	}
}
