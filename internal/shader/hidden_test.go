package shader

import (
	"testing"

	"github.com/annel0/topomap/internal/world/block"
	"github.com/stretchr/testify/assert"
)

func TestHiddenSet_AirAlwaysHidden(t *testing.T) {
	assert.True(t, NewHiddenSet(nil).Contains(0))
	assert.True(t, NewHiddenSet([]interface{}{0, -5}).Contains(0))
}

func TestHiddenSet_Membership(t *testing.T) {
	hs := NewHiddenSet([]interface{}{
		1, 31, 32, 63, 64, 65534, // допустимые
		65535, 70000, -3, // вне диапазона
		7.0, "8", nil, true, // не целые
		int64(100), uint16(200),
	})

	for _, id := range []block.BlockID{0, 1, 31, 32, 63, 64, 65534, 100, 200} {
		assert.True(t, hs.Contains(id), "id %d должен быть скрыт", id)
	}
	for _, id := range []block.BlockID{2, 7, 8, 30, 33, 65, 65535, 99, 201} {
		assert.False(t, hs.Contains(id), "id %d не должен быть скрыт", id)
	}
}

func TestHiddenSet_OnlyConfigured(t *testing.T) {
	hs := NewHiddenSet([]interface{}{1000})
	count := 0
	for id := 0; id < 65536; id++ {
		if hs.Contains(block.BlockID(id)) {
			count++
		}
	}
	assert.Equal(t, 2, count, "скрыты только воздух и 1000")
}
