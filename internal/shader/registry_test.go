package shader

import (
	"testing"

	"github.com/annel0/topomap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_TopoRegistered(t *testing.T) {
	assert.Contains(t, Classes(), "topo")

	s, err := FromNode(config.Node{"name": "relief"})
	require.NoError(t, err)
	assert.Equal(t, "relief", s.Name())

	_, err = New("topo", config.Node{})
	assert.Error(t, err, "шейдер без имени должен отклоняться")
}

func TestRegistry_UnknownClass(t *testing.T) {
	_, err := New("hdtopo", config.Node{"name": "x"})
	assert.ErrorIs(t, err, ErrUnknownShader)

	_, err = FromNode(config.Node{"class": "cave", "name": "x"})
	assert.ErrorIs(t, err, ErrUnknownShader)
}
