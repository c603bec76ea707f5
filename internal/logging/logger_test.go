package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriterLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger("shader", &buf, WARN)

	l.Info("не должно попасть")
	l.Warn("цвет %s", "#ZZ")
	l.Error("ошибка")

	out := buf.String()
	assert.NotContains(t, out, "не должно попасть")
	assert.Contains(t, out, "[WARN] [shader] цвет #ZZ")
	assert.Contains(t, out, "[ERROR] [shader] ошибка")
	assert.Equal(t, 2, strings.Count(out, "\n"))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, ERROR, ParseLevel("ERROR"))
	assert.Equal(t, INFO, ParseLevel("что-то"))
}

func TestManagerReturnsSameLogger(t *testing.T) {
	lm := newLoggerManager()
	a := lm.Logger("test-component")
	b := lm.Logger("test-component")
	assert.Same(t, a, b)
	assert.Equal(t, []string{"test-component"}, lm.Components())

	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.Components())
}

func TestManagerConsoleLevel(t *testing.T) {
	lm := newLoggerManager()
	before := lm.Logger("render")
	assert.Equal(t, INFO, before.minConsoleLevel)

	lm.SetConsoleLevel(ERROR + 1)
	after := lm.Logger("storage")

	// Порог применяется и к уже созданным, и к новым логгерам
	assert.Equal(t, ERROR+1, before.minConsoleLevel)
	assert.Equal(t, ERROR+1, after.minConsoleLevel)
}
