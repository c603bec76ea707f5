package color

import (
	"errors"
	"fmt"
	imgcolor "image/color"
	"strconv"
	"strings"
)

// ErrInvalidColor возвращается при разборе некорректного цветового литерала
var ErrInvalidColor = errors.New("invalid color value")

// Color - цвет с 8-битными каналами и прямой (не премультиплицированной) альфой.
// A == 0 - полностью прозрачный, A == 255 - непрозрачный.
type Color struct {
	R uint8
	G uint8
	B uint8
	A uint8
}

// New создаёт непрозрачный цвет
func New(r, g, b int) Color {
	return Color{R: uint8(r), G: uint8(g), B: uint8(b), A: 255}
}

// NewRGBA создаёт цвет с альфой
func NewRGBA(r, g, b, a int) Color {
	return Color{R: uint8(r), G: uint8(g), B: uint8(b), A: uint8(a)}
}

// SetColor копирует другой цвет
func (c *Color) SetColor(o Color) {
	*c = o
}

// SetRGBA устанавливает все каналы
func (c *Color) SetRGBA(r, g, b, a int) {
	c.R = uint8(r)
	c.G = uint8(g)
	c.B = uint8(b)
	c.A = uint8(a)
}

// SetAlpha устанавливает альфу, обрезая значение до [0,255]
func (c *Color) SetAlpha(a int) {
	if a < 0 {
		a = 0
	} else if a > 255 {
		a = 255
	}
	c.A = uint8(a)
}

// SetTransparent делает цвет полностью прозрачным
func (c *Color) SetTransparent() {
	*c = Color{}
}

// IsTransparent сообщает, что альфа равна нулю
func (c Color) IsTransparent() bool {
	return c.A == 0
}

// NRGBA конвертирует в цвет стандартной библиотеки изображений
func (c Color) NRGBA() imgcolor.NRGBA {
	return imgcolor.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}

// Hex возвращает литерал вида "#RRGGBB" (альфа не выводится)
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// ParseHex разбирает литерал "#RRGGBB". Значение после '#' читается как
// знаковое 32-битное шестнадцатеричное число (допустим знак + или -),
// каналы берутся из младших 24 бит.
func ParseHex(s string) (Color, error) {
	if !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	n, err := strconv.ParseInt(s[1:], 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v := uint32(int32(n))
	return New(int((v>>16)&0xFF), int((v>>8)&0xFF), int(v&0xFF)), nil
}
