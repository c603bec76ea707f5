package shader

import (
	"fmt"

	"github.com/annel0/topomap/internal/color"
	"github.com/annel0/topomap/internal/config"
	"github.com/annel0/topomap/internal/logging"
)

// RampSize - число корзин высоты в цветовой шкале
const RampSize = 256

// Ramp - плотная таблица цвета заливки по высоте
type Ramp [RampSize]color.Color

// BuildRamp строит шкалу из разреженных опорных цветов (nil - цвет не задан).
// Корзина 0 по умолчанию чёрная, 255 - белая; пропуски заполняются линейной
// интерполяцией между ближайшими заданными корзинами с отбрасыванием дробной части.
func BuildRamp(anchors [RampSize]*color.Color) Ramp {
	var ramp Ramp
	defined := [RampSize]bool{}
	for i, c := range anchors {
		if c != nil {
			ramp[i] = *c
			defined[i] = true
		}
	}
	if !defined[0] {
		ramp[0] = color.New(0, 0, 0)
		defined[0] = true
	}
	if !defined[RampSize-1] {
		ramp[RampSize-1] = color.New(255, 255, 255)
		defined[RampSize-1] = true
	}

	start := 0
	for i := 1; i < RampSize; i++ {
		if !defined[i] {
			continue
		}
		delta := i - start
		c0, c1 := ramp[start], ramp[i]
		for j := 1; j < delta; j++ {
			ramp[start+j] = color.New(
				(int(c0.R)*(delta-j)+int(c1.R)*j)/delta,
				(int(c0.G)*(delta-j)+int(c1.G)*j)/delta,
				(int(c0.B)*(delta-j)+int(c1.B)*j)/delta,
			)
		}
		start = i
	}
	return ramp
}

// readColor читает необязательный цвет "#RRGGBB". Некорректный литерал
// логируется и считается отсутствующим.
func readColor(node config.Node, key string, log *logging.Logger) *color.Color {
	raw, ok := node[key]
	if !ok || raw == nil {
		return nil
	}
	s, isString := raw.(string)
	if !isString {
		log.Warn("Invalid color value: %v for '%s'", raw, key)
		return nil
	}
	c, err := color.ParseHex(s)
	if err != nil {
		log.Warn("Invalid color value: %s for '%s'", s, key)
		return nil
	}
	return &c
}

// ReadRampAnchors читает опорные цвета color0..color255
func ReadRampAnchors(node config.Node, log *logging.Logger) [RampSize]*color.Color {
	var anchors [RampSize]*color.Color
	for i := 0; i < RampSize; i++ {
		anchors[i] = readColor(node, fmt.Sprintf("color%d", i), log)
	}
	return anchors
}
