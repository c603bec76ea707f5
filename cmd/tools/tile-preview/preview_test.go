package main

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

func TestBlendOver(t *testing.T) {
	bg := colorful.Color{R: 1, G: 1, B: 1}

	opaque := pixel{c: colorful.Color{R: 1}, alpha: 1}
	r, g, b := blendOver(opaque, bg).RGB255()
	assert.Equal(t, [3]uint8{255, 0, 0}, [3]uint8{r, g, b})

	transparent := pixel{c: colorful.Color{R: 1}, alpha: 0}
	r, g, b = blendOver(transparent, bg).RGB255()
	assert.Equal(t, [3]uint8{255, 255, 255}, [3]uint8{r, g, b})

	half := pixel{c: colorful.Color{}, alpha: 0.5}
	r, _, _ = blendOver(half, bg).RGB255()
	assert.InDelta(t, 128, int(r), 1)
}

func TestFitSize(t *testing.T) {
	cols, rows := fitSize(128, 200, 50)
	assert.Equal(t, 100, cols)
	assert.Equal(t, 50, rows)

	cols, rows = fitSize(64, 200, 50)
	assert.Equal(t, 64, cols)
	assert.Equal(t, 32, rows)

	cols, rows = fitSize(128, 40, 50)
	assert.Equal(t, 40, cols)
	assert.Equal(t, 20, rows)
}

func TestSamplePixel(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.SetNRGBA(2, 2, color.NRGBA{R: 255, A: 128})

	// Картинка 4x4, выводимая в 2x2: пиксель (1,1) берётся из (2,2)
	p := samplePixel(img, 4, 1, 1, 2, 2)
	assert.Equal(t, 1.0, p.c.R)
	assert.InDelta(t, 0.5, p.alpha, 0.01)
}
