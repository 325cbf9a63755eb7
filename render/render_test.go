package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
)

type staticTextures map[string]image.Image

func (s staticTextures) Get(url string) image.Image {
	return s[url]
}

func TestFlatColor(t *testing.T) {
	green := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			green.Set(x, y, color.RGBA{G: 255, A: 255})
		}
	}
	r := New(staticTextures{"green.png": green})
	base := colorful.Color{R: 1}

	assert.Equal(t, base, r.flatColor(base, ""))
	assert.Equal(t, base, r.flatColor(base, "missing.png"))
	assert.Equal(t, colorful.Color{G: 1}, r.flatColor(base, "green.png"))
	assert.Contains(t, r.averages, "green.png")

	assert.Equal(t, base, New(nil).flatColor(base, "green.png"))
}

func TestRGBA(t *testing.T) {
	assert.Equal(t, color.NRGBA{R: 255, G: 128, A: 127}, rgba(colorful.Color{R: 1.5, G: 0.5}, 0.5))
	assert.Equal(t, uint8(255), rgba(colorful.Color{}, 3).A)
}
