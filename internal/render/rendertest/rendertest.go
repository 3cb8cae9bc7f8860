// Package rendertest seeds stores with the assets a render needs.
package rendertest

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/arcanaland/builderbot/internal/store"
)

// Card dimensions used by the fixtures.
const (
	Width  = 300
	Height = 420
)

// PNG encodes a w×h image filled with c.
func PNG(w, h int, c color.Color) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Seed writes the font and overlay graphics plus white art for each name.
func Seed(m *store.Memory, artNames ...string) {
	m.Set("/graphics/font.ttf", goregular.TTF)
	m.Set("/graphics/text_boxes.png", PNG(Width, Height, color.NRGBA{R: 200, G: 200, B: 255, A: 64}))
	for _, name := range artNames {
		m.Set("/art/"+name, PNG(Width, Height, color.White))
	}
}
