package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/arcanaland/builderbot/internal/layout"
)

// faces hands out font faces of one parsed font, one per point size.
type faces struct {
	font  *opentype.Font
	sized map[float64]font.Face
}

func newFaces(data []byte) (*faces, error) {
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}
	return &faces{font: f, sized: make(map[float64]font.Face)}, nil
}

// at returns the face for size, in pixels at 72 DPI.
func (f *faces) at(size float64) (font.Face, error) {
	if face, ok := f.sized[size]; ok {
		return face, nil
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("sizing font at %v: %w", size, err)
	}
	f.sized[size] = face
	return face, nil
}

// metrics adapts a face to the layout engine.
type metrics struct {
	face font.Face
}

var _ layout.Metrics = metrics{}

func (m metrics) Width(s string) int {
	return font.MeasureString(m.face, s).Ceil()
}

// Height measures the reference glyph from the ascent line to its lowest
// point.
func (m metrics) Height() int {
	b, _ := font.BoundString(m.face, "A")
	return (m.face.Metrics().Ascent + b.Max.Y).Ceil()
}

// drawLines draws each line with its top-left corner at Line.At.
func drawLines(dst draw.Image, lines []layout.Line, face font.Face, ink color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(ink),
		Face: face,
	}
	ascent := face.Metrics().Ascent
	for _, l := range lines {
		d.Dot = fixed.Point26_6{X: fixed.I(l.At.X), Y: fixed.I(l.At.Y) + ascent}
		d.DrawString(l.Text)
	}
}

// parseColor reads a hex color such as "#1a1a1a".
func parseColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}
