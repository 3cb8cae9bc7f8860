package render_test

import (
	"context"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/config"
	"github.com/arcanaland/builderbot/internal/render"
	"github.com/arcanaland/builderbot/internal/render/rendertest"
	"github.com/arcanaland/builderbot/internal/store"
)

func testLayout() config.Layout {
	l := config.DefaultLayout()
	l.TitleSize, l.RulesSize, l.FlavorSize = 24, 16, 12
	l.TitleOrigin = config.Point{X: 20, Y: 20}
	l.RulesOrigin = config.Point{X: 20, Y: 200}
	l.FlavorOrigin = config.Point{X: 20, Y: 360}
	return l
}

func newRenderer(t *testing.T, m *store.Memory) *render.Renderer {
	t.Helper()
	c := cache.New(t.TempDir(), m, nil)
	require.NoError(t, c.Load(context.Background()))
	r, err := render.New(testLayout(), c, nil)
	require.NoError(t, err)
	return r
}

func golem() card.Card {
	cost := "3"
	return card.New(card.Record{
		Name:     "Golem",
		Types:    "Creature",
		Cost:     &cost,
		Rules:    "When this enters play, draw a card for every other creature you control.",
		Flavor:   "It remembers nothing.",
		Quantity: 1,
	}, 1)
}

func isDark(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r < 0x8000 && g < 0x8000 && b < 0x8000
}

func anyDark(img image.Image, rect image.Rectangle) bool {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if isDark(img.At(x, y)) {
				return true
			}
		}
	}
	return false
}

func TestRender(t *testing.T) {
	m := store.NewMemory()
	rendertest.Seed(m, "golem.png")

	img, err := newRenderer(t, m).Render(context.Background(), golem())
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, rendertest.Width, rendertest.Height), img.Bounds())
	assert.True(t, img.Opaque())

	assert.True(t, anyDark(img, image.Rect(20, 20, 150, 50)), "title is drawn")
	assert.True(t, anyDark(img, image.Rect(20, 200, 280, 230)), "rules are drawn")
	assert.True(t, anyDark(img, image.Rect(20, 360, 280, 380)), "flavor is drawn")
	assert.False(t, anyDark(img, image.Rect(0, 100, 300, 180)), "gap stays blank")
}

func TestRenderBlendsOverlay(t *testing.T) {
	m := store.NewMemory()
	m.Set("/art/golem.png", rendertest.PNG(rendertest.Width, rendertest.Height, color.NRGBA{R: 255, A: 255}))
	rendertest.Seed(m)
	// A smaller frame is stretched to the card.
	m.Set("/graphics/text_boxes.png", rendertest.PNG(30, 42, color.NRGBA{B: 255, A: 128}))

	img, err := newRenderer(t, m).Render(context.Background(), golem())
	require.NoError(t, err)

	r, _, b, _ := img.At(rendertest.Width-2, rendertest.Height/2).RGBA()
	assert.Greater(t, r, uint32(0x4000))
	assert.Greater(t, b, uint32(0x4000))
}

func TestRenderWithoutOverlay(t *testing.T) {
	m := store.NewMemory()
	rendertest.Seed(m, "golem.png")
	m.Delete("/graphics/text_boxes.png")

	img, err := newRenderer(t, m).Render(context.Background(), golem())
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, img.RGBAAt(rendertest.Width-2, rendertest.Height-2))
}

func TestRenderMissingArt(t *testing.T) {
	m := store.NewMemory()
	rendertest.Seed(m)

	_, err := newRenderer(t, m).Render(context.Background(), golem())
	assert.ErrorIs(t, err, render.ErrMissingArt)
	assert.ErrorContains(t, err, "golem.png")
}

func TestRenderMissingFont(t *testing.T) {
	m := store.NewMemory()
	rendertest.Seed(m, "golem.png")
	m.Delete("/graphics/font.ttf")

	_, err := newRenderer(t, m).Render(context.Background(), golem())
	assert.ErrorIs(t, err, render.ErrMissingFont)
}

func TestNewRejectsBadColor(t *testing.T) {
	l := config.DefaultLayout()
	l.TextColor = "blackish"
	_, err := render.New(l, nil, nil)
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	out := render.Preview(img, 10, 5)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, 10, strings.Count(lines[0], "▀"))
	assert.Contains(t, lines[0], "\x1b[38;2;0;0;0m")
}
