// Package render draws finished card faces: the card's art as background,
// the frame overlay, the wrapped rules text and the title.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/config"
	"github.com/arcanaland/builderbot/internal/layout"
)

var (
	// ErrMissingArt means the card's background could not be resolved.
	ErrMissingArt = errors.New("missing card art")
	// ErrMissingFont means the text font could not be resolved.
	ErrMissingFont = errors.New("missing font")
)

// Renderer turns cards into images. It reads assets through a cache and
// keeps the parsed font for its lifetime, so use one per build.
type Renderer struct {
	layout config.Layout
	cache  *cache.Cache
	log    *slog.Logger
	ink    color.RGBA
	matte  color.RGBA
	faces  *faces
}

// New validates the layout colors and returns a renderer.
func New(l config.Layout, c *cache.Cache, logger *slog.Logger) (*Renderer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ink, err := parseColor(l.TextColor)
	if err != nil {
		return nil, fmt.Errorf("text color: %w", err)
	}
	matte, err := parseColor(l.Matte)
	if err != nil {
		return nil, fmt.Errorf("matte: %w", err)
	}
	return &Renderer{
		layout: l,
		cache:  c,
		log:    logger.With(slog.String("component", "render")),
		ink:    ink,
		matte:  matte,
	}, nil
}

// Render draws one card. The returned image is opaque and owned by the
// caller.
func (r *Renderer) Render(ctx context.Context, c card.Card) (*image.RGBA, error) {
	canvas, err := r.background(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := r.overlay(ctx, canvas); err != nil {
		return nil, err
	}

	faces, err := r.loadFaces(ctx)
	if err != nil {
		return nil, err
	}

	width := canvas.Bounds().Dx()
	if err := r.drawBlock(canvas, faces, c.RulesText(), r.layout.RulesSize, r.layout.RulesOrigin, width); err != nil {
		return nil, err
	}
	if c.Flavor != "" {
		if err := r.drawBlock(canvas, faces, c.Flavor, r.layout.FlavorSize, r.layout.FlavorOrigin, width); err != nil {
			return nil, err
		}
	}

	title, err := faces.at(r.layout.TitleSize)
	if err != nil {
		return nil, err
	}
	drawLines(canvas, []layout.Line{{Text: c.Name, At: r.layout.TitleOrigin.Image()}}, title, r.ink)

	return flatten(canvas, r.matte), nil
}

// drawBlock wraps text into the box that starts at origin and ends as far
// from the right edge as origin is from the left.
func (r *Renderer) drawBlock(dst draw.Image, faces *faces, text string, size float64, origin config.Point, width int) error {
	face, err := faces.at(size)
	if err != nil {
		return err
	}
	engine := layout.Engine{
		Origin:  origin.Image(),
		Right:   width - origin.X,
		Leading: r.layout.Leading,
	}
	drawLines(dst, engine.Layout(text, metrics{face: face}), face, r.ink)
	return nil
}

func (r *Renderer) background(ctx context.Context, c card.Card) (*image.RGBA, error) {
	res := r.cache.Art.Get(ctx, c.ArtName)
	if !res.OK() {
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingArt, c.ArtName, res.Err)
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingArt, c.ArtName)
	}

	src, err := decodeFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("decoding art %s: %w", c.ArtName, err)
	}

	b := src.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(canvas, canvas.Bounds(), src, b.Min, draw.Src)
	return canvas, nil
}

// overlay alpha-blends the frame over the canvas, stretching it to fit. A
// frame that cannot be resolved is skipped with a warning.
func (r *Renderer) overlay(ctx context.Context, canvas *image.RGBA) error {
	res := r.cache.Graphics.Get(ctx, r.layout.Overlay)
	if !res.OK() {
		r.log.Warn("overlay unavailable, rendering without it",
			slog.String("asset", r.layout.Overlay),
			slog.String("status", res.Status.String()),
			slog.Any("error", res.Err),
		)
		return nil
	}

	frame, err := decodeFile(res.Path)
	if err != nil {
		return fmt.Errorf("decoding overlay %s: %w", r.layout.Overlay, err)
	}

	cb := canvas.Bounds()
	if frame.Bounds().Size() != cb.Size() {
		frame = resize.Resize(uint(cb.Dx()), uint(cb.Dy()), frame, resize.Bilinear)
	}
	draw.Draw(canvas, cb, frame, frame.Bounds().Min, draw.Over)
	return nil
}

func (r *Renderer) loadFaces(ctx context.Context) (*faces, error) {
	if r.faces != nil {
		return r.faces, nil
	}

	res := r.cache.Graphics.Get(ctx, r.layout.Font)
	if !res.OK() {
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMissingFont, r.layout.Font, res.Err)
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingFont, r.layout.Font)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}
	f, err := newFaces(data)
	if err != nil {
		return nil, fmt.Errorf("parsing font %s: %w", r.layout.Font, err)
	}
	r.faces = f
	return f, nil
}

func decodeFile(path string) (image.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// flatten composites img over an opaque matte so the result has no alpha.
func flatten(img *image.RGBA, matte color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(matte), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
