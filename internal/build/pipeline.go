// Package build turns the cached card data into print artifacts and decides
// whether a build is needed at all.
package build

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/deck"
	"github.com/arcanaland/builderbot/internal/store"
)

// Renderer draws one card.
type Renderer interface {
	Render(ctx context.Context, c card.Card) (*image.RGBA, error)
}

// Options places and encodes the artifacts of one build.
type Options struct {
	BuildPath   string // store path every artifact goes under
	OutputDir   string // local mirror of the written artifacts
	JPEGQuality int
	DPI         float64
}

// Failure records a card that could not be built.
type Failure struct {
	Index int
	Name  string
	Err   error
}

func (f Failure) Error() string {
	return fmt.Sprintf("card %03d %q: %v", f.Index, f.Name, f.Err)
}

// Report summarizes a pipeline run.
type Report struct {
	BuildPath string
	Cards     int
	Built     []string
	Failed    []Failure
}

// Pipeline renders every card in the cache and writes its artifacts.
type Pipeline struct {
	store    store.RevisionedStore
	cache    *cache.Cache
	renderer Renderer
	opts     Options
	log      *slog.Logger
}

// NewPipeline wires a pipeline for one build.
func NewPipeline(s store.RevisionedStore, c *cache.Cache, r Renderer, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		store:    s,
		cache:    c,
		renderer: r,
		opts:     opts,
		log:      logger.With(slog.String("component", "build"), slog.String("build", opts.BuildPath)),
	}
}

// Run enumerates the cards and builds them one at a time. Enumeration
// errors abort the run; a card that fails is logged, reported and skipped.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	p.log.Info("starting build")

	d, err := deck.Load(ctx, p.cache.Cards, p.log)
	if err != nil {
		return nil, fmt.Errorf("enumerating cards: %w", err)
	}

	report := &Report{BuildPath: p.opts.BuildPath, Cards: len(d.Cards)}
	for _, c := range d.Cards {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.buildCard(ctx, c); err != nil {
			p.log.Error("card failed",
				slog.Int("index", c.Index),
				slog.String("name", c.Name),
				slog.Any("error", err),
			)
			report.Failed = append(report.Failed, Failure{Index: c.Index, Name: c.Name, Err: err})
			continue
		}
		report.Built = append(report.Built, c.BaseName)
	}

	p.log.Info("build finished",
		slog.Int("cards", report.Cards),
		slog.Int("built", len(report.Built)),
		slog.Int("failed", len(report.Failed)),
	)
	return report, nil
}

// buildCard holds the card's raster only for the duration of the call.
func (p *Pipeline) buildCard(ctx context.Context, c card.Card) error {
	img, err := p.renderer.Render(ctx, c)
	if err != nil {
		return fmt.Errorf("rendering: %w", err)
	}
	return p.emit(ctx, c, img)
}

// ArtifactPaths returns the store paths of a card's single JPEG, single PDF
// and duplicates PDF.
func ArtifactPaths(buildPath string, c card.Card) (jpg, single, duplicates string) {
	base := strings.TrimSuffix(buildPath, "/")
	return fmt.Sprintf("%s/singles/%s.jpg", base, c.BaseName),
		fmt.Sprintf("%s/singles/%s.pdf", base, c.BaseName),
		fmt.Sprintf("%s/duplicates/%s.pdf", base, c.BaseName)
}

func (p *Pipeline) emit(ctx context.Context, c card.Card, img *image.RGBA) error {
	jpg, err := EncodeJPEG(img, p.opts.JPEGQuality)
	if err != nil {
		return err
	}
	size := img.Bounds().Size()
	single, err := EncodePDF(jpg, size, p.opts.DPI, 1)
	if err != nil {
		return err
	}
	duplicates, err := EncodePDF(jpg, size, p.opts.DPI, c.Quantity)
	if err != nil {
		return err
	}

	jpgPath, singlePath, duplicatesPath := ArtifactPaths(p.opts.BuildPath, c)
	for _, a := range []struct {
		path string
		data []byte
	}{
		{jpgPath, jpg},
		{singlePath, single},
		{duplicatesPath, duplicates},
	} {
		if err := p.write(ctx, a.path, a.data); err != nil {
			return err
		}
	}

	p.log.Info("card built", slog.Int("index", c.Index), slog.String("name", c.BaseName), slog.Int("quantity", c.Quantity))
	return nil
}

// write uploads an artifact, then mirrors it locally. Neither copy of an
// earlier artifact at the same path is replaced.
func (p *Pipeline) write(ctx context.Context, path string, data []byte) error {
	if err := p.store.Put(ctx, path, data, false); err != nil {
		return fmt.Errorf("uploading %s: %w", path, err)
	}

	local := filepath.Join(p.opts.OutputDir, filepath.FromSlash(strings.TrimPrefix(store.Clean(path), "/")))
	if err := os.MkdirAll(filepath.Dir(local), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.OpenFile(local, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("writing %s: %w", local, store.ErrExists)
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", local, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", local, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", local, err)
	}
	return nil
}
