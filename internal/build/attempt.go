package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/config"
	"github.com/arcanaland/builderbot/internal/fingerprint"
	"github.com/arcanaland/builderbot/internal/lease"
	"github.com/arcanaland/builderbot/internal/render"
	"github.com/arcanaland/builderbot/internal/store"
)

const leaseKey = "builderbot:fingerprint"

// Outcome describes one build attempt.
type Outcome struct {
	Skipped     bool
	Reason      string
	Fingerprint fingerprint.Fingerprint
	BuildPath   string
	Report      *Report
}

// RendererFactory builds the renderer for one build's cache.
type RendererFactory func(c *cache.Cache) (Renderer, error)

// Builder runs build attempts against one store.
type Builder struct {
	cfg         *config.Config
	store       store.RevisionedStore
	locker      lease.Locker
	log         *slog.Logger
	now         func() time.Time
	newRenderer RendererFactory
}

// Option customizes a Builder.
type Option func(*Builder)

// WithLocker guards the fingerprint check with l instead of no lock.
func WithLocker(l lease.Locker) Option {
	return func(b *Builder) { b.locker = l }
}

// WithClock replaces the clock used to name build paths.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithRenderer replaces the card renderer.
func WithRenderer(f RendererFactory) Option {
	return func(b *Builder) { b.newRenderer = f }
}

// NewBuilder returns a Builder that renders with the configured layout.
func NewBuilder(cfg *config.Config, s store.RevisionedStore, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Builder{
		cfg:    cfg,
		store:  s,
		locker: lease.Noop{},
		log:    logger,
		now:    time.Now,
	}
	b.newRenderer = func(c *cache.Cache) (Renderer, error) {
		return render.New(cfg.Layout, c, b.log)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Attempt builds if the sources changed since the last build, or
// unconditionally with force. The new fingerprint is persisted before any
// rendering starts so triggers arriving mid-build do not rebuild the same
// state.
func (b *Builder) Attempt(ctx context.Context, force bool) (*Outcome, error) {
	latest, reason, err := b.decide(ctx, force)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		b.log.Info("build skipped", slog.String("reason", reason))
		return &Outcome{Skipped: true, Reason: reason, Fingerprint: latest}, nil
	}

	buildPath := fmt.Sprintf("%s/build_%d", b.cfg.BuildsPrefix, b.now().Unix())
	outcome := &Outcome{Fingerprint: latest, BuildPath: buildPath}

	c := cache.New(b.cfg.CacheDir, b.store, b.log)
	if err := c.Load(ctx); err != nil {
		return outcome, fmt.Errorf("loading cache: %w", err)
	}

	report, runErr := b.run(ctx, c, buildPath)
	outcome.Report = report

	if err := c.Save(); err != nil {
		b.log.Error("saving cache manifests", slog.Any("error", err))
		runErr = errors.Join(runErr, err)
	}
	return outcome, runErr
}

func (b *Builder) run(ctx context.Context, c *cache.Cache, buildPath string) (*Report, error) {
	r, err := b.newRenderer(c)
	if err != nil {
		return nil, fmt.Errorf("creating renderer: %w", err)
	}
	p := NewPipeline(b.store, c, r, Options{
		BuildPath:   buildPath,
		OutputDir:   b.cfg.OutputDir,
		JPEGQuality: b.cfg.Layout.JPEGQuality,
		DPI:         b.cfg.Layout.DPI,
	}, b.log)
	return p.Run(ctx)
}

// decide compares and persists the fingerprint under the lease. A non-empty
// reason means skip.
func (b *Builder) decide(ctx context.Context, force bool) (fingerprint.Fingerprint, string, error) {
	l, err := b.locker.Acquire(ctx, leaseKey, b.cfg.LeaseTTL)
	if errors.Is(err, lease.ErrHeld) {
		return nil, "another attempt is deciding", nil
	}
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err := l.Release(context.WithoutCancel(ctx)); err != nil {
			b.log.Warn("releasing lease", slog.Any("error", err))
		}
	}()

	marker := b.cfg.MarkerPath()
	last := fingerprint.Last(ctx, b.store, marker)
	latest, err := fingerprint.Latest(ctx, b.store, cache.Namespaces...)
	if err != nil {
		return nil, "", err
	}

	if !force && last.Equal(latest) {
		return latest, "sources unchanged", nil
	}
	b.log.Info("sources changed", slog.Any("namespaces", last.Diff(latest)), slog.Bool("force", force))

	if err := latest.Save(ctx, b.store, marker); err != nil {
		return nil, "", err
	}
	return latest, "", nil
}
