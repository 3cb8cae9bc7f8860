// Package cache mirrors namespaces of a revisioned store into a local
// directory, downloading a file only when its remote revision differs from
// the one already on disk.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arcanaland/builderbot/internal/store"
)

// Status classifies the outcome of a Get.
type Status int

const (
	// Miss means the file is confirmed absent upstream.
	Miss Status = iota
	// Hit means the file is mirrored locally at Result.Path.
	Hit
	// Transient means the file exists upstream but could not be mirrored.
	Transient
)

func (s Status) String() string {
	switch s {
	case Hit:
		return "hit"
	case Transient:
		return "transient"
	default:
		return "miss"
	}
}

// Result is the outcome of resolving a path through a Collection.
type Result struct {
	Status Status
	Path   string // local file, set on Hit
	Err    error  // cause, set on Transient
}

// OK reports whether the result is a Hit.
func (r Result) OK() bool {
	return r.Status == Hit
}

// Entry tracks the remote and cached revision of one path. An empty string
// means absent.
type Entry struct {
	Remote string
	Cached string
}

// Collection mirrors one namespace of a store.
type Collection struct {
	name    string
	root    string
	store   store.RevisionedStore
	log     *slog.Logger
	entries map[string]*Entry

	manifestLoaded bool
}

// NewCollection returns an empty collection for namespace name. Nothing is
// read until Load.
func NewCollection(root, name string, s store.RevisionedStore, logger *slog.Logger) *Collection {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection{
		name:    name,
		root:    root,
		store:   s,
		log:     logger.With(slog.String("namespace", name)),
		entries: make(map[string]*Entry),
	}
}

// Name returns the namespace.
func (c *Collection) Name() string {
	return c.name
}

func (c *Collection) prefix() string {
	return "/" + c.name + "/"
}

// ManifestPath is where the cached revisions of this namespace persist.
func (c *Collection) ManifestPath() string {
	return filepath.Join(c.root, c.name+".cached.yml")
}

func (c *Collection) entry(p string) *Entry {
	e, ok := c.entries[p]
	if !ok {
		e = &Entry{}
		c.entries[p] = e
	}
	return e
}

// Load refreshes remote revisions from the store listing. Paths that are
// no longer listed keep their cached revision but lose their remote one.
// The first Load also merges the persisted manifest.
func (c *Collection) Load(ctx context.Context) error {
	listed, err := c.store.List(ctx, c.prefix())
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("listing %s: %w", c.name, err)
	}

	for _, e := range c.entries {
		e.Remote = ""
	}
	for _, le := range listed {
		c.entry(store.Clean(le.Path)).Remote = le.Revision
	}
	c.log.Debug("listed namespace", slog.Int("files", len(listed)))

	if c.manifestLoaded {
		return nil
	}
	if err := c.loadManifest(); err != nil {
		return err
	}
	c.manifestLoaded = true
	return nil
}

func (c *Collection) loadManifest() error {
	data, err := os.ReadFile(c.ManifestPath())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s manifest: %w", c.name, err)
	}

	var cached map[string]string
	if err := yaml.Unmarshal(data, &cached); err != nil {
		return fmt.Errorf("decoding %s manifest: %w", c.name, err)
	}

	for p, rev := range cached {
		p = store.Clean(p)
		if rev == "" || !store.Within(p, c.prefix()) {
			continue
		}
		// The manifest can outlive the mirrored bytes.
		if _, err := os.Stat(c.local(p)); err != nil {
			c.log.Debug("dropping manifest entry without local file", slog.String("path", p))
			continue
		}
		c.entry(p).Cached = rev
	}
	return nil
}

func (c *Collection) local(p string) string {
	return filepath.Join(c.root, filepath.FromSlash(strings.TrimPrefix(p, "/")))
}

// normalize prefixes p with the namespace unless it already carries it.
// ok is false when the cleaned path escapes the namespace.
func (c *Collection) normalize(p string) (string, bool) {
	if !strings.HasPrefix(p, c.prefix()) {
		p = c.prefix() + strings.TrimPrefix(p, "/")
	}
	p = store.Clean(p)
	return p, store.Within(p, c.prefix())
}

// Get resolves p to a local file, downloading it when the mirrored revision
// is stale.
func (c *Collection) Get(ctx context.Context, p string) Result {
	p, ok := c.normalize(p)
	if !ok {
		return Result{Status: Miss}
	}

	e, ok := c.entries[p]
	if !ok || e.Remote == "" {
		return Result{Status: Miss}
	}
	if e.Remote != e.Cached {
		if res := c.download(ctx, p, e); !res.OK() {
			return res
		}
	}
	if e.Cached == "" {
		return Result{Status: Miss}
	}
	return Result{Status: Hit, Path: c.local(p)}
}

// download is the only place a fetched revision becomes the cached one.
// Failures are reported, never raised.
func (c *Collection) download(ctx context.Context, p string, e *Entry) Result {
	dst := c.local(p)
	c.log.Info("caching file", slog.String("path", p), slog.String("revision", e.Remote))

	data, err := c.store.Fetch(ctx, p)
	if errors.Is(err, store.ErrNotFound) {
		c.log.Warn("file vanished upstream", slog.String("path", p))
		return Result{Status: Miss}
	}
	if err != nil {
		c.log.Warn("could not fetch file", slog.String("path", p), slog.Any("error", err))
		return Result{Status: Transient, Err: err}
	}

	if err := writeFile(dst, data); err != nil {
		c.log.Warn("could not write cached file", slog.String("path", dst), slog.Any("error", err))
		return Result{Status: Transient, Err: err}
	}

	e.Cached = e.Remote
	return Result{Status: Hit, Path: dst}
}

// Save persists the cached revisions. Remote revisions are never saved.
func (c *Collection) Save() error {
	cached := make(map[string]string, len(c.entries))
	for p, e := range c.entries {
		if e.Cached != "" {
			cached[p] = e.Cached
		}
	}

	data, err := yaml.Marshal(cached)
	if err != nil {
		return fmt.Errorf("encoding %s manifest: %w", c.name, err)
	}
	if err := writeFile(c.ManifestPath(), data); err != nil {
		return fmt.Errorf("writing %s manifest: %w", c.name, err)
	}
	return nil
}

// Filter yields listed paths ending in suffix, in no particular order.
// Entries only known from the manifest are gone upstream and never yielded.
// The sequence can be ranged over more than once.
func (c *Collection) Filter(suffix string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for p, e := range c.entries {
			if e.Remote != "" && strings.HasSuffix(p, suffix) {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Entries returns a path-ordered copy of the tracked entries.
func (c *Collection) Entries() []PathEntry {
	out := make([]PathEntry, 0, len(c.entries))
	for p, e := range c.entries {
		out = append(out, PathEntry{Path: p, Entry: *e})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// PathEntry pairs an Entry with its path.
type PathEntry struct {
	Path string
	Entry
}

// writeFile writes data through a temporary file in the destination
// directory so readers never observe a partial file.
func writeFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".cache-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
