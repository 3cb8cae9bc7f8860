package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/arcanaland/builderbot/internal/store"
)

// Namespace names tracked by a Cache.
const (
	Art      = "art"
	Cards    = "cards"
	Graphics = "graphics"
)

// Namespaces lists every tracked namespace in a fixed order.
var Namespaces = []string{Art, Cards, Graphics}

// Cache groups the three namespace collections under one local root.
type Cache struct {
	Root     string
	Art      *Collection
	Cards    *Collection
	Graphics *Collection
}

// New builds a cache rooted at root. Call Load before use.
func New(root string, s store.RevisionedStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "cache"))
	return &Cache{
		Root:     root,
		Art:      NewCollection(root, Art, s, logger),
		Cards:    NewCollection(root, Cards, s, logger),
		Graphics: NewCollection(root, Graphics, s, logger),
	}
}

// Collections returns the collections in namespace order.
func (c *Cache) Collections() []*Collection {
	return []*Collection{c.Art, c.Cards, c.Graphics}
}

// Collection looks a collection up by namespace name.
func (c *Cache) Collection(name string) (*Collection, error) {
	for _, col := range c.Collections() {
		if col.Name() == name {
			return col, nil
		}
	}
	return nil, fmt.Errorf("unknown namespace: %s", name)
}

// Load creates the root directory and loads every collection.
func (c *Cache) Load(ctx context.Context) error {
	if err := os.MkdirAll(c.Root, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	for _, col := range c.Collections() {
		if err := col.Load(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Save persists every collection's manifest.
func (c *Cache) Save() error {
	var errs []error
	for _, col := range c.Collections() {
		errs = append(errs, col.Save())
	}
	return errors.Join(errs...)
}
