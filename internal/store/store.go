// Package store defines the revisioned object store capability the builder
// reads sources from and writes artifacts to.
package store

import (
	"context"
	"errors"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when a path does not exist in the store.
	ErrNotFound = errors.New("store: not found")
	// ErrExists is returned by Put when overwrite is false and the path is taken.
	ErrExists = errors.New("store: already exists")
)

// Entry is one file listed from a store, with its current revision.
type Entry struct {
	Path     string
	Revision string
}

// RevisionedStore is a hierarchical store that assigns an opaque revision
// token to every file and directory. Tokens are only ever compared for
// equality.
type RevisionedStore interface {
	// List returns every file below prefix.
	List(ctx context.Context, prefix string) ([]Entry, error)
	// Revision returns the current revision of a file or directory.
	Revision(ctx context.Context, p string) (string, error)
	// Fetch returns the current bytes of a file.
	Fetch(ctx context.Context, p string) ([]byte, error)
	// Put stores data at p. With overwrite false an existing file is an ErrExists.
	Put(ctx context.Context, p string, data []byte, overwrite bool) error
}

// Clean normalizes a store path to an absolute slash path.
func Clean(p string) string {
	return path.Clean("/" + strings.TrimSpace(p))
}

// Within reports whether p lies below dir. Both are cleaned first.
func Within(p, dir string) bool {
	p, dir = Clean(p), Clean(dir)
	if dir == "/" {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}
