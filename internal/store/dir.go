package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// Dir is a RevisionedStore backed by a local directory tree. File revisions
// are content hashes; a directory's revision hashes the sorted revisions of
// every file below it, so any change underneath changes the directory.
type Dir struct {
	Root string
}

// NewDir returns a store rooted at root.
func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

func (d *Dir) local(p string) string {
	return filepath.Join(d.Root, filepath.FromSlash(Clean(p)))
}

// List walks every regular file below prefix.
func (d *Dir) List(ctx context.Context, prefix string) ([]Entry, error) {
	base := d.local(prefix)
	info, err := os.Stat(base)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("list %s: %w", prefix, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %v", prefix, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("list %s: not a directory", prefix)
	}

	var entries []Entry
	err = filepath.WalkDir(base, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() || !de.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, p)
		if err != nil {
			return err
		}
		rev, err := fileRevision(p)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Path: Clean(filepath.ToSlash(rel)), Revision: rev})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Revision returns a file's content hash or a directory's aggregate hash.
func (d *Dir) Revision(ctx context.Context, p string) (string, error) {
	info, err := os.Stat(d.local(p))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("revision %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("revision %s: %v", p, err)
	}
	if !info.IsDir() {
		return fileRevision(d.local(p))
	}

	entries, err := d.List(ctx, p)
	if err != nil {
		return "", err
	}
	return treeRevision(entries), nil
}

// Fetch reads a file.
func (d *Dir) Fetch(ctx context.Context, p string) ([]byte, error) {
	data, err := os.ReadFile(d.local(p))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fetch %s: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %v", p, err)
	}
	return data, nil
}

// Put writes through a temporary file. Without overwrite the final step is
// a hard link, which fails if the destination already exists.
func (d *Dir) Put(ctx context.Context, p string, data []byte, overwrite bool) error {
	dst := d.local(p)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("put %s: %v", p, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".put-*")
	if err != nil {
		return fmt.Errorf("put %s: %v", p, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("put %s: %v", p, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("put %s: %v", p, err)
	}

	if overwrite {
		if err := os.Rename(tmp.Name(), dst); err != nil {
			return fmt.Errorf("put %s: %v", p, err)
		}
		return nil
	}
	if err := os.Link(tmp.Name(), dst); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("put %s: %w", p, ErrExists)
		}
		return fmt.Errorf("put %s: %v", p, err)
	}
	return nil
}

func fileRevision(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:16]), nil
}

// treeRevision hashes (path, revision) pairs in path order.
func treeRevision(entries []Entry) string {
	h := blake3.New()
	for _, e := range entries {
		h.Write([]byte(e.Path))
		h.Write([]byte{0})
		h.Write([]byte(e.Revision))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)[:16])
}
