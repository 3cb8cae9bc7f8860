package store

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Memory is an in-process RevisionedStore. Every write bumps a global
// counter that becomes the file's revision. It records fetch counts and can
// be told to fail individual paths, which makes it the store used by tests.
type Memory struct {
	mu       sync.Mutex
	files    map[string]memFile
	seq      int
	fetches  map[string]int
	failures map[string]error
}

type memFile struct {
	data []byte
	rev  string
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string]memFile),
		fetches:  make(map[string]int),
		failures: make(map[string]error),
	}
}

// Set writes p unconditionally and returns the new revision.
func (m *Memory) Set(p string, data []byte) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.set(Clean(p), data)
}

func (m *Memory) set(p string, data []byte) string {
	m.seq++
	rev := "r" + strconv.Itoa(m.seq)
	m.files[p] = memFile{data: append([]byte(nil), data...), rev: rev}
	return rev
}

// Delete removes p.
func (m *Memory) Delete(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, Clean(p))
}

// FailFetch makes every Fetch of p return err until cleared with a nil err.
func (m *Memory) FailFetch(p string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, Clean(p))
		return
	}
	m.failures[Clean(p)] = err
}

// Fetches returns how many times p was fetched.
func (m *Memory) Fetches(p string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetches[Clean(p)]
}

// Bytes returns the stored data for p, or nil.
func (m *Memory) Bytes(p string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[Clean(p)]
	if !ok {
		return nil
	}
	return f.data
}

// List returns files below prefix in path order.
func (m *Memory) List(ctx context.Context, prefix string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []Entry
	for p, f := range m.files {
		if Within(p, prefix) {
			entries = append(entries, Entry{Path: p, Revision: f.rev})
		}
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("list %s: %w", prefix, ErrNotFound)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Revision returns a file revision or, for a directory, the same aggregate
// hash Dir uses.
func (m *Memory) Revision(ctx context.Context, p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = Clean(p)
	if f, ok := m.files[p]; ok {
		return f.rev, nil
	}

	var entries []Entry
	for fp, f := range m.files {
		if Within(fp, p) {
			entries = append(entries, Entry{Path: fp, Revision: f.rev})
		}
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("revision %s: %w", p, ErrNotFound)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return treeRevision(entries), nil
}

// Fetch returns a copy of the stored bytes.
func (m *Memory) Fetch(ctx context.Context, p string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = Clean(p)
	m.fetches[p]++
	if err := m.failures[p]; err != nil {
		return nil, fmt.Errorf("fetch %s: %w", p, err)
	}
	f, ok := m.files[p]
	if !ok {
		return nil, fmt.Errorf("fetch %s: %w", p, ErrNotFound)
	}
	return append([]byte(nil), f.data...), nil
}

// Put stores data at p.
func (m *Memory) Put(ctx context.Context, p string, data []byte, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p = Clean(p)
	if _, ok := m.files[p]; ok && !overwrite {
		return fmt.Errorf("put %s: %w", p, ErrExists)
	}
	m.set(p, data)
	return nil
}
