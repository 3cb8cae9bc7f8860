package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/store"
)

func TestClean(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cards/a.yml", "/cards/a.yml"},
		{"/cards//a.yml", "/cards/a.yml"},
		{"/cards/../art/x.png", "/art/x.png"},
		{" /art/ ", "/art"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, store.Clean(tt.in), tt.in)
	}
}

func TestWithin(t *testing.T) {
	assert.True(t, store.Within("/cards/a.yml", "/cards"))
	assert.True(t, store.Within("/cards/a.yml", "/cards/"))
	assert.False(t, store.Within("/cardsx/a.yml", "/cards"))
	assert.False(t, store.Within("/cards", "/cards"))
	assert.False(t, store.Within("/cards/../art/a.png", "/cards"))
}

func TestDir(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.NewDir(root)

	require.NoError(t, s.Put(ctx, "/cards/001.yml", []byte("name: a"), false))
	require.NoError(t, s.Put(ctx, "/cards/002.yml", []byte("name: b"), false))

	entries, err := s.List(ctx, "/cards/")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/cards/001.yml", entries[0].Path)
	assert.Equal(t, "/cards/002.yml", entries[1].Path)
	assert.NotEqual(t, entries[0].Revision, entries[1].Revision)

	before, err := s.Revision(ctx, "/cards")
	require.NoError(t, err)

	err = s.Put(ctx, "/cards/001.yml", []byte("name: changed"), false)
	assert.ErrorIs(t, err, store.ErrExists)

	require.NoError(t, s.Put(ctx, "/cards/001.yml", []byte("name: changed"), true))
	after, err := s.Revision(ctx, "/cards")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)

	data, err := s.Fetch(ctx, "cards/001.yml")
	require.NoError(t, err)
	assert.Equal(t, "name: changed", string(data))

	_, err = s.Fetch(ctx, "/cards/missing.yml")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.List(ctx, "/art/")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = os.Stat(filepath.Join(root, "cards", "001.yml"))
	assert.NoError(t, err)
}

func TestDirRevisionTracksDeletion(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := store.NewDir(root)

	require.NoError(t, s.Put(ctx, "/art/a.png", []byte("a"), false))
	require.NoError(t, s.Put(ctx, "/art/b.png", []byte("b"), false))
	before, err := s.Revision(ctx, "/art")
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "art", "b.png")))
	after, err := s.Revision(ctx, "/art")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	r1 := m.Set("/graphics/font.ttf", []byte("font"))
	dir1, err := m.Revision(ctx, "/graphics")
	require.NoError(t, err)

	rev, err := m.Revision(ctx, "/graphics/font.ttf")
	require.NoError(t, err)
	assert.Equal(t, r1, rev)

	r2 := m.Set("/graphics/font.ttf", []byte("font v2"))
	assert.NotEqual(t, r1, r2)
	dir2, err := m.Revision(ctx, "/graphics")
	require.NoError(t, err)
	assert.NotEqual(t, dir1, dir2)

	m.FailFetch("/graphics/font.ttf", os.ErrDeadlineExceeded)
	_, err = m.Fetch(ctx, "/graphics/font.ttf")
	assert.ErrorIs(t, err, os.ErrDeadlineExceeded)
	m.FailFetch("/graphics/font.ttf", nil)

	data, err := m.Fetch(ctx, "/graphics/font.ttf")
	require.NoError(t, err)
	assert.Equal(t, "font v2", string(data))
	assert.Equal(t, 2, m.Fetches("/graphics/font.ttf"))

	m.Delete("/graphics/font.ttf")
	_, err = m.Revision(ctx, "/graphics")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
