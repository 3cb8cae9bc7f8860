package deck_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/deck"
	"github.com/arcanaland/builderbot/internal/store"
)

func loadCards(t *testing.T, m *store.Memory) *cache.Collection {
	t.Helper()
	c := cache.NewCollection(t.TempDir(), cache.Cards, m, nil)
	require.NoError(t, c.Load(context.Background()))
	return c
}

func TestLoadAssignsOrdinalsAcrossFiles(t *testing.T) {
	m := store.NewMemory()
	// Written out of order to make sure enumeration sorts by path.
	m.Set("/cards/002.yml", []byte(`name: Three
quantity: 1
---
name: Four
quantity: 1
---
name: Five
quantity: 1
`))
	m.Set("/cards/001.yml", []byte(`name: One
quantity: 1
---
name: Two
quantity: 2
`))
	m.Set("/cards/readme.txt", []byte("not card data"))

	d, err := deck.Load(context.Background(), loadCards(t, m), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"/cards/001.yml", "/cards/002.yml"}, d.Files)
	require.Len(t, d.Cards, 5)
	for i, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		assert.Equal(t, i+1, d.Cards[i].Index)
		assert.Equal(t, name, d.Cards[i].Name)
	}
	assert.Equal(t, "005_five", d.Cards[4].BaseName)
}

func TestLoadWithoutCardData(t *testing.T) {
	m := store.NewMemory()
	m.Set("/cards/readme.txt", []byte("nothing here"))

	_, err := deck.Load(context.Background(), loadCards(t, m), nil)
	assert.ErrorIs(t, err, deck.ErrNoCardData)
}

func TestLoadFailsOnMalformedDocument(t *testing.T) {
	m := store.NewMemory()
	m.Set("/cards/001.yml", []byte("name: One\nquantity: 1\n"))
	m.Set("/cards/002.yml", []byte("name: Broken\nquantity: 0\n"))

	_, err := deck.Load(context.Background(), loadCards(t, m), nil)
	assert.ErrorIs(t, err, card.ErrInvalidRecord)
	assert.ErrorContains(t, err, "/cards/002.yml")
}

func TestLoadFailsWhenFileCannotBeFetched(t *testing.T) {
	m := store.NewMemory()
	m.Set("/cards/001.yml", []byte("name: One\nquantity: 1\n"))
	cards := loadCards(t, m)
	m.FailFetch("/cards/001.yml", assert.AnError)

	_, err := deck.Load(context.Background(), cards, nil)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestLoadSkipsFileDeletedAfterListing(t *testing.T) {
	m := store.NewMemory()
	m.Set("/cards/001.yml", []byte("name: One\nquantity: 1\n"))
	m.Set("/cards/002.yml", []byte("name: Two\nquantity: 1\n"))
	cards := loadCards(t, m)
	m.Delete("/cards/001.yml")

	d, err := deck.Load(context.Background(), cards, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/cards/002.yml"}, d.Files)
	require.Len(t, d.Cards, 1)
	assert.Equal(t, "001_two", d.Cards[0].BaseName)
}

func TestLoadWhenEveryFileWasDeleted(t *testing.T) {
	m := store.NewMemory()
	m.Set("/cards/001.yml", []byte("name: One\nquantity: 1\n"))
	cards := loadCards(t, m)
	m.Delete("/cards/001.yml")

	_, err := deck.Load(context.Background(), cards, nil)
	assert.ErrorIs(t, err, deck.ErrNoCardData)
}

func TestFind(t *testing.T) {
	d := &deck.Deck{Cards: []card.Card{
		card.New(card.Record{Name: "Fire Bolt", Quantity: 1}, 1),
		card.New(card.Record{Name: "Ice Wall", Quantity: 1}, 2),
	}}

	for _, key := range []string{"2", "002_ice_wall", "ice_wall", "Ice Wall"} {
		c, err := d.Find(key)
		require.NoError(t, err, key)
		assert.Equal(t, "Ice Wall", c.Name)
	}

	_, err := d.Find("missing")
	assert.Error(t, err)
}
