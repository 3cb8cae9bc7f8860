package card_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcanaland/builderbot/internal/card"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{"Fire Bolt", "fire_bolt"},
		{"Ka-Boom!", "kaboom"},
		{"Dragon's Hoard, Vol. 2", "dragons_hoard_vol_2"},
		{`"Quoted" (Name)`, "quoted_name"},
		{"under_score", "under_score"},
		{"Café", "café"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, card.Slugify(tt.name), tt.name)
	}
}

func TestNewNames(t *testing.T) {
	c := card.New(card.Record{Name: "Fire Bolt", Quantity: 2}, 7)
	assert.Equal(t, 7, c.Index)
	assert.Equal(t, "fire_bolt.png", c.ArtName)
	assert.Equal(t, "007_fire_bolt", c.BaseName)

	c = card.New(card.Record{Name: "X"}, 1234)
	assert.Equal(t, "1234_x", c.BaseName)
}

func TestRulesText(t *testing.T) {
	cost, combat := "3", "2/2"

	full := card.New(card.Record{
		Name: "Golem", Types: "Creature", Cost: &cost, Combat: &combat, Rules: "Stomp.", Quantity: 1,
	}, 1)
	assert.Equal(t, "Creature\nCost: 3\nCombat: 2/2\n\nStomp.", full.RulesText())

	bare := card.New(card.Record{Name: "Zap", Types: "Spell", Rules: "Deal 1.", Quantity: 1}, 2)
	assert.Equal(t, "Spell\n\nDeal 1.", bare.RulesText())
}

func TestParseAll(t *testing.T) {
	data := []byte(`name: Golem
types: Creature
cost: 3
combat: 2/2
rules: Stomp.
quantity: 4
---
name: Zap
types: Spell
rules: |
  Deal 1 damage.
  Draw a card.
quantity: 1
---
`)
	records, err := card.ParseAll(data)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Golem", records[0].Name)
	require.NotNil(t, records[0].Cost)
	assert.Equal(t, "3", *records[0].Cost)
	assert.Equal(t, 4, records[0].Quantity)

	assert.Nil(t, records[1].Cost)
	assert.Nil(t, records[1].Combat)
	assert.Equal(t, "Deal 1 damage.\nDraw a card.\n", records[1].Rules)
}

func TestParseAllRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero quantity", "name: A\nquantity: 0\n"},
		{"missing quantity", "name: A\n"},
		{"negative quantity", "name: A\nquantity: -2\n"},
		{"fractional quantity", "name: A\nquantity: 2.5\n"},
		{"exponent quantity", "name: A\nquantity: 0.9e1\n"},
		{"quoted quantity", "name: A\nquantity: \"3\"\n"},
		{"list quantity", "name: A\nquantity: [1]\n"},
		{"missing name", "types: Spell\nquantity: 1\n"},
		{"not a mapping", "- a\n- b\n"},
		{"broken yaml", "name: [unclosed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := card.ParseAll([]byte(tt.data))
			assert.ErrorIs(t, err, card.ErrInvalidRecord)
		})
	}
}

func TestParseAllEmpty(t *testing.T) {
	records, err := card.ParseAll([]byte("---\n---\n"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
