package validator

import (
	"context"
	"errors"
	"fmt"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/config"
	"github.com/arcanaland/builderbot/internal/deck"
)

type ValidationResults struct {
	Errors   []string
	Warnings []string
	Cards    int
}

type Validator struct {
	Cache   *cache.Cache
	Layout  config.Layout
	Results ValidationResults
}

func NewValidator(c *cache.Cache, layout config.Layout) *Validator {
	return &Validator{
		Cache:   c,
		Layout:  layout,
		Results: ValidationResults{},
	}
}

// Validate checks that every card could be built from the loaded cache.
// Unlike a build it keeps going after a bad file so all problems are listed.
func (v *Validator) Validate(ctx context.Context) (ValidationResults, error) {
	files := deck.Files(v.Cache.Cards)
	if len(files) == 0 {
		return v.Results, deck.ErrNoCardData
	}

	v.validateGraphics(ctx)

	var cards []card.Card
	for _, path := range files {
		src, err := deck.ReadSource(ctx, v.Cache.Cards, path)
		if errors.Is(err, deck.ErrVanished) {
			v.Results.Warnings = append(v.Results.Warnings, err.Error())
			continue
		}
		if err != nil {
			v.Results.Errors = append(v.Results.Errors, err.Error())
			continue
		}
		if len(src.Records) == 0 {
			v.Results.Warnings = append(v.Results.Warnings, fmt.Sprintf("%s contains no cards", path))
		}
		for _, r := range src.Records {
			cards = append(cards, card.New(r, len(cards)+1))
		}
	}

	v.validateCards(ctx, cards)
	v.Results.Cards = len(cards)
	return v.Results, nil
}

// validateGraphics checks the shared template assets
func (v *Validator) validateGraphics(ctx context.Context) {
	if res := v.Cache.Graphics.Get(ctx, v.Layout.Font); !res.OK() {
		v.Results.Errors = append(v.Results.Errors,
			fmt.Sprintf("font %s not available (%s)", v.Layout.Font, res.Status))
	}
	if res := v.Cache.Graphics.Get(ctx, v.Layout.Overlay); !res.OK() {
		v.Results.Warnings = append(v.Results.Warnings,
			fmt.Sprintf("overlay %s not available (%s), cards will render without it", v.Layout.Overlay, res.Status))
	}
}

// validateCards checks art and name collisions
func (v *Validator) validateCards(ctx context.Context, cards []card.Card) {
	seen := make(map[string]int)
	for _, c := range cards {
		if res := v.Cache.Art.Get(ctx, c.ArtName); !res.OK() {
			v.Results.Errors = append(v.Results.Errors,
				fmt.Sprintf("card %03d %q: art %s not available (%s)", c.Index, c.Name, c.ArtName, res.Status))
		}

		if c.Types == "" {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card %03d %q has no types line", c.Index, c.Name))
		}

		slug := card.Slugify(c.Name)
		if first, ok := seen[slug]; ok {
			v.Results.Warnings = append(v.Results.Warnings,
				fmt.Sprintf("card %03d %q shares art %s with card %03d", c.Index, c.Name, c.ArtName, first))
			continue
		}
		seen[slug] = c.Index
	}
}
