package deck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/card"
)

// DataSuffix marks card-data files in the cards namespace
const DataSuffix = ".yml"

var (
	// ErrNoCardData is returned when the cards namespace holds no card-data files
	ErrNoCardData = errors.New("no card data found")
	// ErrVanished means a listed card-data file was deleted before it could be read
	ErrVanished = errors.New("card data vanished upstream")
)

// Deck is every card of one build, in enumeration order
type Deck struct {
	Files []string // Card-data paths in the order they were read
	Cards []card.Card
}

// Source pairs a card-data file with the records it holds
type Source struct {
	Path    string
	Records []card.Record
}

// Files returns the card-data paths of a collection sorted by path
func Files(cards *cache.Collection) []string {
	files := slices.Collect(cards.Filter(DataSuffix))
	sort.Strings(files)
	return files
}

// Load reads every card-data file in path order and numbers the cards from 1
// across all files, in file then document order
func Load(ctx context.Context, cards *cache.Collection, logger *slog.Logger) (*Deck, error) {
	if logger == nil {
		logger = slog.Default()
	}

	files := Files(cards)
	if len(files) == 0 {
		return nil, ErrNoCardData
	}

	d := &Deck{}
	for _, path := range files {
		logger.Info("reading card data", slog.String("path", path))

		src, err := ReadSource(ctx, cards, path)
		if errors.Is(err, ErrVanished) {
			logger.Warn("skipping card data deleted upstream", slog.String("path", path))
			continue
		}
		if err != nil {
			return nil, err
		}

		d.Files = append(d.Files, path)
		for _, r := range src.Records {
			d.Cards = append(d.Cards, card.New(r, len(d.Cards)+1))
		}
	}

	if len(d.Files) == 0 {
		return nil, ErrNoCardData
	}

	logger.Info("deck loaded", slog.Int("files", len(d.Files)), slog.Int("cards", len(d.Cards)))
	return d, nil
}

// ReadSource downloads and parses one card-data file. A file that is gone
// upstream is ErrVanished; any other error means it could not be read.
func ReadSource(ctx context.Context, cards *cache.Collection, path string) (Source, error) {
	res := cards.Get(ctx, path)
	switch res.Status {
	case cache.Hit:
	case cache.Transient:
		return Source{}, fmt.Errorf("error fetching %s: %w", path, res.Err)
	default:
		return Source{}, fmt.Errorf("%w: %s", ErrVanished, path)
	}

	data, err := os.ReadFile(res.Path)
	if err != nil {
		return Source{}, fmt.Errorf("error reading %s: %w", path, err)
	}

	records, err := card.ParseAll(data)
	if err != nil {
		return Source{}, fmt.Errorf("error parsing %s: %w", path, err)
	}
	return Source{Path: path, Records: records}, nil
}

// Find looks a card up by its index, base name or slug
func (d *Deck) Find(key string) (card.Card, error) {
	for _, c := range d.Cards {
		if fmt.Sprint(c.Index) == key || c.BaseName == key || card.Slugify(c.Name) == key || c.Name == key {
			return c, nil
		}
	}
	return card.Card{}, fmt.Errorf("card not found: %s", key)
}
