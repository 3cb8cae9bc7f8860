package card

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidRecord marks a card-data document that cannot be built.
var ErrInvalidRecord = errors.New("invalid card record")

// Record is one card as written in a card-data file
type Record struct {
	Name     string  `yaml:"name"`
	Types    string  `yaml:"types"`
	Cost     *string `yaml:"cost"`   // Omitted from the rules text when absent
	Combat   *string `yaml:"combat"` // Omitted from the rules text when absent
	Rules    string  `yaml:"rules"`
	Flavor   string  `yaml:"flavor"`
	Quantity int     `yaml:"quantity"`
}

// Validate checks the fields a build depends on
func (r Record) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRecord)
	}
	if r.Quantity < 1 {
		return fmt.Errorf("%w: %s: quantity must be a positive integer, got %d", ErrInvalidRecord, r.Name, r.Quantity)
	}
	return nil
}

// Card is a record placed in a build
type Card struct {
	Record
	Index    int    // 1-based position in the build's enumeration order
	ArtName  string // Background asset in the art namespace
	BaseName string // Artifact file name without extension
}

// New places a record at a 1-based index
func New(r Record, index int) Card {
	slug := Slugify(r.Name)
	return Card{
		Record:   r,
		Index:    index,
		ArtName:  slug + ".png",
		BaseName: fmt.Sprintf("%03d_%s", index, slug),
	}
}

// RulesText assembles the text drawn in the rules box: type line, optional
// cost and combat lines, a blank line, then the rules body
func (c Card) RulesText() string {
	var b strings.Builder
	b.WriteString(c.Types)
	b.WriteString("\n")
	if c.Cost != nil {
		fmt.Fprintf(&b, "Cost: %s\n", *c.Cost)
	}
	if c.Combat != nil {
		fmt.Fprintf(&b, "Combat: %s\n", *c.Combat)
	}
	b.WriteString("\n")
	b.WriteString(c.Rules)
	return b.String()
}

// removedChars are stripped from names when building file names
const removedChars = "`~!@#$%^&*()-=+{}[]|\\;:'<>,./?\""

// Slugify lowercases a name, turns spaces into underscores and drops
// punctuation
func Slugify(name string) string {
	s := strings.ToLower(norm.NFC.String(name))
	s = strings.ReplaceAll(s, " ", "_")
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(removedChars, r) {
			return -1
		}
		return r
	}, s)
}
