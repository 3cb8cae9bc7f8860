// Package layout breaks text into lines that fit a fixed-width rectangle.
package layout

import (
	"image"
	"strings"
)

// Metrics measures rendered text.
type Metrics interface {
	// Width is the rendered width of s.
	Width(s string) int
	// Height is the height of the reference glyph used for line spacing.
	Height() int
}

// Line is one run of text placed at its top-left corner.
type Line struct {
	Text string
	At   image.Point
}

// Engine lays text out from Origin towards a right bound. Lines advance by
// the reference glyph height plus Leading.
type Engine struct {
	Origin  image.Point
	Right   int
	Leading int
}

// MaxWidth is the space available for one line.
func (e Engine) MaxWidth() int {
	return e.Right - e.Origin.X
}

// Layout wraps text greedily. Each explicit line break starts a new line; a
// blank line still takes up one line. A token wider than the rectangle is
// placed on a line of its own. Text running past the bottom is not clipped.
func (e Engine) Layout(text string, m Metrics) []Line {
	maxWidth := e.MaxWidth()
	lineHeight := m.Height() + e.Leading
	y := e.Origin.Y

	var lines []Line
	for _, explicit := range strings.Split(text, "\n") {
		tokens := strings.Fields(explicit)
		if len(tokens) == 0 {
			tokens = []string{" "}
		}

		for len(tokens) > 0 {
			n := fit(tokens, maxWidth, m)
			lines = append(lines, Line{
				Text: strings.Join(tokens[:n], " "),
				At:   image.Pt(e.Origin.X, y),
			})
			y += lineHeight
			tokens = tokens[n:]
		}
	}
	return lines
}

// fit returns how many leading tokens fit in maxWidth, dropping tokens from
// the end of the run until it fits. It never returns less than one.
func fit(tokens []string, maxWidth int, m Metrics) int {
	n := len(tokens)
	for n > 1 && m.Width(strings.Join(tokens[:n], " ")) > maxWidth {
		n--
	}
	return n
}
