package render

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/nfnt/resize"
)

// Preview converts an image to ANSI art, width columns by height rows.
// Each cell is an upper half block: top pixels as foreground, bottom pixels
// as background.
func Preview(img image.Image, width, height int) string {
	// Resize image to desired dimensions (doubled for half-block characters)
	resized := resize.Resize(uint(width*2), uint(height*2), img, resize.Lanczos3)

	var buffer strings.Builder
	for y := 0; y < height*2; y += 2 {
		for x := 0; x < width*2; x += 2 {
			upper := averageColor(colorAt(resized, x, y), colorAt(resized, x+1, y))
			lower := averageColor(colorAt(resized, x, y+1), colorAt(resized, x+1, y+1))
			buffer.WriteString(ansiCell('▀', upper, lower))
		}
		buffer.WriteString("\n")
	}
	return buffer.String()
}

// colorAt returns the color at a specific coordinate, black when out of bounds
func colorAt(img image.Image, x, y int) colorful.Color {
	var c color.Color = color.RGBA{0, 0, 0, 255}
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		c = img.At(x, y)
	}
	cf, _ := colorful.MakeColor(c)
	return cf
}

// averageColor calculates the average of multiple colors
func averageColor(colors ...colorful.Color) colorful.Color {
	var r, g, b float64
	for _, c := range colors {
		r += c.R
		g += c.G
		b += c.B
	}
	count := float64(len(colors))
	return colorful.Color{R: r / count, G: g / count, B: b / count}
}

// ansiCell formats a character with 24-bit foreground and background codes
func ansiCell(char rune, fg, bg colorful.Color) string {
	r1, g1, b1 := fg.Clamped().RGB255()
	r2, g2, b2 := bg.Clamped().RGB255()
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm%c\x1b[0m",
		r1, g1, b1, r2, g2, b2, char)
}
