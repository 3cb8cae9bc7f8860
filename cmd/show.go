package cmd

import (
	"fmt"
	"os"
	"strings"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/arcanaland/builderbot/internal/build"
	"github.com/arcanaland/builderbot/internal/card"
	"github.com/arcanaland/builderbot/internal/deck"
	"github.com/arcanaland/builderbot/internal/render"
)

var showCmd = &cobra.Command{
	Use:   "show [card]",
	Short: "Render a single card and preview it with ANSI art",
	Long: `Show renders one card from the cached card data and prints it to the terminal
next to its details. Nothing is uploaded to the store.

The card can be given by its ordinal, its base name, its slug or its name.

Examples:
  builderbot show 3
  builderbot show 003_stone_golem
  builderbot show "Stone Golem" --out golem.jpg`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out, _ := cmd.Flags().GetString("out")
		rows, _ := cmd.Flags().GetInt("rows")

		c, err := openCache(ctx, openStore())
		if err != nil {
			return err
		}
		defer saveCache(c)

		d, err := deck.Load(ctx, c.Cards, logger)
		if err != nil {
			return fmt.Errorf("error loading cards: %v", err)
		}
		crd, err := d.Find(args[0])
		if err != nil {
			return err
		}

		r, err := render.New(cfg.Layout, c, logger)
		if err != nil {
			return err
		}
		img, err := r.Render(ctx, crd)
		if err != nil {
			return fmt.Errorf("error rendering card: %w", err)
		}

		if out != "" {
			jpg, err := build.EncodeJPEG(img, cfg.Layout.JPEGQuality)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, jpg, 0644); err != nil {
				return fmt.Errorf("error writing %s: %w", out, err)
			}
		}

		// Keep the card's aspect; a cell is two pixels tall
		size := img.Bounds().Size()
		cols := 2 * rows * size.X / size.Y
		displayCard(crd, render.Preview(img, cols, rows), out)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(showCmd)

	showCmd.Flags().StringP("out", "o", "", "Also write the rendered JPEG to this file")
	showCmd.Flags().Int("rows", 32, "Height of the preview in terminal rows")
}

// wrapText wraps text to a specified width
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var result []string
	currentLine := words[0]
	for _, word := range words[1:] {
		if len(currentLine)+1+len(word) <= width {
			currentLine += " " + word
			continue
		}
		result = append(result, currentLine)
		currentLine = word
	}
	return append(result, currentLine)
}

// displayCard prints the ANSI art with the card details to its right
func displayCard(c card.Card, ansiArt, out string) {
	ansiLines := strings.Split(strings.TrimSuffix(ansiArt, "\n"), "\n")
	maxAnsiWidth := 0
	for _, line := range ansiLines {
		maxAnsiWidth = max(maxAnsiWidth, len([]rune(stripAnsi(line))))
	}

	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		width = 80
	}

	spacing := 4
	infoStartCol := maxAnsiWidth + spacing
	infoWidth := max(width-infoStartCol-2, 20)

	var infoLines []string
	infoLines = append(infoLines, colorize.CyanString("Card:     ")+colorize.HiWhiteString("%s", c.Name))
	infoLines = append(infoLines, colorize.CyanString("Index:    ")+colorize.HiWhiteString("%03d", c.Index))
	infoLines = append(infoLines, colorize.CyanString("File:     ")+colorize.HiWhiteString("%s", c.BaseName))
	infoLines = append(infoLines, colorize.CyanString("Art:      ")+colorize.HiWhiteString("%s", c.ArtName))
	infoLines = append(infoLines, colorize.CyanString("Quantity: ")+colorize.HiWhiteString("%d", c.Quantity))
	if out != "" {
		infoLines = append(infoLines, colorize.CyanString("Saved:    ")+colorize.HiWhiteString("%s", out))
	}

	infoLines = append(infoLines, "", colorize.CyanString("Rules:"))
	for _, para := range strings.Split(c.RulesText(), "\n") {
		infoLines = append(infoLines, wrapText(para, infoWidth)...)
	}
	if c.Flavor != "" {
		infoLines = append(infoLines, "")
		for _, line := range wrapText(c.Flavor, infoWidth) {
			infoLines = append(infoLines, colorize.HiBlackString("%s", line))
		}
	}

	fmt.Println()
	for i := 0; i < max(len(ansiLines), len(infoLines)); i++ {
		fmt.Print("  ")
		if i < len(ansiLines) {
			fmt.Print(ansiLines[i])
			fmt.Print(strings.Repeat(" ", infoStartCol-len([]rune(stripAnsi(ansiLines[i])))))
		} else {
			fmt.Print(strings.Repeat(" ", infoStartCol))
		}
		if i < len(infoLines) {
			fmt.Print(infoLines[i])
		}
		fmt.Println()
	}
	fmt.Println()
}

// stripAnsi removes ANSI escape sequences from a string
func stripAnsi(s string) string {
	var result strings.Builder
	inEscape := false
	for _, c := range s {
		switch {
		case inEscape:
			inEscape = c != 'm'
		case c == '\033':
			inEscape = true
		default:
			result.WriteRune(c)
		}
	}
	return result.String()
}
