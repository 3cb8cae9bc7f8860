package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/builderbot/internal/validator"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that every card in the store can be built",
	Long: `Validate syncs the cache and checks the card data without rendering anything.
It verifies that every card-data file parses, that each card has art, that the
font is available and reports missing overlays and clashing card names.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd.Context(), openStore())
		if err != nil {
			return err
		}
		defer saveCache(c)

		v := validator.NewValidator(c, cfg.Layout)
		results, err := v.Validate(cmd.Context())
		if err != nil {
			return fmt.Errorf("validation error: %v", err)
		}

		fmt.Println("Validation Results:")
		fmt.Println("-------------------")

		if len(results.Errors) == 0 {
			fmt.Printf("%s %d cards in %s can be built.\n", colorize.GreenString("✓"), results.Cards, cfg.StoreRoot)
		} else {
			fmt.Printf("%s %d cards, %d validation errors:\n", colorize.RedString("✗"), results.Cards, len(results.Errors))
			for i, err := range results.Errors {
				fmt.Printf("%d. %s\n", i+1, err)
			}
		}

		if len(results.Warnings) > 0 {
			fmt.Println(colorize.YellowString("\nWarnings:"))
			for i, warn := range results.Warnings {
				fmt.Printf("%d. %s\n", i+1, warn)
			}
		}

		if len(results.Errors) > 0 {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}
