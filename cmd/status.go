package cmd

import (
	"fmt"
	"slices"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/builderbot/internal/cache"
	"github.com/arcanaland/builderbot/internal/fingerprint"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare the store with the last build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := openStore()

		last := fingerprint.Last(cmd.Context(), s, cfg.MarkerPath())
		latest, err := fingerprint.Latest(cmd.Context(), s, cache.Namespaces...)
		if err != nil {
			return fmt.Errorf("reading revisions: %w", err)
		}

		changed := last.Diff(latest)
		for _, ns := range cache.Namespaces {
			mark := colorize.GreenString("✓")
			if slices.Contains(changed, ns) {
				mark = colorize.YellowString("~")
			}
			fmt.Printf("%s %-9s %s -> %s\n", mark, ns, revOrNone(last[ns]), revOrNone(latest[ns]))
		}

		fmt.Println()
		if len(changed) == 0 {
			fmt.Println(colorize.GreenString("Up to date with the last build."))
		} else {
			fmt.Println(colorize.YellowString("Sources changed, the next build will run."))
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(statusCmd)
}

func revOrNone(rev string) string {
	if rev == "" {
		return colorize.HiBlackString("none")
	}
	return rev
}
