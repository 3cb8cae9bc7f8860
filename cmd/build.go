package cmd

import (
	"fmt"

	colorize "github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arcanaland/builderbot/internal/build"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build every card if the sources changed",
	Long: `Build compares the revisions of the art, cards and graphics namespaces with
the fingerprint of the last build. When anything changed, or with --force, it
records the new fingerprint and renders every card into a new build directory.

A card that fails to render or upload is reported and skipped; the rest of the
build carries on.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		force, _ := cmd.Flags().GetBool("force")

		b, closeFn, err := newBuilder(cmd.Context())
		if err != nil {
			return err
		}
		defer closeFn()

		outcome, err := b.Attempt(cmd.Context(), force)
		if outcome != nil {
			printOutcome(outcome)
		}
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
		if outcome.Report != nil && len(outcome.Report.Failed) > 0 {
			return fmt.Errorf("%d of %d cards failed", len(outcome.Report.Failed), outcome.Report.Cards)
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().BoolP("force", "f", false, "Build even if the sources are unchanged")
}

// printOutcome summarizes an attempt for a human
func printOutcome(o *build.Outcome) {
	if o.Skipped {
		fmt.Printf("%s %s\n", colorize.YellowString("Skipped:"), o.Reason)
		return
	}

	fmt.Printf("%s %s\n", colorize.CyanString("Build:"), colorize.HiWhiteString(o.BuildPath))
	if o.Report == nil {
		return
	}
	r := o.Report
	fmt.Printf("%s %d of %d cards\n", colorize.GreenString("Built:"), len(r.Built), r.Cards)
	for _, f := range r.Failed {
		fmt.Printf("  %s %s\n", colorize.RedString("✗"), f.Error())
	}
}
