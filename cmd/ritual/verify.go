package main

import (
	"fmt"

	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/internal/presentation/tui"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Run a fixture catalog and report mismatches",
	Long: `Runs every fixture in dir (or RITUAL_FIXTURES_DIR, or the built-in catalog) and
compares the final stage, seal status and signal sequence with the expectation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cliApp.cfg.FixturesDir
		if len(args) == 1 {
			dir = args[0]
		}
		cat, err := cli.LoadFixtures(dir)
		if err != nil {
			return err
		}
		report := replay.RunCatalog(cat)
		cliApp.logger.Info("Fixtures verified", "passed", report.Passed, "failed", report.Failed)

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := writeJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
		} else if err := tui.WriteMarkdown(cmd.OutOrStdout(), report.Markdown()); err != nil {
			return err
		}
		if !report.OK() {
			return fmt.Errorf("%d of %d fixtures failed", report.Failed, report.Passed+report.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().Bool("json", false, "Print the report as JSON")
}
