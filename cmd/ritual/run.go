package main

import (
	"github.com/aretw0/ritual"
	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/session"
	"github.com/aretw0/ritual/pkg/signals"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [ritual]",
	Short: "Drive one session from JSON-lines events on stdin",
	Long: `Reads one input event per line from stdin, for example
  {"type":"pointer_down","pointer_id":1,"x":0,"y":0}
and writes the outcome of each as one JSON line to stdout. Hold ticks come from the
input; no hold loop runs. Signals are logged to stderr.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := domain.PresetFirstProof
		if len(args) == 1 {
			id = args[0]
		}
		eng, err := ritual.New(id, ritual.WithLogger(cliApp.logger))
		if err != nil {
			return err
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		driver := eng.NewSession(session.WithSinks(signals.NewLogSink(cliApp.logger)))
		defer driver.Stop()

		r := &ritual.Runner{Input: cmd.InOrStdin(), Output: cmd.OutOrStdout()}
		if err := r.Run(ctx, driver); err != nil && ctx.Signal() == nil {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
