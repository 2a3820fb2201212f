package main

import (
	"fmt"

	"github.com/aretw0/ritual/internal/presentation/graph"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [ritual]",
	Short: "Print the stage machine as a Mermaid flowchart",
	Long: `Prints the stage machine of a ritual (first-proof by default) as Mermaid.
With --trace, the stages the replay visited and the one it ended in are highlighted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := domain.PresetFirstProof
		if len(args) == 1 {
			id = args[0]
		}
		ritual, err := domain.LookupPreset(id)
		if err != nil {
			return err
		}

		var overlay *graph.GraphOverlay
		if path, _ := cmd.Flags().GetString("trace"); path != "" {
			trace, err := replay.LoadTrace(path)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				trace.Ritual = id
			}
			res, err := replay.Replay(trace)
			if err != nil {
				return err
			}
			ritual = res.Ritual
			overlay = graph.OverlayFromReplay(res)
		}

		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ritual, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("trace", "", "Highlight the stages a trace passes through")
}
