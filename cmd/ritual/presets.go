package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/ritual/pkg/registry"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in rituals and their thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		rituals := registry.NewWithPresets().List()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rituals)
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTITLE\tDRAG\tMAX TRAVEL\tRATIO\tHOLD\tTICK CLAMP\tSNAP")
		for _, r := range rituals {
			th := r.Thresholds
			fmt.Fprintf(tw, "%s\t%s\t%gpx\t%gpx\t%g\t%gms\t%gms\t%gpx\n",
				r.ID, r.Title, th.DragThresholdPx, th.DragMaxTravelPx, th.DragDirectionRatio,
				th.HoldDurationMs, th.HoldTickClampMs, th.ReleaseSnapPx)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
	presetsCmd.Flags().Bool("json", false, "Print the rituals as JSON")
}
