package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/ritual/internal/presentation/tui"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/aretw0/ritual/pkg/replay"
	"github.com/spf13/cobra"
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace>",
	Short: "Replay a YAML or JSON trace and report every frame",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, err := loadTrace(cmd, args[0])
		if err != nil {
			return err
		}
		res, err := replay.Replay(trace)
		if err != nil {
			return err
		}
		cliApp.logger.Debug("Trace replayed", "trace", trace.Name, "fingerprint", res.Fingerprint())

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(cmd.OutOrStdout(), res)
		}
		return tui.WriteMarkdown(cmd.OutOrStdout(), res.Markdown())
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.Flags().String("ritual", "", "Replay under this ritual instead of the trace's own")
	replayCmd.Flags().Bool("json", false, "Print the result as JSON")
}

var determinismCmd = &cobra.Command{
	Use:   "determinism <trace>",
	Short: "Replay a trace repeatedly and check every run is identical",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace, err := loadTrace(cmd, args[0])
		if err != nil {
			return err
		}
		n, _ := cmd.Flags().GetInt("iterations")
		report, err := replay.AssertDeterminism(trace, n)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			if err := writeJSON(out, report); err != nil {
				return err
			}
		} else {
			fmt.Fprintf(out, "trace:         %s\n", report.Trace)
			fmt.Fprintf(out, "iterations:    %d\n", report.Iterations)
			fmt.Fprintf(out, "fingerprint:   %s\n", report.Fingerprint)
			fmt.Fprintf(out, "signals:       %v\n", report.SignalNames)
			fmt.Fprintf(out, "deterministic: %t\n", report.Deterministic)
		}
		if !report.Deterministic {
			return fmt.Errorf("trace %q diverged in runs %v", report.Trace, report.Divergent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(determinismCmd)
	determinismCmd.Flags().IntP("iterations", "n", 10, "Number of replays to compare")
	determinismCmd.Flags().String("ritual", "", "Replay under this ritual instead of the trace's own")
	determinismCmd.Flags().Bool("json", false, "Print the report as JSON")
}

// loadTrace reads the trace file and applies the --ritual flag.
func loadTrace(cmd *cobra.Command, path string) (replay.Trace, error) {
	trace, err := replay.LoadTrace(path)
	if err != nil {
		return replay.Trace{}, err
	}
	if id, _ := cmd.Flags().GetString("ritual"); id != "" {
		if _, err := domain.LookupPreset(id); err != nil {
			return replay.Trace{}, err
		}
		trace.Ritual = id
	}
	return trace, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
