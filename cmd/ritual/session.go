package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/pkg/domain"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted sessions",
	Long:  `List, inspect, and remove sessions kept by the configured store (--store, RITUAL_STORE).`,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
}

// withStack builds the session stack for one command and closes it afterwards.
func (a *app) withStack(ctx context.Context, fn func(*cli.Stack) error) error {
	stack, err := cli.Build(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	return errors.Join(fn(stack), stack.Close(ctx))
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cliApp.withStack(cmd.Context(), func(st *cli.Stack) error {
			ids, err := st.Manager.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing sessions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No sessions found.")
				return nil
			}
			fmt.Fprintln(out, "Sessions:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionLsCmd)
}

// inspection is what `session inspect` prints.
type inspection struct {
	Record   *domain.SessionRecord `json:"record"`
	Snapshot domain.Snapshot       `json:"snapshot"`
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Inspect the state and snapshot of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID := args[0]
		return cliApp.withStack(cmd.Context(), func(st *cli.Stack) error {
			rec, err := st.Manager.Record(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error loading session '%s': %w", sessionID, err)
			}
			snap, err := st.Manager.Snapshot(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("error projecting session '%s': %w", sessionID, err)
			}
			return writeJSON(cmd.OutOrStdout(), inspection{Record: rec, Snapshot: snap})
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionInspectCmd)
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cliApp.withStack(cmd.Context(), func(st *cli.Stack) error {
			var errs []error
			for _, sessionID := range args {
				if err := st.Manager.Delete(cmd.Context(), sessionID); err != nil {
					errs = append(errs, fmt.Errorf("error removing '%s': %w", sessionID, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed session '%s'\n", sessionID)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	sessionCmd.AddCommand(sessionRmCmd)
}
