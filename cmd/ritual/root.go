package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/internal/config"
	"github.com/spf13/cobra"
)

// app carries what every command needs once flags and environment are resolved.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
}

// cliApp is resolved by the root command before any subcommand runs.
var cliApp = &app{}

var rootCmd = &cobra.Command{
	Use:   "ritual",
	Short: "Ritual is a deterministic gesture engine",
	Long: `Ritual drives drag, hold and release gestures through a deterministic state machine.
It replays and verifies traces, renders the stage machine and serves sessions over HTTP or MCP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cliApp.init(cmd)
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cliApp.closeLog != nil {
			return cliApp.closeLog()
		}
		return nil
	},
}

func init() {
	// Persistent flags (available to all commands). They override the environment.
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (env RITUAL_LOG_LEVEL)")
	rootCmd.PersistentFlags().String("store", "", "Session store: memory, file, redis or sqlite (env RITUAL_STORE)")
	rootCmd.PersistentFlags().String("store-path", "", "Directory or database file of the store (env RITUAL_STORE_PATH)")
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		cfg.StoreKind = v
	}
	if v, _ := flags.GetString("store-path"); v != "" {
		cfg.StorePath = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := cli.NewLogger(cfg)
	if err != nil {
		return err
	}
	a.cfg, a.logger, a.closeLog = cfg, logger, closeLog
	return nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
