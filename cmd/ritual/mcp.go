package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/ritual"
	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/pkg/adapters/mcp"
	"github.com/aretw0/ritual/pkg/registry"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the ritual catalog, trace replay, fixture verification and state projection
as MCP tools, so agents can reason about gestures without driving a live session.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		fixtures, err := cli.LoadFixtures(cliApp.cfg.FixturesDir)
		if err != nil {
			return err
		}
		srv := mcp.NewServer(registry.NewWithPresets(), ritual.Version,
			mcp.WithFixtures(fixtures),
			mcp.WithLogger(cliApp.logger),
		)

		switch transport {
		case "stdio":
			// Logs go to stderr, so they never corrupt JSON-RPC on stdout.
			cliApp.logger.Info("Starting ritual MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			cliApp.logger.Info("Starting ritual MCP server (SSE)", "port", port)
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("mcp server failed: %w", err)
			}
			cliApp.logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8081, "Port to listen on (only for SSE)")
}
