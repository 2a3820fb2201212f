package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/ritual"
	"github.com/aretw0/ritual/internal/cli"
	"github.com/aretw0/ritual/internal/presentation/tui"
	httpAdapter "github.com/aretw0/ritual/pkg/adapters/http"
	"github.com/aretw0/ritual/pkg/signals"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts the ritual engine in server mode: session CRUD, event dispatch, an SSE signal
mirror, replay and fixture verification over HTTP, plus Prometheus metrics on /metrics.
Sessions run their own hold loop.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := cliApp.cfg
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		streams := httpAdapter.NewStreamManager(cliApp.logger)
		bus := signals.NewBus()
		bus.Subscribe("ritual:evidence:sealed", func(ctx context.Context, ev signals.Event) {
			cliApp.logger.Info("Session sealed", "session_id", ev.SessionID, "ritual", ev.Signal.RitualID)
		})

		stack, err := cli.Build(ctx, cfg, cliApp.logger,
			cli.WithHoldLoops(),
			cli.WithSinks(streams, bus),
			cli.WithStreamDrops(streams.Dropped),
		)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := stack.Close(closeCtx); err != nil {
				cliApp.logger.Error("Failed to close sessions", "err", err)
			}
		}()

		fixtures, err := cli.LoadFixtures(cfg.FixturesDir)
		if err != nil {
			return err
		}

		api := httpAdapter.NewServer(stack.Manager,
			httpAdapter.WithStreams(streams),
			httpAdapter.WithRecorder(stack.Recorder),
			httpAdapter.WithFixtures(fixtures),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(stack.Registry, promhttp.HandlerOpts{})),
			httpAdapter.WithRequestValidation(cfg.ValidateRequests),
			httpAdapter.WithVersion(ritual.Version),
			httpAdapter.WithLogger(cliApp.logger),
		)
		handler, err := api.Handler()
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(cmd.ErrOrStderr(), ritual.Version)

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			cliApp.logger.Info("Starting ritual server", "addr", srv.Addr, "store", cfg.StoreKind)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			return nil

		case <-ctx.Done():
			cliApp.logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				cliApp.logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			cliApp.logger.Info("Ritual server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (env RITUAL_ADDR, default :8080)")
}
