package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-versions/internal/config"
	"github.com/jonathan/resume-versions/internal/server"
	"github.com/jonathan/resume-versions/internal/server/ratelimit"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long: `Start an HTTP server exposing the company version API under /company-versions.
Generation routes are disabled when no LLM API key is configured. A postgres store is migrated
before the server starts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := openApp(ctx, cmd, opts, true)
			if err != nil {
				return err
			}
			defer a.close()

			if cmd.Flags().Changed("port") {
				a.cfg.Port = port
			}

			srvCfg := server.Config{
				Addr:        a.cfg.Addr(),
				Manager:     a.manager,
				RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig(os.LookupEnv)),
				Logger:      a.log,
			}
			if orch, err := a.orchestrator(ctx); err != nil {
				a.log.Warn("generation disabled", "error", err)
			} else {
				srvCfg.Generator = orch
			}
			if a.cfg.Timeout() > 0 {
				srvCfg.WriteTimeout = a.cfg.Timeout() + server.ShutdownGrace
			}

			srv, err := server.New(srvCfg)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			a.log.Info("serving company versions",
				"store", a.cfg.StoreBackend,
				"provider", a.cfg.LLMProvider,
				"addr", srvCfg.Addr,
			)
			return srv.Start(ctx)
		},
	}
	cmd.Flags().IntVar(&port, "port", config.DefaultPort, "Port to listen on")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.StoreBackend != config.BackendPostgres {
				return fmt.Errorf("migrate requires the postgres store (current: %s)", cfg.StoreBackend)
			}

			a, err := openApp(cmd.Context(), cmd, opts, true)
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
