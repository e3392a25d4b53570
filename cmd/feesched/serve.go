package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/audit"
	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/exitcode"
	"github.com/txfh/feesched/internal/logging"
	"github.com/txfh/feesched/internal/resolve"
	"github.com/txfh/feesched/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the allowed-amount lookup HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", ":8080", "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	// lookup_log and load_runs are auto-created if absent.
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}

	resolver := resolve.New(pool, audit.NewRecorder(pool), log)

	srv := server.New(&cfg)
	srv.RegisterRoutes(resolver)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
		os.Exit(exitcode.DBConnError)
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}

	return nil
}
