package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/audit"
	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/exitcode"
	"github.com/txfh/feesched/internal/export"
	"github.com/txfh/feesched/internal/logging"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the lookup usage log to a CSV report",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&cfg.OutPath, "out", "", "Report destination (default usage_<today>.csv)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}

	outPath := cfg.OutPath
	if outPath == "" {
		outPath = fmt.Sprintf("usage_%s.csv", time.Now().UTC().Format("2006-01-02"))
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	f, err := os.Create(outPath)
	if err != nil {
		log.Error().Err(err).Msg("failed to create report file")
		os.Exit(exitcode.UsageError)
	}
	defer f.Close()

	if err := export.WriteUsageReport(ctx, audit.NewRecorder(pool), f); err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitcode.PublishError)
	}

	fmt.Printf("Usage report written to %s\n", outPath)
	return nil
}
