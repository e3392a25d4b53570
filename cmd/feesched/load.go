package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/exitcode"
	"github.com/txfh/feesched/internal/load"
	"github.com/txfh/feesched/internal/logging"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Normalize a spreadsheet extract into the allowed_amounts table",
	RunE:  runLoad,
}

func init() {
	f := loadCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to extract CSV (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-load even if the extract SHA was already published")
	f.BoolVar(&cfg.KeepBuild, "keep-build", false, "Keep the build table after a failed run for inspection")
	_ = loadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(loadCmd)
}

func runLoad(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}

	summary, err := load.Run(ctx, pool, log, &cfg)
	if err != nil {
		if pe, ok := err.(*load.PipelineError); ok {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("load failed")
			switch pe.Phase {
			case "preflight":
				os.Exit(exitcode.ValidationError)
			case "stage":
				os.Exit(exitcode.CopyError)
			default:
				os.Exit(exitcode.PublishError)
			}
		}
		log.Error().Err(err).Msg("load failed")
		os.Exit(exitcode.PublishError)
	}

	if summary.AlreadyLoaded {
		fmt.Printf("Extract already published (load run %d); use --force to re-load\n", summary.LoadRunID)
		return nil
	}

	fmt.Printf("Load complete: %d rows read, %d rows published (%.1fs)\n",
		summary.RowsRead, summary.RowsLoaded, summary.DurationTotal.Seconds())
	return nil
}
