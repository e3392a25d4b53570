package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/audit"
	"github.com/txfh/feesched/internal/db"
	"github.com/txfh/feesched/internal/exitcode"
	"github.com/txfh/feesched/internal/logging"
	"github.com/txfh/feesched/internal/resolve"
)

var (
	lookupGeoZip   int64
	lookupCode     string
	lookupModifier string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Resolve one allowed-amount lookup from the command line",
	RunE:  runLookup,
}

func init() {
	f := lookupCmd.Flags()
	f.Int64Var(&lookupGeoZip, "geozip", 0, "Geographic rate zone (required)")
	f.StringVar(&lookupCode, "code", "", "Procedure code (required)")
	f.StringVar(&lookupModifier, "modifier", "", "Optional modifier")
	_ = lookupCmd.MarkFlagRequired("geozip")
	_ = lookupCmd.MarkFlagRequired("code")
	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, args []string) error {
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

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		log.Error().Err(err).Msg("migration failed")
		os.Exit(exitcode.DBConnError)
	}

	req := resolve.Request{GeoZip: lookupGeoZip, Code: lookupCode}
	if lookupModifier != "" {
		req.Modifier = &lookupModifier
	}

	resolver := resolve.New(pool, audit.NewRecorder(pool), log)
	match, err := resolver.Lookup(ctx, req)
	if err != nil {
		var ve *resolve.ValidationError
		if errors.As(err, &ve) {
			log.Error().Err(ve).Msg("invalid lookup input")
			os.Exit(exitcode.ValidationError)
		}
		var de *resolve.DataUnavailableError
		if errors.As(err, &de) {
			log.Error().Err(de).Msg("allowed amounts table unavailable; run a load")
			os.Exit(exitcode.DBConnError)
		}
		log.Error().Err(err).Msg("lookup failed")
		os.Exit(exitcode.DBConnError)
	}

	fmt.Printf("Match type: %s\n", match.MatchType)
	if !match.Found {
		return nil
	}

	cols := make([]string, 0, len(match.Fields))
	for col := range match.Fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for _, col := range cols {
		v := match.Fields[col]
		if v == nil {
			v = ""
		}
		fmt.Printf("  %-16s %v\n", col, v)
	}
	return nil
}
