package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/exitcode"
	"github.com/txfh/feesched/internal/extract"
	"github.com/txfh/feesched/internal/logging"
	"github.com/txfh/feesched/internal/model"
	"github.com/txfh/feesched/internal/normalize"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Dry-run validation and stats (no writes)",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&cfg.FilePath, "file", "", "Path to extract CSV (required)")
	_ = planCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	sha, err := normalize.FileHash(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to hash file")
		os.Exit(exitcode.ValidationError)
	}

	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}

	reader, err := extract.Open(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to open extract")
		os.Exit(exitcode.ValidationError)
	}
	defer reader.Close()

	schema := reader.Schema()
	if err := extract.ValidateSchema(schema); err != nil {
		log.Error().Err(err).Msg("schema validation failed")
		os.Exit(exitcode.ValidationError)
	}

	// Full dry pass: count rows, distinct zones, modifier usage, and any
	// cells the real load would refuse to coerce.
	var rows, withModifier int64
	zones := make(map[int64]struct{})
	var coercionErrs []string

	for {
		record, rowNum, readErr := reader.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			log.Error().Err(readErr).Msg("failed to read extract")
			os.Exit(exitcode.ValidationError)
		}
		rows++

		zone, zErr := normalize.GeoZip(model.ColGeoZip, schema.Field(record, model.ColGeoZip), rowNum)
		if zErr != nil {
			if len(coercionErrs) < 5 {
				coercionErrs = append(coercionErrs, zErr.Error())
			}
			continue
		}
		zones[zone] = struct{}{}

		if normalize.Modifier(schema.Field(record, model.ColModifier)) != nil {
			withModifier++
		}
	}

	fmt.Println("=== feesched plan ===")
	fmt.Printf("File:         %s\n", cfg.FilePath)
	fmt.Printf("SHA-256:      %s\n", sha)
	fmt.Printf("Size:         %d bytes\n", stat.Size())
	fmt.Printf("Rows:         %d\n", rows)
	fmt.Printf("Rate zones:   %d\n", len(zones))
	fmt.Printf("With modifier: %d\n", withModifier)
	fmt.Printf("Rate columns: %s\n", strings.Join(schema.ExtraColumns, ", "))

	if len(coercionErrs) > 0 {
		fmt.Println("\nCoercion failures (load would abort):")
		for _, msg := range coercionErrs {
			fmt.Printf("  %s\n", msg)
		}
		os.Exit(exitcode.ValidationError)
	}

	fmt.Println("Schema validation: OK")
	return nil
}
