package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/txfh/feesched/internal/config"
)

var cfg config.Config

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "feesched",
	Short: "Fee-schedule extract loader and allowed-amount lookup service",
	Long:  "Normalizes raw fee-schedule spreadsheet extracts into Postgres and serves tiered allowed-amount lookups with a full audit trail.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cfgFile == "" {
			return nil
		}
		return cfg.LoadFromFile(cfgFile, cmd.Flags().Changed)
	},
}

func init() {
	// .env is optional; flags and the real environment win.
	_ = godotenv.Load()

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfg.DSN, "dsn", os.Getenv("DATABASE_URL"), "Postgres connection string (or set DATABASE_URL)")
	pf.StringVar(&cfg.LogFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&cfgFile, "config", "", "Optional YAML config file")
}
