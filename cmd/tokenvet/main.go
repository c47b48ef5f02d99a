package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "tokenvet"
	version = "v0.4.0"
)

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Token vetting service: ingest, score, monitor",
		Version: version,
		Long: `tokenvet discovers newly listed tokens from public market-data
providers, merges the feeds into canonical records, scores each token
for rug-pull and abandonment risk, and keeps monitoring the vetted set
for liquidity drains, holder exodus and price crashes.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (defaults apply when empty)")

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newVetCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newServeCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
