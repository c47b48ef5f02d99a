package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Run one feed ingestion cycle and exit",
		Long:  "Fan out to the configured market-data providers, merge the payloads into canonical token records and persist them.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.ingest.Run(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().
				Int("api_calls", summary.APICalls).
				Int("merged", summary.Merged).
				Int("new", len(summary.New)).
				Int("updated", len(summary.Updated)).
				Msg("ingest done")
			return nil
		},
	}
}
