package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run one monitoring cycle over the vetted set and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			summary, err := app.monitor.RunCycle(cmd.Context())
			if err != nil {
				return err
			}
			log.Info().
				Int("sampled", summary.Sampled).
				Int("failures", summary.Failures).
				Int("alerts", summary.Alerts).
				Msg("monitor done")
			return nil
		},
	}
}
