package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tokenvet/tokenvet/internal/domain"
)

func newVetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vet [chain address]",
		Short: "Score the vetting backlog, or one token on demand",
		Long:  "Without arguments, scores every merged candidate that has no vetting results yet. With a chain and address, re-scores that single token.",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 0 {
				summary, err := app.vetting.VetBacklog(cmd.Context())
				if err != nil {
					return err
				}
				log.Info().
					Int("processed", summary.Processed).
					Int("failures", summary.Failures).
					Msg("vet done")
				return nil
			}
			if len(args) != 2 {
				return fmt.Errorf("expected both chain and address")
			}
			chain, ok := domain.ParseChain(args[0])
			if !ok {
				return fmt.Errorf("unknown chain %q", args[0])
			}
			results, err := app.vetting.VetToken(cmd.Context(), chain, args[1])
			if err != nil {
				return err
			}
			log.Info().
				Int("score", results.OverallScore).
				Str("risk", string(results.RiskLevel)).
				Str("tier", string(results.EligibleTier)).
				Strs("flags", results.AllFlags).
				Msg("token vetted")
			return nil
		},
	}
	return cmd
}
