package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tokenvet/tokenvet/internal/httpx"
	"github.com/tokenvet/tokenvet/internal/sched"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the full service: scheduled pipelines plus the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			loop := sched.NewLoop(app.met)
			loop.Register("ingest", app.cfg.Scheduler.IngestEvery, func(ctx context.Context) error {
				_, err := app.ingest.Run(ctx)
				return err
			})
			loop.Register("vetting", app.cfg.Scheduler.VetEvery, func(ctx context.Context) error {
				_, err := app.vetting.VetBacklog(ctx)
				return err
			})
			loop.Register("monitoring", app.cfg.Scheduler.MonitorEvery, func(ctx context.Context) error {
				_, err := app.monitor.RunCycle(ctx)
				return err
			})

			server := httpx.NewServer(app.cfg.HTTPAddr, app.store, app.prom)
			errCh := make(chan error, 1)
			go func() { errCh <- server.ListenAndServe() }()
			go loop.Run(ctx)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http shutdown incomplete")
			}
			log.Info().Msg("service stopped")
			return nil
		},
	}
}
