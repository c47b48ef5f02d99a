package sched

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/metrics"
)

// Config carries the cadence of each pipeline.
type Config struct {
	IngestEvery  time.Duration `yaml:"ingest_every"`
	VetEvery     time.Duration `yaml:"vet_every"`
	MonitorEvery time.Duration `yaml:"monitor_every"`
}

// DefaultConfig returns the default cadences.
func DefaultConfig() Config {
	return Config{
		IngestEvery:  5 * time.Minute,
		VetEvery:     2 * time.Minute,
		MonitorEvery: 10 * time.Minute,
	}
}

type pipeline struct {
	name  string
	every time.Duration
	run   func(ctx context.Context) error
}

// Loop drives the registered pipelines on independent tickers. A
// failing or panicking cycle is logged and counted; the ticker keeps
// firing.
type Loop struct {
	metrics   *metrics.Registry
	pipelines []pipeline
}

// NewLoop builds an empty scheduler. metrics may be nil.
func NewLoop(m *metrics.Registry) *Loop {
	return &Loop{metrics: m}
}

// Register adds a pipeline. A non-positive interval disables it.
func (l *Loop) Register(name string, every time.Duration, run func(ctx context.Context) error) {
	if every <= 0 {
		log.Info().Str("pipeline", name).Msg("pipeline disabled")
		return
	}
	l.pipelines = append(l.pipelines, pipeline{name: name, every: every, run: run})
}

// Run fires every pipeline once immediately, then on its interval,
// until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, p := range l.pipelines {
		wg.Add(1)
		go func(p pipeline) {
			defer wg.Done()
			log.Info().Str("pipeline", p.name).Dur("every", p.every).Msg("pipeline started")
			l.cycle(ctx, p)
			ticker := time.NewTicker(p.every)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					log.Info().Str("pipeline", p.name).Msg("pipeline stopped")
					return
				case <-ticker.C:
					l.cycle(ctx, p)
				}
			}
		}(p)
	}
	wg.Wait()
}

// cycle runs one pass with panic isolation so a bad cycle cannot take
// down the other pipelines.
func (l *Loop) cycle(ctx context.Context, p pipeline) {
	defer func() {
		if r := recover(); r != nil {
			l.fail(p.name, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := p.run(ctx); err != nil {
		l.fail(p.name, err)
	}
}

func (l *Loop) fail(name string, err error) {
	if l.metrics != nil {
		l.metrics.CycleFailures.WithLabelValues(name).Inc()
	}
	log.Error().Err(err).Str("pipeline", name).Msg("cycle failed")
}
