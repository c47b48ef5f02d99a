package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/metrics"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/store"
)

// MarketSource supplies the current trading pairs for a token.
type MarketSource interface {
	TokenPairs(ctx context.Context, address string) (providers.DexPairsPayload, error)
}

// HolderSource supplies the current holder count. Optional; when nil
// the sampler records snapshots without holder data.
type HolderSource interface {
	TokenSecurity(ctx context.Context, chain domain.Chain, address string) (*providers.SecurityReport, error)
}

// Thresholds below which a metric move counts as stable, and above
// which a drop fires an alert. Percentages of the previous value.
const (
	liquidityTrendPct = 5
	holderTrendPct    = 10
	activityTrendPct  = 10

	liquidityAlertPct = 20
	holderAlertPct    = 10
	priceCrashPct     = 30
)

// Config controls one monitoring cycle.
type Config struct {
	Workers    int           `yaml:"workers"`
	BatchSize  int           `yaml:"batch_size"`
	TokenDelay time.Duration `yaml:"token_delay"`
}

// DefaultConfig returns the monitoring defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    3,
		BatchSize:  100,
		TokenDelay: 300 * time.Millisecond,
	}
}

// Summary is the structured result of one monitoring pass.
type Summary struct {
	Sampled  int
	Failures int
	Alerts   int
	Duration time.Duration
}

// Sampler periodically snapshots every vetted token's dynamic metrics
// and raises alerts when a metric crosses a degradation threshold
// against the previous snapshot.
type Sampler struct {
	store   store.TokenStore
	market  MarketSource
	holders HolderSource
	metrics *metrics.Registry
	cfg     Config
	now     func() time.Time
}

// NewSampler wires a monitoring sampler. holders and metrics may be
// nil.
func NewSampler(st store.TokenStore, market MarketSource, holders HolderSource,
	m *metrics.Registry, cfg Config) *Sampler {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	return &Sampler{
		store:   st,
		market:  market,
		holders: holders,
		metrics: m,
		cfg:     cfg,
		now:     time.Now,
	}
}

// RunCycle samples every vetted token once. A token whose market
// lookup fails is skipped for this cycle; its history simply has a
// gap.
func (s *Sampler) RunCycle(ctx context.Context) (*Summary, error) {
	start := s.now()
	summary := &Summary{}

	vetted, err := s.store.ListByFilter(ctx, store.Filter{
		OnlyVetted: true,
		Limit:      s.cfg.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list monitored tokens: %w", err)
	}

	jobs := make(chan *domain.TokenRecord)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < s.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				alerts, err := s.sample(ctx, rec)
				mu.Lock()
				if err != nil {
					summary.Failures++
				} else {
					summary.Sampled++
					summary.Alerts += alerts
				}
				mu.Unlock()
				if s.cfg.TokenDelay > 0 {
					select {
					case <-time.After(s.cfg.TokenDelay):
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	for _, rec := range vetted {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	summary.Duration = time.Since(start)
	if s.metrics != nil {
		s.metrics.CycleDuration.WithLabelValues("monitoring").Observe(summary.Duration.Seconds())
	}
	log.Info().
		Int("monitored", len(vetted)).
		Int("sampled", summary.Sampled).
		Int("failures", summary.Failures).
		Int("alerts", summary.Alerts).
		Dur("duration", summary.Duration).
		Msg("monitoring cycle finished")
	return summary, nil
}

// sample takes one snapshot for rec, persists it, then evaluates the
// alert rules against the previous snapshot. Alert persistence is
// best effort; a failed alert write never blocks the snapshot.
func (s *Sampler) sample(ctx context.Context, rec *domain.TokenRecord) (int, error) {
	payload, err := s.market.TokenPairs(ctx, rec.Address)
	if err != nil {
		log.Warn().Err(err).Str("token", rec.Key().String()).Msg("market lookup failed, sample skipped")
		return 0, err
	}
	pair := bestPair(payload.Pairs, rec)
	if pair == nil {
		return 0, fmt.Errorf("no trading pair for %s", rec.Key())
	}

	snap := &domain.MonitoringSnapshot{
		ID:             uuid.NewString(),
		Chain:          rec.Chain,
		Address:        rec.Address,
		PriceChange24h: pair.PriceChange.H24,
		ScannedAt:      s.now(),
	}
	if pair.PriceUSD != nil {
		snap.PriceUSD = *pair.PriceUSD
	}
	if pair.LiquidityUSD != nil {
		snap.LiquidityUSD = *pair.LiquidityUSD
	}
	if pair.Volume24h != nil {
		snap.Volume24h = *pair.Volume24h
	}
	snap.HolderCount = s.holderCount(ctx, rec)

	prev, err := s.store.LatestSnapshot(ctx, rec.Chain, rec.Address)
	if err != nil {
		return 0, fmt.Errorf("load previous snapshot %s: %w", rec.Key(), err)
	}
	classifyTrends(snap, prev)

	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return 0, fmt.Errorf("save snapshot %s: %w", rec.Key(), err)
	}

	fired := 0
	for _, alert := range evaluateAlerts(snap, prev, s.now()) {
		if err := s.store.SaveAlert(ctx, alert); err != nil {
			log.Error().Err(err).Str("token", rec.Key().String()).
				Str("trigger", alert.TriggerType).Msg("alert not persisted")
			continue
		}
		fired++
		if s.metrics != nil {
			s.metrics.AlertsFired.WithLabelValues(alert.TriggerType, string(alert.Severity)).Inc()
		}
		log.Warn().
			Str("token", rec.Key().String()).
			Str("trigger", alert.TriggerType).
			Str("severity", string(alert.Severity)).
			Msg(alert.Message)
	}
	return fired, nil
}

func (s *Sampler) holderCount(ctx context.Context, rec *domain.TokenRecord) *int64 {
	if s.holders == nil {
		return nil
	}
	report, err := s.holders.TokenSecurity(ctx, rec.Chain, rec.Address)
	if err != nil {
		log.Debug().Err(err).Str("token", rec.Key().String()).Msg("holder lookup failed")
		return nil
	}
	if report == nil || report.Holders == nil {
		return nil
	}
	return report.Holders.Count
}

// bestPair picks the deepest pair whose base side is the monitored
// token.
func bestPair(pairs []providers.DexPair, rec *domain.TokenRecord) *providers.DexPair {
	var best *providers.DexPair
	for i := range pairs {
		p := &pairs[i]
		if p.Base.Address != rec.Address {
			continue
		}
		if best == nil || liquidityOf(p) > liquidityOf(best) {
			best = p
		}
	}
	return best
}

func liquidityOf(p *providers.DexPair) float64 {
	if p.LiquidityUSD == nil {
		return 0
	}
	return *p.LiquidityUSD
}

// classifyTrends fills the three trend fields. The first snapshot for
// a token has no baseline and reports every trend as stable.
func classifyTrends(snap, prev *domain.MonitoringSnapshot) {
	snap.LiquidityTrend = domain.TrendStable
	snap.HolderTrend = domain.TrendStable
	snap.ActivityTrend = domain.TrendStable
	if prev == nil {
		return
	}
	snap.LiquidityTrend = trendOf(prev.LiquidityUSD, snap.LiquidityUSD, liquidityTrendPct)
	snap.ActivityTrend = trendOf(prev.Volume24h, snap.Volume24h, activityTrendPct)
	if prev.HolderCount != nil && snap.HolderCount != nil {
		snap.HolderTrend = trendOf(float64(*prev.HolderCount), float64(*snap.HolderCount), holderTrendPct)
	}
}

func trendOf(prev, cur, thresholdPct float64) domain.Trend {
	if prev <= 0 {
		return domain.TrendStable
	}
	change := (cur - prev) / prev * 100
	switch {
	case change > thresholdPct:
		return domain.TrendIncreasing
	case change < -thresholdPct:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// evaluateAlerts applies each alert rule independently. The price
// crash rule reads the 24h change carried on the current snapshot and
// needs no baseline; the drop rules need a previous snapshot.
func evaluateAlerts(snap, prev *domain.MonitoringSnapshot, now time.Time) []*domain.Alert {
	var alerts []*domain.Alert
	mk := func(severity domain.AlertSeverity, trigger, condition, message string) {
		alerts = append(alerts, &domain.Alert{
			ID:          uuid.NewString(),
			Chain:       snap.Chain,
			Address:     snap.Address,
			Severity:    severity,
			TriggerType: trigger,
			Condition:   condition,
			Message:     message,
			Detected:    true,
			DetectedAt:  now,
		})
	}

	if prev != nil && prev.LiquidityUSD > 0 {
		drop := (prev.LiquidityUSD - snap.LiquidityUSD) / prev.LiquidityUSD * 100
		if drop > liquidityAlertPct {
			mk(domain.SeverityHigh, domain.TriggerLiquidityDrop,
				fmt.Sprintf("liquidity drop > %d%% between snapshots", liquidityAlertPct),
				fmt.Sprintf("liquidity fell %.1f%%, from $%.0f to $%.0f", drop, prev.LiquidityUSD, snap.LiquidityUSD))
		}
	}
	if prev != nil && prev.HolderCount != nil && snap.HolderCount != nil && *prev.HolderCount > 0 {
		drop := float64(*prev.HolderCount-*snap.HolderCount) / float64(*prev.HolderCount) * 100
		if drop > holderAlertPct {
			mk(domain.SeverityMedium, domain.TriggerHolderLoss,
				fmt.Sprintf("holder count drop > %d%% between snapshots", holderAlertPct),
				fmt.Sprintf("holders fell %.1f%%, from %d to %d", drop, *prev.HolderCount, *snap.HolderCount))
		}
	}
	if snap.PriceChange24h != nil && *snap.PriceChange24h < -priceCrashPct {
		mk(domain.SeverityHigh, domain.TriggerPriceCrash,
			fmt.Sprintf("24h price change below -%d%%", priceCrashPct),
			fmt.Sprintf("price moved %.1f%% over 24h", *snap.PriceChange24h))
	}
	return alerts
}
