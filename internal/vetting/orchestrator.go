package vetting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/cache"
	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/metrics"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/scoring"
	"github.com/tokenvet/tokenvet/internal/store"
)

// ErrVettingInProgress is returned when a second vetting pass is
// requested for a token that is currently being processed.
var ErrVettingInProgress = errors.New("vetting already in progress for this token")

// ErrUnknownToken is returned when the requested token has no
// canonical record yet.
var ErrUnknownToken = errors.New("no token record for address")

// SecuritySource supplies per-token security audits.
type SecuritySource interface {
	TokenSecurity(ctx context.Context, chain domain.Chain, address string) (*providers.SecurityReport, error)
}

// Config controls the vetting orchestrator.
type Config struct {
	// Workers bounds how many tokens are vetted concurrently.
	Workers int `yaml:"workers"`
	// BatchSize caps how much backlog one cycle takes on.
	BatchSize int `yaml:"batch_size"`
	// TokenDelay spaces consecutive tokens per worker to respect
	// provider rate limits.
	TokenDelay time.Duration `yaml:"token_delay"`
	// CacheTTL is how long security lookups stay fresh.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns the vetting defaults.
func DefaultConfig() Config {
	return Config{
		Workers:    3,
		BatchSize:  50,
		TokenDelay: 500 * time.Millisecond,
		CacheTTL:   15 * time.Minute,
	}
}

// Summary is the structured result of one backlog pass.
type Summary struct {
	Processed int
	Failures  int
	Duration  time.Duration
}

// Orchestrator assembles TokenVettingData from the canonical record
// plus security/holder/creator lookups, runs the scoring engine and
// persists the results. Within one (chain, address) key passes are
// serialized; across keys a bounded worker pool runs them
// concurrently.
type Orchestrator struct {
	store    store.TokenStore
	security SecuritySource
	cache    cache.Cache
	engine   *scoring.Engine
	metrics  *metrics.Registry
	cfg      Config

	mu       sync.Mutex
	inflight map[domain.TokenKey]struct{}
}

// NewOrchestrator wires a vetting orchestrator. security, cache and
// metrics may each be nil.
func NewOrchestrator(st store.TokenStore, security SecuritySource, c cache.Cache,
	m *metrics.Registry, cfg Config) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	return &Orchestrator{
		store:    st,
		security: security,
		cache:    c,
		engine:   scoring.NewEngine(),
		metrics:  m,
		cfg:      cfg,
		inflight: make(map[domain.TokenKey]struct{}),
	}
}

// VetBacklog scores every merged candidate that has no vetting results
// yet, up to the configured batch size.
func (o *Orchestrator) VetBacklog(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{}

	backlog, err := o.store.ListByFilter(ctx, store.Filter{
		NeedsVetting: true,
		Limit:        o.cfg.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list vetting backlog: %w", err)
	}

	jobs := make(chan *domain.TokenRecord)
	var wg sync.WaitGroup
	var mu sync.Mutex
	for i := 0; i < o.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range jobs {
				_, err := o.VetToken(ctx, rec.Chain, rec.Address)
				mu.Lock()
				if err != nil && !errors.Is(err, ErrVettingInProgress) {
					summary.Failures++
				} else {
					summary.Processed++
				}
				mu.Unlock()
				if o.cfg.TokenDelay > 0 {
					select {
					case <-time.After(o.cfg.TokenDelay):
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	for _, rec := range backlog {
		jobs <- rec
	}
	close(jobs)
	wg.Wait()

	summary.Duration = time.Since(start)
	if o.metrics != nil {
		o.metrics.CycleDuration.WithLabelValues("vetting").Observe(summary.Duration.Seconds())
	}
	log.Info().
		Int("backlog", len(backlog)).
		Int("processed", summary.Processed).
		Int("failures", summary.Failures).
		Dur("duration", summary.Duration).
		Msg("vetting cycle finished")
	return summary, nil
}

// VetToken runs one vetting pass for a single token. A persistence
// failure is surfaced to the caller but the computed results are
// returned regardless; scoring is never rolled back.
func (o *Orchestrator) VetToken(ctx context.Context, chain domain.Chain, address string) (*domain.VettingResults, error) {
	key := domain.TokenKey{Chain: chain, Address: address}
	if !o.acquire(key) {
		return nil, ErrVettingInProgress
	}
	defer o.release(key)

	rec, err := o.store.FindByAddress(ctx, chain, address)
	if err != nil {
		return nil, fmt.Errorf("load token %s: %w", key, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, key)
	}

	data := o.buildVettingData(ctx, rec)
	results := o.engine.Score(data)
	if o.metrics != nil {
		o.metrics.TokensVetted.Inc()
	}
	log.Debug().
		Str("token", key.String()).
		Int("score", results.OverallScore).
		Str("risk", string(results.RiskLevel)).
		Str("tier", string(results.EligibleTier)).
		Msg("token scored")

	if err := o.store.SaveVettingResults(ctx, results); err != nil {
		log.Error().Err(err).Str("token", key.String()).Msg("vetting results not persisted")
		return results, fmt.Errorf("save vetting results %s: %w", key, err)
	}
	return results, nil
}

// buildVettingData assembles the scoring input. Enrichment failures
// degrade to nil sections; the engine penalizes missing data instead
// of this layer refusing to score.
func (o *Orchestrator) buildVettingData(ctx context.Context, rec *domain.TokenRecord) *domain.TokenVettingData {
	data := &domain.TokenVettingData{
		Token: rec,
		Trading: &domain.TradingInfo{
			Price:          rec.Market.PriceUSD,
			Liquidity:      rec.Market.LiquidityUSD,
			Volume24h:      rec.Market.Volume24h,
			PriceChange24h: rec.Market.PriceChange.H24,
			FDV:            rec.Market.FDV,
			HolderCount:    rec.Market.Holders,
		},
	}
	if !rec.FirstSeenAt.IsZero() {
		data.TokenAgeDays = time.Since(rec.FirstSeenAt).Hours() / 24
	}

	report := o.securityReport(ctx, rec.Chain, rec.Address)
	if report != nil {
		data.Security = report.Security
		data.Holders = report.Holders
		data.Developer = report.Developer
	}
	return data
}

// securityReport fetches the security audit through the fresh-result
// cache so repeated passes within one cycle reuse one provider call.
func (o *Orchestrator) securityReport(ctx context.Context, chain domain.Chain, address string) *providers.SecurityReport {
	if o.security == nil {
		return nil
	}
	key := cache.Key("security.token", map[string]string{
		"chain":   chain.String(),
		"address": address,
	})

	if o.cache != nil {
		if raw, found, err := o.cache.Get(ctx, key); err == nil && found {
			var report providers.SecurityReport
			if json.Unmarshal(raw, &report) == nil {
				return &report
			}
		}
	}

	report, err := o.security.TokenSecurity(ctx, chain, address)
	if err != nil {
		log.Warn().Err(err).Str("chain", chain.String()).Str("address", address).
			Msg("security lookup failed, scoring without it")
		return nil
	}
	if o.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			if err := o.cache.Set(ctx, key, raw, o.cfg.CacheTTL); err != nil {
				log.Debug().Err(err).Msg("security report not cached")
			}
		}
	}
	return report
}

func (o *Orchestrator) acquire(key domain.TokenKey) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[key]; busy {
		return false
	}
	o.inflight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key domain.TokenKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inflight, key)
}
