package ingest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/merge"
	"github.com/tokenvet/tokenvet/internal/metrics"
	"github.com/tokenvet/tokenvet/internal/notify"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/store"
)

// PairsSource is the market-pairs provider as the cycle consumes it.
type PairsSource interface {
	Search(ctx context.Context, query string) (providers.DexPairsPayload, error)
	TokenPairs(ctx context.Context, address string) (providers.DexPairsPayload, error)
	TokenProfiles(ctx context.Context) ([]providers.TokenProfile, error)
}

// AggregatorSource is the secondary aggregator as the cycle consumes
// it.
type AggregatorSource interface {
	TrendingPools(ctx context.Context, network string) (providers.AggregatorPayload, error)
}

// Notifier pushes ingest deltas to the notification channel.
type Notifier interface {
	Notify(ctx context.Context, delta notify.Delta) error
}

// Config controls one ingestion cycle.
type Config struct {
	// Queries are the DexScreener search terms seeding discovery.
	Queries []string `yaml:"queries"`
	// Networks are the aggregator networks to poll.
	Networks []string `yaml:"networks"`
	// EnrichLimit bounds how many merged candidates get a per-address
	// market-cap enrichment call.
	EnrichLimit int `yaml:"enrich_limit"`
	// EnrichWorkers bounds enrichment concurrency.
	EnrichWorkers int `yaml:"enrich_workers"`
}

// DefaultConfig returns the ingestion defaults.
func DefaultConfig() Config {
	return Config{
		Queries:       []string{"solana"},
		Networks:      []string{"solana"},
		EnrichLimit:   25,
		EnrichWorkers: 4,
	}
}

// Summary is the structured result of one ingestion cycle.
type Summary struct {
	Skipped  bool
	APICalls int
	Failures int
	Merged   int
	New      []string
	Updated  []string
	Duration time.Duration
}

// Cycle runs the ingestion pipeline: concurrent provider fan-out,
// merge, persist, notify. An atomic in-flight guard makes overlapping
// triggers skip instead of queueing; the superseding trigger will see
// the fresher data anyway.
type Cycle struct {
	pairs    PairsSource
	agg      AggregatorSource
	caps     []providers.MarketCapSource
	store    store.TokenStore
	notifier Notifier
	metrics  *metrics.Registry
	cfg      Config

	inFlight atomic.Bool
}

// NewCycle wires an ingestion cycle. agg, caps, notifier and metrics
// may each be nil.
func NewCycle(pairs PairsSource, agg AggregatorSource, caps []providers.MarketCapSource,
	st store.TokenStore, notifier Notifier, m *metrics.Registry, cfg Config) *Cycle {
	return &Cycle{
		pairs:    pairs,
		agg:      agg,
		caps:     caps,
		store:    st,
		notifier: notifier,
		metrics:  m,
		cfg:      cfg,
	}
}

// Run executes one full cycle. Provider failures never fail the run;
// they are logged, counted and the merge proceeds on what arrived.
func (c *Cycle) Run(ctx context.Context) (*Summary, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		log.Warn().Msg("ingest cycle already running, trigger skipped")
		return &Summary{Skipped: true}, nil
	}
	defer c.inFlight.Store(false)

	start := time.Now()
	summary := &Summary{}

	payloads := c.collect(ctx, summary)
	payloads = append(payloads, c.enrich(ctx, payloads, summary)...)

	records := merge.Merge(payloads)
	summary.Merged = len(records)
	if c.metrics != nil {
		c.metrics.TokensMerged.Add(float64(len(records)))
	}

	for key, rec := range records {
		created, err := c.store.UpsertMarketMetadata(ctx, rec)
		if err != nil {
			summary.Failures++
			log.Error().Err(err).Str("token", key.String()).Msg("token upsert failed")
			continue
		}
		if created {
			summary.New = append(summary.New, key.String())
		} else {
			summary.Updated = append(summary.Updated, key.String())
		}
	}

	c.sendDelta(ctx, summary)

	summary.Duration = time.Since(start)
	if c.metrics != nil {
		c.metrics.CycleDuration.WithLabelValues("ingest").Observe(summary.Duration.Seconds())
	}
	log.Info().
		Int("api_calls", summary.APICalls).
		Int("failures", summary.Failures).
		Int("merged", summary.Merged).
		Int("new", len(summary.New)).
		Int("updated", len(summary.Updated)).
		Dur("duration", summary.Duration).
		Msg("ingest cycle finished")
	return summary, nil
}

// collect fans out the first-phase fetches concurrently and gathers
// whatever payloads arrive.
func (c *Cycle) collect(ctx context.Context, summary *Summary) []providers.ProviderPayload {
	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		payloads []providers.ProviderPayload
		failures int
		calls    int
	)
	add := func(p providers.ProviderPayload, err error, what string) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if err != nil {
			failures++
			log.Warn().Err(err).Str("fetch", what).Msg("provider fetch failed, continuing without it")
			return
		}
		payloads = append(payloads, p)
	}

	for _, query := range c.cfg.Queries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			p, err := c.pairs.Search(ctx, q)
			add(p, err, "dex search "+q)
		}(query)
	}

	if c.agg != nil {
		for _, network := range c.cfg.Networks {
			wg.Add(1)
			go func(n string) {
				defer wg.Done()
				p, err := c.agg.TrendingPools(ctx, n)
				add(p, err, "aggregator pools "+n)
			}(network)
		}
	}

	// Token profiles seed extra pair lookups for recently promoted
	// tokens that search misses.
	wg.Add(1)
	go func() {
		defer wg.Done()
		profiles, err := c.pairs.TokenProfiles(ctx)
		mu.Lock()
		calls++
		if err != nil {
			failures++
			mu.Unlock()
			log.Warn().Err(err).Msg("token profiles fetch failed, continuing without it")
			return
		}
		mu.Unlock()

		var inner sync.WaitGroup
		for _, profile := range profiles {
			if _, known := domain.ParseChain(profile.ChainID); !known {
				continue
			}
			inner.Add(1)
			go func(address string) {
				defer inner.Done()
				p, err := c.pairs.TokenPairs(ctx, address)
				add(p, err, "token pairs "+address)
			}(profile.Address)
		}
		inner.Wait()
	}()

	wg.Wait()
	summary.APICalls += calls
	summary.Failures += failures
	return payloads
}

// enrich runs the bounded second phase: per-address market-cap lookups
// for candidates the pairs phase produced.
func (c *Cycle) enrich(ctx context.Context, payloads []providers.ProviderPayload, summary *Summary) []providers.ProviderPayload {
	if len(c.caps) == 0 {
		return nil
	}
	addresses := candidateAddresses(payloads, c.cfg.EnrichLimit)
	if len(addresses) == 0 {
		return nil
	}

	workers := c.cfg.EnrichWorkers
	if workers <= 0 {
		workers = 4
	}
	sem := make(chan struct{}, workers)

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		enriched []providers.ProviderPayload
		failures int
		calls    int
	)
	for _, address := range addresses {
		for _, source := range c.caps {
			wg.Add(1)
			go func(src providers.MarketCapSource, addr string) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				p, err := src.TokenMarket(ctx, addr)
				mu.Lock()
				defer mu.Unlock()
				calls++
				if err != nil {
					failures++
					log.Warn().Err(err).Str("provider", src.Name()).Str("address", addr).
						Msg("enrichment fetch failed, continuing without it")
					return
				}
				enriched = append(enriched, p)
			}(source, address)
		}
	}
	wg.Wait()
	summary.APICalls += calls
	summary.Failures += failures
	return enriched
}

// candidateAddresses picks the Solana candidates from the pairs
// payloads, highest liquidity first, truncated to limit.
func candidateAddresses(payloads []providers.ProviderPayload, limit int) []string {
	type candidate struct {
		address   string
		liquidity float64
	}
	seen := make(map[string]struct{})
	var candidates []candidate
	for _, payload := range payloads {
		pairs, ok := payload.(providers.DexPairsPayload)
		if !ok {
			continue
		}
		for _, pair := range pairs.Pairs {
			chain, known := domain.ParseChain(pair.ChainID)
			if !known || chain != domain.ChainSolana {
				continue
			}
			addr := pair.Base.Address
			if _, dup := seen[addr]; dup || addr == "" {
				continue
			}
			seen[addr] = struct{}{}
			liq := 0.0
			if pair.LiquidityUSD != nil {
				liq = *pair.LiquidityUSD
			}
			candidates = append(candidates, candidate{address: addr, liquidity: liq})
		}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].liquidity > candidates[j-1].liquidity; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.address
	}
	return out
}

// sendDelta pushes the cycle delta to the notification channel,
// best effort: an unreachable channel never blocks persistence.
func (c *Cycle) sendDelta(ctx context.Context, summary *Summary) {
	if c.notifier == nil || len(summary.New)+len(summary.Updated) == 0 {
		return
	}
	delta := notify.Delta{New: summary.New, Updated: summary.Updated}
	if err := c.notifier.Notify(ctx, delta); err != nil {
		log.Warn().Err(err).Msg("delta notification failed, ignoring")
	}
}
