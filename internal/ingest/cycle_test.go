package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/notify"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/store"
)

const (
	bonkAddr = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	wsolAddr = "So11111111111111111111111111111111111111112"
)

func fptr(f float64) *float64 { return &f }
func iptr(n int64) *int64     { return &n }

type fakePairs struct {
	searchErr error
	block     chan struct{}
}

func (f *fakePairs) Search(_ context.Context, _ string) (providers.DexPairsPayload, error) {
	if f.block != nil {
		<-f.block
	}
	if f.searchErr != nil {
		return providers.DexPairsPayload{}, f.searchErr
	}
	return providers.DexPairsPayload{
		Source: "dexscreener",
		Pairs: []providers.DexPair{{
			ChainID:      "solana",
			Base:         providers.TokenRef{Address: bonkAddr, Symbol: "BONK"},
			Quote:        providers.TokenRef{Address: wsolAddr, Symbol: "SOL"},
			PriceUSD:     fptr(0.01),
			LiquidityUSD: fptr(50000),
			Volume24h:    fptr(10000),
			Txns:         &domain.TxnCounts{H24Buys: iptr(5)},
		}},
	}, nil
}

func (f *fakePairs) TokenPairs(_ context.Context, _ string) (providers.DexPairsPayload, error) {
	return providers.DexPairsPayload{Source: "dexscreener"}, nil
}

func (f *fakePairs) TokenProfiles(context.Context) ([]providers.TokenProfile, error) {
	return nil, nil
}

type fakeAgg struct {
	err error
}

func (f *fakeAgg) TrendingPools(context.Context, string) (providers.AggregatorPayload, error) {
	if f.err != nil {
		return providers.AggregatorPayload{}, f.err
	}
	return providers.AggregatorPayload{
		Source: "geckoterminal",
		Entries: []providers.AggregatorEntry{{
			ChainID: "solana", Address: bonkAddr, PriceUSD: fptr(0.011),
		}},
	}, nil
}

type fakeCap struct{}

func (fakeCap) Name() string { return "birdeye" }
func (fakeCap) TokenMarket(_ context.Context, address string) (providers.MarketCapPayload, error) {
	return providers.MarketCapPayload{
		Source: "birdeye",
		Entries: []providers.MarketCapEntry{{
			ChainID: "solana", Address: address, Holders: iptr(4200),
		}},
	}, nil
}

type captureNotifier struct {
	mu     sync.Mutex
	deltas []notify.Delta
}

func (c *captureNotifier) Notify(_ context.Context, d notify.Delta) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltas = append(c.deltas, d)
	return nil
}

func testConfig() Config {
	return Config{Queries: []string{"solana"}, Networks: []string{"solana"}, EnrichLimit: 10, EnrichWorkers: 2}
}

func TestCyclePersistsMergedTokens(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &captureNotifier{}
	c := NewCycle(&fakePairs{}, &fakeAgg{}, []providers.MarketCapSource{fakeCap{}}, st, notifier, nil, testConfig())

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, summary.Skipped)
	assert.Equal(t, 1, summary.Merged)
	require.Len(t, summary.New, 1)
	assert.Empty(t, summary.Updated)

	rec, err := st.FindByAddress(context.Background(), domain.ChainSolana, bonkAddr)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 0.011, rec.Market.PriceUSD, "aggregator overwrite should land")
	require.NotNil(t, rec.Market.Holders)
	assert.Equal(t, int64(4200), *rec.Market.Holders, "enrichment should land")

	require.Len(t, notifier.deltas, 1)
	assert.Equal(t, summary.New, notifier.deltas[0].New)
}

func TestCycleSecondRunReportsUpdated(t *testing.T) {
	st := store.NewMemoryStore()
	c := NewCycle(&fakePairs{}, nil, nil, st, nil, nil, testConfig())

	_, err := c.Run(context.Background())
	require.NoError(t, err)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summary.New)
	require.Len(t, summary.Updated, 1)
}

func TestCycleToleratesProviderFailure(t *testing.T) {
	st := store.NewMemoryStore()
	c := NewCycle(&fakePairs{}, &fakeAgg{err: errors.New("rate limited")}, nil, st, nil, nil, testConfig())

	summary, err := c.Run(context.Background())
	require.NoError(t, err, "one failing provider must not fail the cycle")
	assert.Equal(t, 1, summary.Failures)
	assert.Equal(t, 1, summary.Merged)
}

func TestCycleSkipsOverlappingTrigger(t *testing.T) {
	pairs := &fakePairs{block: make(chan struct{})}
	c := NewCycle(pairs, nil, nil, store.NewMemoryStore(), nil, nil, testConfig())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := c.Run(context.Background())
		assert.NoError(t, err)
	}()

	// Wait for the first run to take the guard, then trigger again.
	require.Eventually(t, func() bool {
		return c.inFlight.Load()
	}, time.Second, 5*time.Millisecond)

	summary, err := c.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, summary.Skipped)

	close(pairs.block)
	<-done
}

func TestCandidateAddressesOrderedByLiquidity(t *testing.T) {
	payloads := []providers.ProviderPayload{providers.DexPairsPayload{
		Source: "dexscreener",
		Pairs: []providers.DexPair{
			{ChainID: "solana", Base: providers.TokenRef{Address: "shallow"}, LiquidityUSD: fptr(100)},
			{ChainID: "solana", Base: providers.TokenRef{Address: "deep"}, LiquidityUSD: fptr(90000)},
			{ChainID: "solana", Base: providers.TokenRef{Address: "mid"}, LiquidityUSD: fptr(5000)},
			{ChainID: "ethereum", Base: providers.TokenRef{Address: "evm"}, LiquidityUSD: fptr(999999)},
			{ChainID: "solana", Base: providers.TokenRef{Address: "deep"}, LiquidityUSD: fptr(90000)},
		},
	}}

	got := candidateAddresses(payloads, 2)
	assert.Equal(t, []string{"deep", "mid"}, got)
}
