package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/store"
)

const monitoredAddr = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func fptr(f float64) *float64 { return &f }
func iptr(n int64) *int64     { return &n }

type fakeMarket struct {
	liquidity float64
	change24h *float64
	err       error
}

func (f *fakeMarket) TokenPairs(_ context.Context, address string) (providers.DexPairsPayload, error) {
	if f.err != nil {
		return providers.DexPairsPayload{}, f.err
	}
	return providers.DexPairsPayload{
		Source: "dexscreener",
		Pairs: []providers.DexPair{{
			ChainID:      "solana",
			Base:         providers.TokenRef{Address: address, Symbol: "TKN"},
			PriceUSD:     fptr(0.01),
			LiquidityUSD: fptr(f.liquidity),
			Volume24h:    fptr(10000),
			PriceChange:  domain.PriceChange{H24: f.change24h},
		}},
	}, nil
}

type fakeHolders struct {
	count *int64
}

func (f *fakeHolders) TokenSecurity(context.Context, domain.Chain, string) (*providers.SecurityReport, error) {
	if f.count == nil {
		return &providers.SecurityReport{}, nil
	}
	return &providers.SecurityReport{Holders: &domain.HolderInfo{Count: f.count}}, nil
}

func vettedStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	_, err := st.UpsertMarketMetadata(ctx, &domain.TokenRecord{
		Chain:   domain.ChainSolana,
		Address: monitoredAddr,
		Market:  domain.MarketInfo{LiquidityUSD: 100000, Source: "dexscreener"},
	})
	require.NoError(t, err)
	require.NoError(t, st.SaveVettingResults(ctx, &domain.VettingResults{
		Chain: domain.ChainSolana, Address: monitoredAddr, OverallScore: 75,
	}))
	return st
}

func newTestSampler(st *store.MemoryStore, market MarketSource, holders HolderSource) *Sampler {
	return NewSampler(st, market, holders, nil, Config{Workers: 1, BatchSize: 10})
}

func TestFirstSampleIsStable(t *testing.T) {
	st := vettedStore(t)
	s := newTestSampler(st, &fakeMarket{liquidity: 100000}, &fakeHolders{count: iptr(1000)})

	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Sampled)
	assert.Zero(t, summary.Alerts)

	snap, err := st.LatestSnapshot(context.Background(), domain.ChainSolana, monitoredAddr)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, domain.TrendStable, snap.LiquidityTrend)
	assert.Equal(t, domain.TrendStable, snap.HolderTrend)
	assert.Equal(t, domain.TrendStable, snap.ActivityTrend)
	assert.NotEmpty(t, snap.ID)
}

func TestLiquidityDropFiresHighAlert(t *testing.T) {
	st := vettedStore(t)
	market := &fakeMarket{liquidity: 100000}
	s := newTestSampler(st, market, &fakeHolders{count: iptr(1000)})

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	// 25% drop between cycles.
	market.liquidity = 75000
	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Alerts)

	alerts := st.Alerts(domain.ChainSolana, monitoredAddr)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.TriggerLiquidityDrop, alerts[0].TriggerType)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
	assert.True(t, alerts[0].Detected)

	snap, err := st.LatestSnapshot(context.Background(), domain.ChainSolana, monitoredAddr)
	require.NoError(t, err)
	assert.Equal(t, domain.TrendDecreasing, snap.LiquidityTrend)
}

func TestModerateMoveStaysQuiet(t *testing.T) {
	st := vettedStore(t)
	market := &fakeMarket{liquidity: 100000}
	s := newTestSampler(st, market, &fakeHolders{count: iptr(1000)})

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	// 5% drop: inside both the trend and alert thresholds.
	market.liquidity = 95000
	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, summary.Alerts)
	assert.Empty(t, st.Alerts(domain.ChainSolana, monitoredAddr))
}

func TestHolderExodusFiresMediumAlert(t *testing.T) {
	st := vettedStore(t)
	holders := &fakeHolders{count: iptr(1000)}
	s := newTestSampler(st, &fakeMarket{liquidity: 100000}, holders)

	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	holders.count = iptr(880)
	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Alerts)

	alerts := st.Alerts(domain.ChainSolana, monitoredAddr)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.TriggerHolderLoss, alerts[0].TriggerType)
	assert.Equal(t, domain.SeverityMedium, alerts[0].Severity)
}

func TestPriceCrashNeedsNoBaseline(t *testing.T) {
	st := vettedStore(t)
	s := newTestSampler(st, &fakeMarket{liquidity: 100000, change24h: fptr(-45)}, nil)

	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Alerts)

	alerts := st.Alerts(domain.ChainSolana, monitoredAddr)
	require.Len(t, alerts, 1)
	assert.Equal(t, domain.TriggerPriceCrash, alerts[0].TriggerType)
	assert.Equal(t, domain.SeverityHigh, alerts[0].Severity)
}

func TestMarketFailureSkipsSample(t *testing.T) {
	st := vettedStore(t)
	s := newTestSampler(st, &fakeMarket{err: errors.New("upstream 503")}, nil)

	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Failures)
	assert.Zero(t, summary.Sampled)
	assert.Zero(t, st.SnapshotCount(domain.ChainSolana, monitoredAddr))
}

func TestTrendClassification(t *testing.T) {
	cases := []struct {
		name      string
		prev, cur float64
		want      domain.Trend
	}{
		{"growth beyond threshold", 100, 120, domain.TrendIncreasing},
		{"drop beyond threshold", 100, 80, domain.TrendDecreasing},
		{"inside threshold", 100, 104, domain.TrendStable},
		{"no baseline", 0, 500, domain.TrendStable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, trendOf(tc.prev, tc.cur, 10))
		})
	}
}
