package merge

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/providers"
)

const (
	bonkAddr = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	jupAddr  = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	wsolAddr = "So11111111111111111111111111111111111111112"
	uniAddr  = "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"
)

func fptr(f float64) *float64 { return &f }
func iptr(n int64) *int64     { return &n }

func dexPair(address string) providers.DexPair {
	return providers.DexPair{
		ChainID:     "solana",
		PairAddress: "pair-" + address[:8],
		Base:        providers.TokenRef{Address: address, Symbol: "TKN", Name: "Token"},
		Quote:       providers.TokenRef{Address: wsolAddr, Symbol: "SOL"},
		PriceUSD:    fptr(0.01),
		LiquidityUSD: fptr(50000),
		Volume24h:   fptr(10000),
		Txns:        &domain.TxnCounts{H24Buys: iptr(5)},
	}
}

func TestMergeAcceptsCompletePair(t *testing.T) {
	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{dexPair(bonkAddr)}},
	})

	require.Len(t, out, 1)
	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, "dexscreener", rec.Market.Source)
	assert.Equal(t, 0.01, rec.Market.PriceUSD)
	assert.Equal(t, 50000.0, rec.Market.LiquidityUSD)
	assert.Equal(t, 10000.0, rec.Market.Volume24h)
	require.NotNil(t, rec.Market.Txns)
	assert.True(t, rec.Market.Txns.Any())
}

func TestMergeResolvesCounterSide(t *testing.T) {
	pair := dexPair(bonkAddr)
	pair.Base, pair.Quote = pair.Quote, pair.Base

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})

	require.Len(t, out, 1)
	_, ok := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	assert.True(t, ok, "token should be keyed by the non-quote side")
}

func TestMergeDropsQuoteOnlyPair(t *testing.T) {
	pair := dexPair(wsolAddr)
	pair.Quote = providers.TokenRef{Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Symbol: "USDC"}

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})
	assert.Empty(t, out)
}

func TestMergeDropsUnknownChain(t *testing.T) {
	pair := dexPair(bonkAddr)
	pair.ChainID = "dogechain"

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})
	assert.Empty(t, out)
}

func TestMergeDropsMalformedAddress(t *testing.T) {
	pair := dexPair(bonkAddr)
	pair.Base.Address = "not/a/real-address.json"

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})
	assert.Empty(t, out)
}

func TestMergeValidatesAddressPerChain(t *testing.T) {
	pair := dexPair(bonkAddr)
	pair.ChainID = "ethereum"
	pair.Base.Address = uniAddr
	pair.Quote.Address = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	pair.Quote.Symbol = "WETH"

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})
	require.Len(t, out, 1)
	_, ok := out[domain.TokenKey{Chain: domain.ChainEthereum, Address: uniAddr}]
	assert.True(t, ok)
}

func TestMergeRequiresCoreMetrics(t *testing.T) {
	noLiq := dexPair(bonkAddr)
	noLiq.LiquidityUSD = nil
	noTxns := dexPair(jupAddr)
	noTxns.Txns = nil

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{noLiq, noTxns}},
	})
	assert.Empty(t, out)
}

func TestMergeSameSourceKeepsDeeperPair(t *testing.T) {
	shallow := dexPair(bonkAddr)
	shallow.LiquidityUSD = fptr(1000)
	deep := dexPair(bonkAddr)
	deep.LiquidityUSD = fptr(90000)

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{deep, shallow}},
	})

	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, 90000.0, rec.Market.LiquidityUSD)
}

func TestMergeDropsAggregatorOnlyEntries(t *testing.T) {
	out := Merge([]providers.ProviderPayload{
		providers.AggregatorPayload{
			Source: "geckoterminal",
			Entries: []providers.AggregatorEntry{{
				ChainID:      "solana",
				Address:      bonkAddr,
				PriceUSD:     fptr(0.02),
				LiquidityUSD: fptr(70000),
			}},
		},
	})
	assert.Empty(t, out, "entries without transaction context must not create records")
}

func TestMergeAggregatorOverwritesExisting(t *testing.T) {
	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{dexPair(bonkAddr)}},
		providers.AggregatorPayload{
			Source: "geckoterminal",
			Entries: []providers.AggregatorEntry{{
				ChainID:        "solana",
				Address:        bonkAddr,
				PriceUSD:       fptr(0.02),
				LiquidityUSD:   fptr(70000),
				PriceChange24h: fptr(-3.5),
			}},
		},
	})

	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, 0.02, rec.Market.PriceUSD)
	assert.Equal(t, 70000.0, rec.Market.LiquidityUSD)
	assert.Equal(t, "geckoterminal", rec.Market.Source, "last validated write wins")
	require.NotNil(t, rec.Market.PriceChange.H24)
	assert.Equal(t, -3.5, *rec.Market.PriceChange.H24)
	assert.True(t, rec.Market.Txns.Any(), "transaction data must survive aggregator overwrites")
}

func TestMergeMarketCapEnrichesWithoutCreating(t *testing.T) {
	capPayload := providers.MarketCapPayload{
		Source: "birdeye",
		Entries: []providers.MarketCapEntry{{
			ChainID:   "solana",
			Address:   bonkAddr,
			MarketCap: fptr(1500000),
			Holders:   iptr(4200),
			LogoURL:   "https://img.example/bonk.png",
		}},
	}

	alone := Merge([]providers.ProviderPayload{capPayload})
	assert.Empty(t, alone, "enrichment never creates records")

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{dexPair(bonkAddr)}},
		capPayload,
	})
	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, 1500000.0, rec.Market.FDV)
	require.NotNil(t, rec.Market.Holders)
	assert.Equal(t, int64(4200), *rec.Market.Holders)
	assert.Equal(t, "https://img.example/bonk.png", rec.LogoURL)
}

func TestMergeHoldersLargerCountWins(t *testing.T) {
	pair := providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{dexPair(bonkAddr)}}
	small := providers.MarketCapPayload{Source: "solscan", Entries: []providers.MarketCapEntry{{
		ChainID: "solana", Address: bonkAddr, Holders: iptr(100),
	}}}
	big := providers.MarketCapPayload{Source: "birdeye", Entries: []providers.MarketCapEntry{{
		ChainID: "solana", Address: bonkAddr, Holders: iptr(900),
	}}}

	out := Merge([]providers.ProviderPayload{pair, big, small})
	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	require.NotNil(t, rec.Market.Holders)
	assert.Equal(t, int64(900), *rec.Market.Holders, "a smaller later count must not shrink holders")
}

func TestMergeIsDeterministic(t *testing.T) {
	created := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	pair := dexPair(bonkAddr)
	pair.CreatedAt = &created
	payloads := []providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair, dexPair(jupAddr)}},
		providers.AggregatorPayload{Source: "geckoterminal", Entries: []providers.AggregatorEntry{{
			ChainID: "solana", Address: bonkAddr, PriceUSD: fptr(0.02),
		}}},
	}

	first := Merge(payloads)
	second := Merge(payloads)
	assert.Equal(t, first, second)
}

func TestMergeNormalizesNonFiniteNumbers(t *testing.T) {
	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{dexPair(bonkAddr)}},
		providers.AggregatorPayload{Source: "geckoterminal", Entries: []providers.AggregatorEntry{{
			ChainID:  "solana",
			Address:  bonkAddr,
			PriceUSD: fptr(math.Inf(1)),
		}}},
	})

	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, 0.0, rec.Market.PriceUSD)
}

func TestMergeFirstSeenFromPairCreation(t *testing.T) {
	created := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	pair := dexPair(bonkAddr)
	pair.CreatedAt = &created

	out := Merge([]providers.ProviderPayload{
		providers.DexPairsPayload{Source: "dexscreener", Pairs: []providers.DexPair{pair}},
	})
	rec := out[domain.TokenKey{Chain: domain.ChainSolana, Address: bonkAddr}]
	require.NotNil(t, rec)
	assert.Equal(t, created, rec.FirstSeenAt)
}
