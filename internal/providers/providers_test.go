package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvet/tokenvet/internal/domain"
)

func testClientConfig(name, baseURL string) ClientConfig {
	return ClientConfig{Name: name, BaseURL: baseURL, Timeout: time.Second, RPM: 6000}
}

func TestDexScreenerSearchNormalizes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/search", r.URL.Path)
		assert.Equal(t, "bonk", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"pairs":[{
			"chainId":"solana",
			"pairAddress":"pair1",
			"baseToken":{"address":"DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263","symbol":"BONK","name":"Bonk"},
			"quoteToken":{"address":"So11111111111111111111111111111111111111112","symbol":"SOL","name":"Wrapped SOL"},
			"priceUsd":"0.0000123",
			"liquidity":{"usd":54321.5},
			"fdv":"890000",
			"volume":{"h24":12000},
			"priceChange":{"h24":-4.2},
			"txns":{"h1":{"buys":3,"sells":1},"h24":{"buys":40,"sells":22}},
			"info":{"imageUrl":"https://img.example/bonk.png"},
			"pairCreatedAt":1714521600000
		}]}`))
	}))
	defer srv.Close()

	d := NewDexScreener(testClientConfig("dexscreener", srv.URL), nil)
	payload, err := d.Search(context.Background(), "bonk")
	require.NoError(t, err)
	assert.Equal(t, SourceDexScreener, payload.Source)
	require.Len(t, payload.Pairs, 1)

	pair := payload.Pairs[0]
	assert.Equal(t, "solana", pair.ChainID)
	require.NotNil(t, pair.PriceUSD)
	assert.Equal(t, 0.0000123, *pair.PriceUSD)
	require.NotNil(t, pair.LiquidityUSD)
	assert.Equal(t, 54321.5, *pair.LiquidityUSD)
	require.NotNil(t, pair.FDV)
	assert.Equal(t, 890000.0, *pair.FDV)
	require.NotNil(t, pair.PriceChange.H24)
	assert.Equal(t, -4.2, *pair.PriceChange.H24)
	require.True(t, pair.Txns.Any())
	assert.Equal(t, int64(40), *pair.Txns.H24Buys)
	require.NotNil(t, pair.CreatedAt)
	assert.Equal(t, 2024, pair.CreatedAt.Year())
	assert.Equal(t, "https://img.example/bonk.png", pair.LogoURL)
}

func TestDexScreenerOmitsEmptyTxns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"pairs":[{
			"chainId":"solana",
			"baseToken":{"address":"abc"},
			"quoteToken":{"address":"def"},
			"priceUsd":"0.5"
		}]}`))
	}))
	defer srv.Close()

	d := NewDexScreener(testClientConfig("dexscreener", srv.URL), nil)
	payload, err := d.Search(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, payload.Pairs, 1)
	assert.Nil(t, payload.Pairs[0].Txns)
	assert.Nil(t, payload.Pairs[0].LiquidityUSD)
}

func TestGoPlusSolanaSecurityNormalizes(t *testing.T) {
	addr := "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/solana/token_security", r.URL.Path)
		assert.Equal(t, addr, r.URL.Query().Get("contract_addresses"))
		w.Write([]byte(`{"code":1,"result":{"` + addr + `":{
			"is_mintable":{"status":"0"},
			"freezable":{"status":"0"},
			"total_supply":"1000000",
			"holder_count":"5200",
			"holders":[
				{"address":"h1","percent":"0.08"},
				{"address":"h2","percent":"0.03"}
			],
			"lp_holders":[
				{"address":"1nc1nerator11111111111111111111111111111111","percent":"0.95","tag":"burn","is_locked":1},
				{"address":"lp2","percent":"0.05","tag":"","is_locked":0}
			],
			"creators":[{"address":"creator1","status":"sold"}],
			"top_10_holder_rate":"0.31"
		}}}`))
	}))
	defer srv.Close()

	g := NewGoPlus(testClientConfig("goplus", srv.URL), nil)
	report, err := g.TokenSecurity(context.Background(), domain.ChainSolana, addr)
	require.NoError(t, err)

	require.NotNil(t, report.Security)
	require.NotNil(t, report.Security.IsMintable)
	assert.False(t, *report.Security.IsMintable)
	require.NotNil(t, report.Security.IsFreezable)
	assert.False(t, *report.Security.IsFreezable)
	require.NotNil(t, report.Security.LPLockPercentage)
	assert.InDelta(t, 95.0, *report.Security.LPLockPercentage, 0.001)
	require.Len(t, report.Security.LPLocks, 1)
	assert.True(t, report.Security.LPLocks[0].Burned)

	require.NotNil(t, report.Holders)
	require.NotNil(t, report.Holders.Count)
	assert.Equal(t, int64(5200), *report.Holders.Count)
	require.Len(t, report.Holders.TopHolders, 2)
	assert.InDelta(t, 8.0, report.Holders.TopHolders[0].Percentage, 0.001)

	require.NotNil(t, report.Developer)
	assert.Equal(t, "creator1", report.Developer.CreatorAddress)
	assert.Equal(t, "sold", report.Developer.CreatorStatus)
	require.NotNil(t, report.Developer.Top10HolderRate)
	assert.InDelta(t, 31.0, *report.Developer.Top10HolderRate, 0.001)
}

func TestGoPlusEVMPathAndCaseInsensitiveResult(t *testing.T) {
	addr := "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/token_security/1", r.URL.Path)
		w.Write([]byte(`{"code":1,"result":{"0x1f9840a85d5af5bf1d1762f925bdaddc4201f984":{
			"is_mintable":"0",
			"creator_address":"0xdev",
			"creator_percent":"0.02"
		}}}`))
	}))
	defer srv.Close()

	g := NewGoPlus(testClientConfig("goplus", srv.URL), nil)
	report, err := g.TokenSecurity(context.Background(), domain.ChainEthereum, addr)
	require.NoError(t, err)

	require.NotNil(t, report.Security.IsMintable)
	assert.False(t, *report.Security.IsMintable)
	require.NotNil(t, report.Developer)
	require.NotNil(t, report.Developer.CreatorBalancePercent)
	assert.InDelta(t, 2.0, *report.Developer.CreatorBalancePercent, 0.001)
}

func TestClientSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	d := NewDexScreener(testClientConfig("dexscreener", srv.URL), nil)
	_, err := d.Search(context.Background(), "x")
	assert.Error(t, err)
}
