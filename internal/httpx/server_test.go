package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/metrics"
	"github.com/tokenvet/tokenvet/internal/store"
)

const tokenAddr = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"

func testServer(t *testing.T) (*store.MemoryStore, *httptest.Server) {
	t.Helper()
	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.NewRegistry().Register(reg))

	s := NewServer(":0", st, reg)
	srv := httptest.NewServer(s.http.Handler)
	t.Cleanup(srv.Close)
	return st, srv
}

func TestHealthz(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTokenLookup(t *testing.T) {
	st, srv := testServer(t)
	_, err := st.UpsertMarketMetadata(context.Background(), &domain.TokenRecord{
		Chain:   domain.ChainSolana,
		Address: tokenAddr,
		Symbol:  "BONK",
		Market:  domain.MarketInfo{LiquidityUSD: 50000, Source: "dexscreener"},
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/tokens/solana/" + tokenAddr)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rec domain.TokenRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	assert.Equal(t, "BONK", rec.Symbol)
}

func TestTokenLookupNotFound(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/tokens/solana/" + tokenAddr)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestTokenLookupRejectsBadInput(t *testing.T) {
	_, srv := testServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/tokens/dogechain/" + tokenAddr)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/v1/tokens/solana/not-an-address")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVettingLookup(t *testing.T) {
	st, srv := testServer(t)
	require.NoError(t, st.SaveVettingResults(context.Background(), &domain.VettingResults{
		Chain: domain.ChainSolana, Address: tokenAddr,
		OverallScore: 72, RiskLevel: domain.RiskLow, EligibleTier: domain.TierStellar,
	}))

	resp, err := http.Get(srv.URL + "/api/v1/tokens/solana/" + tokenAddr + "/vetting")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res domain.VettingResults
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Equal(t, 72, res.OverallScore)
	assert.Equal(t, domain.TierStellar, res.EligibleTier)
}
