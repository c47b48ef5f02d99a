package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/tokenvet/tokenvet/internal/metrics"
)

// Market-cap enrichment provider tags.
const (
	SourceBirdeye = "birdeye"
	SourceSolscan = "solscan"
)

// Birdeye is a Solana market-cap/holder enrichment provider.
type Birdeye struct {
	client *Client
}

// NewBirdeye builds the Birdeye adapter. Auth goes in the X-API-KEY
// header.
func NewBirdeye(cfg ClientConfig, m *metrics.Registry) *Birdeye {
	if cfg.Name == "" {
		cfg.Name = SourceBirdeye
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://public-api.birdeye.so"
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "X-API-KEY"
	}
	return &Birdeye{client: NewClient(cfg, m)}
}

type birdeyeOverviewResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}

// TokenOverview fetches /defi/token_overview for one mint. Field names
// in the response drift between API revisions, so the numeric fields
// are dug out defensively.
func (b *Birdeye) TokenOverview(ctx context.Context, address string) (MarketCapPayload, error) {
	var resp birdeyeOverviewResponse
	q := url.Values{"address": []string{address}}
	if err := b.client.GetJSON(ctx, "/defi/token_overview", q, &resp); err != nil {
		return MarketCapPayload{}, fmt.Errorf("birdeye overview %s: %w", address, err)
	}
	if !resp.Success || resp.Data == nil {
		return MarketCapPayload{Source: SourceBirdeye}, nil
	}

	d := resp.Data
	entry := MarketCapEntry{
		ChainID:      "solana",
		Address:      address,
		Symbol:       stringFrom(d, "symbol"),
		Name:         stringFrom(d, "name"),
		PriceUSD:     parseFloat(d["price"]),
		MarketCap:    firstFloat(d, "mc", "marketCap", "market_cap"),
		FDV:          firstFloat(d, "fdv", "realMc"),
		LiquidityUSD: parseFloat(d["liquidity"]),
		Volume24h:    firstFloat(d, "v24hUSD", "volume24hUSD", "volume_24h"),
		Holders:      holderCountFrom(d),
		LogoURL:      stringFrom(d, "logoURI"),
	}
	return MarketCapPayload{Source: SourceBirdeye, Entries: []MarketCapEntry{entry}}, nil
}

// Solscan is a Solana token-meta enrichment provider.
type Solscan struct {
	client *Client
}

// NewSolscan builds the Solscan adapter. Auth goes in the token
// header.
func NewSolscan(cfg ClientConfig, m *metrics.Registry) *Solscan {
	if cfg.Name == "" {
		cfg.Name = SourceSolscan
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://pro-api.solscan.io"
	}
	if cfg.APIKeyHeader == "" {
		cfg.APIKeyHeader = "token"
	}
	return &Solscan{client: NewClient(cfg, m)}
}

type solscanMetaResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// TokenMeta fetches /v2.0/token/meta for one mint.
func (s *Solscan) TokenMeta(ctx context.Context, address string) (MarketCapPayload, error) {
	var resp solscanMetaResponse
	q := url.Values{"address": []string{address}}
	if err := s.client.GetJSON(ctx, "/v2.0/token/meta", q, &resp); err != nil {
		return MarketCapPayload{}, fmt.Errorf("solscan meta %s: %w", address, err)
	}
	var d map[string]any
	if len(resp.Data) == 0 || json.Unmarshal(resp.Data, &d) != nil || d == nil {
		return MarketCapPayload{Source: SourceSolscan}, nil
	}

	entry := MarketCapEntry{
		ChainID:   "solana",
		Address:   address,
		Symbol:    stringFrom(d, "symbol"),
		Name:      stringFrom(d, "name"),
		PriceUSD:  parseFloat(d["price"]),
		MarketCap: firstFloat(d, "market_cap", "marketCap", "mc"),
		Volume24h: firstFloat(d, "volume_24h", "v24hUSD"),
		Holders:   holderCountFrom(d),
		LogoURL:   stringFrom(d, "icon"),
	}
	return MarketCapPayload{Source: SourceSolscan, Entries: []MarketCapEntry{entry}}, nil
}

func stringFrom(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func firstFloat(m map[string]any, names ...string) *float64 {
	for _, name := range names {
		if v, ok := m[name]; ok {
			if f := parseFloat(v); f != nil {
				return f
			}
		}
	}
	return nil
}
