package providers

import (
	"context"
	"fmt"
	"strings"

	"github.com/tokenvet/tokenvet/internal/metrics"
)

// SourceGeckoTerminal tags aggregator entries. GeckoTerminal reports
// price, reserves and volume but no transaction counts, so it only
// ever enriches records the pairs provider already produced.
const SourceGeckoTerminal = "geckoterminal"

// GeckoTerminal is the secondary-aggregator adapter.
type GeckoTerminal struct {
	client *Client
}

// NewGeckoTerminal builds the GeckoTerminal adapter.
func NewGeckoTerminal(cfg ClientConfig, m *metrics.Registry) *GeckoTerminal {
	if cfg.Name == "" {
		cfg.Name = SourceGeckoTerminal
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.geckoterminal.com"
	}
	return &GeckoTerminal{client: NewClient(cfg, m)}
}

type geckoPoolJSON struct {
	Attributes struct {
		Name                  string `json:"name"`
		BaseTokenPriceUSD     any    `json:"base_token_price_usd"`
		ReserveInUSD          any    `json:"reserve_in_usd"`
		VolumeUSD             struct {
			H24 any `json:"h24"`
		} `json:"volume_usd"`
		PriceChangePercentage struct {
			H24 any `json:"h24"`
		} `json:"price_change_percentage"`
	} `json:"attributes"`
	Relationships struct {
		BaseToken struct {
			Data struct {
				// ID is "<network>_<address>".
				ID string `json:"id"`
			} `json:"data"`
		} `json:"base_token"`
	} `json:"relationships"`
}

type geckoPoolsResponse struct {
	Data []geckoPoolJSON `json:"data"`
}

// TrendingPools fetches the trending pools of one network and
// normalizes them into aggregator entries.
func (g *GeckoTerminal) TrendingPools(ctx context.Context, network string) (AggregatorPayload, error) {
	var resp geckoPoolsResponse
	path := fmt.Sprintf("/api/v2/networks/%s/trending_pools", network)
	if err := g.client.GetJSON(ctx, path, nil, &resp); err != nil {
		return AggregatorPayload{}, fmt.Errorf("geckoterminal trending pools %s: %w", network, err)
	}

	entries := make([]AggregatorEntry, 0, len(resp.Data))
	for _, pool := range resp.Data {
		address := splitTokenID(pool.Relationships.BaseToken.Data.ID)
		if address == "" {
			continue
		}
		symbol, name := splitPoolName(pool.Attributes.Name)
		entries = append(entries, AggregatorEntry{
			ChainID:        network,
			Address:        address,
			Symbol:         symbol,
			Name:           name,
			PriceUSD:       parseFloat(pool.Attributes.BaseTokenPriceUSD),
			LiquidityUSD:   parseFloat(pool.Attributes.ReserveInUSD),
			Volume24h:      parseFloat(pool.Attributes.VolumeUSD.H24),
			PriceChange24h: parseFloat(pool.Attributes.PriceChangePercentage.H24),
		})
	}
	return AggregatorPayload{Source: SourceGeckoTerminal, Entries: entries}, nil
}

// splitTokenID extracts the address from a "<network>_<address>" id.
func splitTokenID(id string) string {
	if i := strings.Index(id, "_"); i >= 0 && i+1 < len(id) {
		return id[i+1:]
	}
	return ""
}

// splitPoolName derives a symbol from a "BASE / QUOTE" pool name.
func splitPoolName(name string) (symbol, full string) {
	parts := strings.SplitN(name, "/", 2)
	symbol = strings.TrimSpace(parts[0])
	return symbol, symbol
}
