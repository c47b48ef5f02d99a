package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/metrics"
)

// SourceDexScreener tags records the market-pairs provider produced.
const SourceDexScreener = "dexscreener"

// DexScreener is the market-pairs provider: the highest-volume feed
// and the only one that reports transaction counts.
type DexScreener struct {
	client *Client
}

// NewDexScreener builds the DexScreener adapter.
func NewDexScreener(cfg ClientConfig, m *metrics.Registry) *DexScreener {
	if cfg.Name == "" {
		cfg.Name = SourceDexScreener
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.dexscreener.com"
	}
	return &DexScreener{client: NewClient(cfg, m)}
}

type dexTxnWindowJSON struct {
	Buys  *int64 `json:"buys"`
	Sells *int64 `json:"sells"`
}

type dexPairJSON struct {
	ChainID     string `json:"chainId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"quoteToken"`
	PriceUSD  any `json:"priceUsd"`
	Liquidity struct {
		USD any `json:"usd"`
	} `json:"liquidity"`
	FDV    any `json:"fdv"`
	Volume struct {
		H24 any `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		M5  *float64 `json:"m5"`
		H1  *float64 `json:"h1"`
		H6  *float64 `json:"h6"`
		H24 *float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H1  dexTxnWindowJSON `json:"h1"`
		H24 dexTxnWindowJSON `json:"h24"`
	} `json:"txns"`
	Info struct {
		ImageURL string `json:"imageUrl"`
	} `json:"info"`
	PairCreatedAt int64 `json:"pairCreatedAt"`
}

type dexSearchResponse struct {
	Pairs []dexPairJSON `json:"pairs"`
}

// Search queries /latest/dex/search and returns the normalized pairs.
func (d *DexScreener) Search(ctx context.Context, query string) (DexPairsPayload, error) {
	var resp dexSearchResponse
	q := url.Values{"q": []string{query}}
	if err := d.client.GetJSON(ctx, "/latest/dex/search", q, &resp); err != nil {
		return DexPairsPayload{}, fmt.Errorf("dexscreener search %q: %w", query, err)
	}
	return normalizeDexPairs(resp.Pairs), nil
}

// TokenPairs fetches all pairs for a token address via
// /latest/dex/tokens/{address}.
func (d *DexScreener) TokenPairs(ctx context.Context, address string) (DexPairsPayload, error) {
	var resp dexSearchResponse
	if err := d.client.GetJSON(ctx, "/latest/dex/tokens/"+url.PathEscape(address), nil, &resp); err != nil {
		return DexPairsPayload{}, fmt.Errorf("dexscreener token pairs %s: %w", address, err)
	}
	return normalizeDexPairs(resp.Pairs), nil
}

type tokenProfileJSON struct {
	ChainID      string `json:"chainId"`
	TokenAddress string `json:"tokenAddress"`
	Icon         string `json:"icon"`
	Description  string `json:"description"`
}

// TokenProfile is one entry from the token-profiles discovery feed,
// used to seed ingestion with recently promoted tokens.
type TokenProfile struct {
	ChainID string
	Address string
	LogoURL string
}

// TokenProfiles fetches /token-profiles/latest/v1 for candidate
// discovery.
func (d *DexScreener) TokenProfiles(ctx context.Context) ([]TokenProfile, error) {
	var resp []tokenProfileJSON
	if err := d.client.GetJSON(ctx, "/token-profiles/latest/v1", nil, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener token profiles: %w", err)
	}
	profiles := make([]TokenProfile, 0, len(resp))
	for _, p := range resp {
		if p.TokenAddress == "" {
			continue
		}
		profiles = append(profiles, TokenProfile{
			ChainID: p.ChainID,
			Address: p.TokenAddress,
			LogoURL: p.Icon,
		})
	}
	return profiles, nil
}

func normalizeDexPairs(raw []dexPairJSON) DexPairsPayload {
	pairs := make([]DexPair, 0, len(raw))
	for _, p := range raw {
		pair := DexPair{
			ChainID:     p.ChainID,
			PairAddress: p.PairAddress,
			Base: TokenRef{
				Address: p.BaseToken.Address,
				Symbol:  p.BaseToken.Symbol,
				Name:    p.BaseToken.Name,
			},
			Quote: TokenRef{
				Address: p.QuoteToken.Address,
				Symbol:  p.QuoteToken.Symbol,
				Name:    p.QuoteToken.Name,
			},
			PriceUSD:     parseFloat(p.PriceUSD),
			LiquidityUSD: parseFloat(p.Liquidity.USD),
			FDV:          parseFloat(p.FDV),
			Volume24h:    parseFloat(p.Volume.H24),
			PriceChange: domain.PriceChange{
				M5:  p.PriceChange.M5,
				H1:  p.PriceChange.H1,
				H6:  p.PriceChange.H6,
				H24: p.PriceChange.H24,
			},
			LogoURL: p.Info.ImageURL,
		}
		txns := &domain.TxnCounts{
			H1Buys:   p.Txns.H1.Buys,
			H1Sells:  p.Txns.H1.Sells,
			H24Buys:  p.Txns.H24.Buys,
			H24Sells: p.Txns.H24.Sells,
		}
		if txns.Any() {
			pair.Txns = txns
		}
		if p.PairCreatedAt > 0 {
			t := time.UnixMilli(p.PairCreatedAt).UTC()
			pair.CreatedAt = &t
		}
		pairs = append(pairs, pair)
	}
	return DexPairsPayload{Source: SourceDexScreener, Pairs: pairs}
}
