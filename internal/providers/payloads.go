package providers

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// ProviderPayload is the tagged union of normalized provider
// responses the feed merger folds over. Each provider adapter owns its
// raw JSON shape and emits exactly one of the concrete payload types;
// nothing downstream branches on ad-hoc optional fields.
type ProviderPayload interface {
	Provider() string
}

// DexPairsPayload is the market-pairs class: per-pair records with
// full price/liquidity/volume plus transaction counts.
type DexPairsPayload struct {
	Source string
	Pairs  []DexPair
}

// Provider implements ProviderPayload.
func (p DexPairsPayload) Provider() string { return p.Source }

// TokenRef identifies one side of a trading pair.
type TokenRef struct {
	Address string
	Symbol  string
	Name    string
}

// DexPair is one normalized trading pair. Numeric fields are nil when
// the feed omitted them or sent something unparseable.
type DexPair struct {
	ChainID     string
	PairAddress string
	Base        TokenRef
	Quote       TokenRef

	PriceUSD     *float64
	LiquidityUSD *float64
	FDV          *float64
	Volume24h    *float64

	PriceChange domain.PriceChange
	Txns        *domain.TxnCounts

	LogoURL   string
	CreatedAt *time.Time
}

// AggregatorPayload is the secondary-aggregator class: price and
// liquidity without transaction data. Its entries only enrich records
// that already carry transaction data.
type AggregatorPayload struct {
	Source  string
	Entries []AggregatorEntry
}

// Provider implements ProviderPayload.
func (p AggregatorPayload) Provider() string { return p.Source }

// AggregatorEntry is one normalized aggregator row.
type AggregatorEntry struct {
	ChainID string
	Address string
	Symbol  string
	Name    string

	PriceUSD       *float64
	LiquidityUSD   *float64
	Volume24h      *float64
	PriceChange24h *float64
}

// MarketCapPayload is the chain-specific enrichment class: market cap,
// holder counts and logos merged by union into existing records.
type MarketCapPayload struct {
	Source  string
	Entries []MarketCapEntry
}

// Provider implements ProviderPayload.
func (p MarketCapPayload) Provider() string { return p.Source }

// MarketCapEntry is one normalized enrichment row.
type MarketCapEntry struct {
	ChainID string
	Address string
	Symbol  string
	Name    string

	PriceUSD     *float64
	MarketCap    *float64
	FDV          *float64
	LiquidityUSD *float64
	Volume24h    *float64
	Holders      *int64

	LogoURL string
}

// parseFloat coerces the numeric encodings seen across feeds (float,
// quoted string, json.Number) into a finite float. Non-finite and
// unparseable values come back nil.
func parseFloat(v any) *float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return nil
		}
		f = parsed
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	if !domain.IsFinite(f) {
		return nil
	}
	return &f
}

// parseInt coerces the same encodings into an int64, truncating
// fractional values.
func parseInt(v any) *int64 {
	f := parseFloat(v)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// holderCountFrom digs a holder count out of a loosely-typed payload,
// trying the field-name variants the enrichment feeds use.
func holderCountFrom(m map[string]any, names ...string) *int64 {
	if len(names) == 0 {
		names = []string{"holder", "holders", "holderCount", "holder_count", "holdersCount"}
	}
	for _, name := range names {
		if v, ok := m[name]; ok {
			if n := parseInt(v); n != nil && *n >= 0 {
				return n
			}
		}
	}
	return nil
}
