package domain

import (
	"fmt"
	"math"
	"time"
)

// TokenKey is the canonical identity of a token: chain plus address.
// Address case is preserved as received because some chains are
// case-sensitive.
type TokenKey struct {
	Chain   Chain
	Address string
}

// String renders the key in the "chain|address" form used for map keys
// and log fields.
func (k TokenKey) String() string { return fmt.Sprintf("%s|%s", k.Chain, k.Address) }

// TokenRecord is the single reconciled view of a token after merging
// all provider payloads for one cycle. Overwritten in place on each
// refresh, never deleted by the merge step.
type TokenRecord struct {
	Chain   Chain  `json:"chain" db:"chain"`
	Address string `json:"address" db:"address"`
	Symbol  string `json:"symbol" db:"symbol"`
	Name    string `json:"name" db:"name"`

	Market MarketInfo `json:"market"`

	LogoURL  string `json:"logoUrl,omitempty" db:"logo_url"`
	Category string `json:"category,omitempty" db:"category"`

	FirstSeenAt time.Time `json:"firstSeenAt" db:"first_seen_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Key returns the record's canonical identity.
func (r *TokenRecord) Key() TokenKey { return TokenKey{Chain: r.Chain, Address: r.Address} }

// MarketInfo carries the market-side fields of a token record.
// PriceUSD, LiquidityUSD and Volume24h are always finite (the merge
// rejects anything else); pointer fields are explicitly null when the
// feeds did not report them.
type MarketInfo struct {
	PriceUSD     float64 `json:"priceUsd"`
	LiquidityUSD float64 `json:"liquidityUsd"`
	FDV          float64 `json:"fdv,omitempty"`
	Volume24h    float64 `json:"volume24h"`

	PriceChange PriceChange `json:"priceChange"`
	Txns        *TxnCounts  `json:"txns,omitempty"`
	Holders     *int64      `json:"holders"`

	PairAddress string `json:"pairAddress,omitempty"`
	Source      string `json:"source"`
}

// PriceChange holds percentage price moves over standard windows. A
// nil entry means the window was not reported, which callers must
// treat as unknown rather than zero.
type PriceChange struct {
	M5  *float64 `json:"m5"`
	H1  *float64 `json:"h1"`
	H6  *float64 `json:"h6"`
	H24 *float64 `json:"h24"`
}

// TxnCounts holds buy/sell transaction counts for the 1h and 24h
// windows. A record carries transaction data when at least one field
// is set.
type TxnCounts struct {
	H1Buys   *int64 `json:"h1Buys,omitempty"`
	H1Sells  *int64 `json:"h1Sells,omitempty"`
	H24Buys  *int64 `json:"h24Buys,omitempty"`
	H24Sells *int64 `json:"h24Sells,omitempty"`
}

// Any reports whether at least one transaction count is present.
func (t *TxnCounts) Any() bool {
	return t != nil && (t.H1Buys != nil || t.H1Sells != nil || t.H24Buys != nil || t.H24Sells != nil)
}

// IsFinite reports whether f is a usable number (not NaN, not ±Inf).
func IsFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
