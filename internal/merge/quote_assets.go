package merge

import (
	"strings"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// Well-known quote assets per chain: wrapped native coins and major
// stablecoins. When the base side of a pair is one of these, the
// counter-asset is the token the pair is actually about.
var quoteAssetAddresses = map[string]struct{}{
	// Wrapped SOL
	"So11111111111111111111111111111111111111112": {},
	// WETH (ethereum)
	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": {},
	// WBNB (bsc)
	"0xbb4cdb9cbd36b01bd1cbaebf2de08d9173bc095c": {},
	// WETH (base)
	"0x4200000000000000000000000000000000000006": {},
}

var quoteAssetSymbols = map[string]struct{}{
	"SOL":   {},
	"WSOL":  {},
	"ETH":   {},
	"WETH":  {},
	"BNB":   {},
	"WBNB":  {},
	"USDC":  {},
	"USDT":  {},
	"DAI":   {},
	"FDUSD": {},
}

// isQuoteAsset reports whether a pair side is a well-known quote asset
// rather than a listable token.
func isQuoteAsset(_ domain.Chain, ref tokenRef) bool {
	if _, ok := quoteAssetAddresses[ref.Address]; ok {
		return true
	}
	if _, ok := quoteAssetAddresses[strings.ToLower(ref.Address)]; ok {
		return true
	}
	_, ok := quoteAssetSymbols[strings.ToUpper(strings.TrimSpace(ref.Symbol))]
	return ok
}
