package domain

import "strings"

// Chain identifies the network a token lives on.
type Chain string

const (
	ChainSolana   Chain = "solana"
	ChainEthereum Chain = "ethereum"
	ChainBSC      Chain = "bsc"
	ChainBase     Chain = "base"
	ChainUnknown  Chain = "unknown"
)

// chainAliases maps the identifier strings the feeds actually send to
// the canonical chain. Explicit table, no substring guessing: an
// unmapped identifier resolves to ChainUnknown and the caller decides
// whether to reject it.
var chainAliases = map[string]Chain{
	"solana":              ChainSolana,
	"sol":                 ChainSolana,
	"ethereum":            ChainEthereum,
	"eth":                 ChainEthereum,
	"mainnet":             ChainEthereum,
	"bsc":                 ChainBSC,
	"bnb":                 ChainBSC,
	"binance":             ChainBSC,
	"binance-smart-chain": ChainBSC,
	"base":                ChainBase,
}

// ParseChain resolves a free-text chain identifier from a provider
// payload. The second return reports whether the identifier was in the
// mapping table.
func ParseChain(s string) (Chain, bool) {
	c, ok := chainAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return ChainUnknown, false
	}
	return c, true
}

// String implements fmt.Stringer.
func (c Chain) String() string { return string(c) }
