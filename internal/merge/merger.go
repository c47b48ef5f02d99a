package merge

import (
	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/domain"
	"github.com/tokenvet/tokenvet/internal/providers"
)

// tokenRef mirrors providers.TokenRef for the quote-asset table.
type tokenRef struct {
	Address string
	Symbol  string
}

// Merge folds already-fetched provider payloads into one canonical
// record per (chain, address). It is a pure transformation: no clock,
// no I/O, deterministic for a given input slice. Precedence is last
// validated write wins in fold order, except where a provider class
// has its own rule (see the per-class fold functions).
// Classes fold in a fixed order (pairs, aggregator, enrichment) so
// the result does not depend on fetch-completion order.
func Merge(payloads []providers.ProviderPayload) map[domain.TokenKey]*domain.TokenRecord {
	out := make(map[domain.TokenKey]*domain.TokenRecord)
	for _, payload := range payloads {
		if p, ok := payload.(providers.DexPairsPayload); ok {
			foldDexPairs(out, p)
		}
	}
	for _, payload := range payloads {
		if p, ok := payload.(providers.AggregatorPayload); ok {
			foldAggregator(out, p)
		}
	}
	for _, payload := range payloads {
		switch p := payload.(type) {
		case providers.DexPairsPayload, providers.AggregatorPayload:
		case providers.MarketCapPayload:
			foldMarketCap(out, p)
		default:
			log.Warn().Str("provider", payload.Provider()).Msg("unknown payload type dropped")
		}
	}
	for _, rec := range out {
		normalizeRecord(rec)
	}
	return out
}

// foldDexPairs merges the market-pairs class. A pair is accepted only
// when price, liquidity and 24h volume are all finite and at least one
// transaction count is present. Duplicate keys from the same provider
// keep the candidate with strictly higher liquidity.
func foldDexPairs(out map[domain.TokenKey]*domain.TokenRecord, p providers.DexPairsPayload) {
	for _, pair := range p.Pairs {
		chain, known := domain.ParseChain(pair.ChainID)
		if !known {
			log.Debug().Str("chainId", pair.ChainID).Msg("pair on unmapped chain dropped")
			continue
		}

		ref := pair.Base
		if isQuoteAsset(chain, tokenRef{Address: ref.Address, Symbol: ref.Symbol}) {
			ref = pair.Quote
		}
		if isQuoteAsset(chain, tokenRef{Address: ref.Address, Symbol: ref.Symbol}) {
			// Both sides are quote assets; nothing listable here.
			continue
		}
		if !domain.ValidatorFor(chain).Valid(ref.Address) {
			continue
		}
		if pair.PriceUSD == nil || pair.LiquidityUSD == nil || pair.Volume24h == nil || !pair.Txns.Any() {
			continue
		}

		key := domain.TokenKey{Chain: chain, Address: ref.Address}
		if existing, ok := out[key]; ok && existing.Market.Source == p.Source {
			if existing.Market.LiquidityUSD >= *pair.LiquidityUSD {
				continue
			}
		}

		rec := &domain.TokenRecord{
			Chain:   chain,
			Address: ref.Address,
			Symbol:  ref.Symbol,
			Name:    ref.Name,
			Market: domain.MarketInfo{
				PriceUSD:     *pair.PriceUSD,
				LiquidityUSD: *pair.LiquidityUSD,
				Volume24h:    *pair.Volume24h,
				PriceChange:  pair.PriceChange,
				Txns:         pair.Txns,
				PairAddress:  pair.PairAddress,
				Source:       p.Source,
			},
			LogoURL: pair.LogoURL,
		}
		if pair.FDV != nil {
			rec.Market.FDV = *pair.FDV
		}
		if pair.CreatedAt != nil {
			rec.FirstSeenAt = *pair.CreatedAt
		}
		out[key] = rec
	}
}

// foldAggregator merges the secondary-aggregator class. Entries only
// land on records that already carry transaction data; the existing
// txns field is never touched.
func foldAggregator(out map[domain.TokenKey]*domain.TokenRecord, p providers.AggregatorPayload) {
	for _, entry := range p.Entries {
		chain, known := domain.ParseChain(entry.ChainID)
		if !known || !domain.ValidatorFor(chain).Valid(entry.Address) {
			continue
		}
		existing, ok := out[domain.TokenKey{Chain: chain, Address: entry.Address}]
		if !ok || !existing.Market.Txns.Any() {
			// Secondary-only entries have no transaction context and
			// are dropped.
			continue
		}

		if entry.PriceUSD != nil {
			existing.Market.PriceUSD = *entry.PriceUSD
		}
		if entry.LiquidityUSD != nil {
			existing.Market.LiquidityUSD = *entry.LiquidityUSD
		}
		if entry.Volume24h != nil {
			existing.Market.Volume24h = *entry.Volume24h
		}
		if entry.PriceChange24h != nil {
			existing.Market.PriceChange.H24 = entry.PriceChange24h
		}
		existing.Market.Source = p.Source
	}
}

// foldMarketCap merges the enrichment class by union: only fields the
// record does not already carry are filled in, except holders where a
// larger non-zero count from a later provider in the same pass wins.
func foldMarketCap(out map[domain.TokenKey]*domain.TokenRecord, p providers.MarketCapPayload) {
	for _, entry := range p.Entries {
		chain, known := domain.ParseChain(entry.ChainID)
		if !known || !domain.ValidatorFor(chain).Valid(entry.Address) {
			continue
		}
		existing, ok := out[domain.TokenKey{Chain: chain, Address: entry.Address}]
		if !ok {
			continue
		}

		if existing.Symbol == "" {
			existing.Symbol = entry.Symbol
		}
		if existing.Name == "" {
			existing.Name = entry.Name
		}
		if existing.LogoURL == "" {
			existing.LogoURL = entry.LogoURL
		}
		if existing.Market.PriceUSD == 0 && entry.PriceUSD != nil {
			existing.Market.PriceUSD = *entry.PriceUSD
		}
		if existing.Market.LiquidityUSD == 0 && entry.LiquidityUSD != nil {
			existing.Market.LiquidityUSD = *entry.LiquidityUSD
		}
		if existing.Market.Volume24h == 0 && entry.Volume24h != nil {
			existing.Market.Volume24h = *entry.Volume24h
		}
		if existing.Market.FDV == 0 {
			if entry.FDV != nil {
				existing.Market.FDV = *entry.FDV
			} else if entry.MarketCap != nil {
				existing.Market.FDV = *entry.MarketCap
			}
		}

		if entry.Holders != nil {
			current := existing.Market.Holders
			switch {
			case current == nil:
				existing.Market.Holders = entry.Holders
			case *entry.Holders > *current && *entry.Holders != 0:
				existing.Market.Holders = entry.Holders
			}
		}
	}
}

// normalizeRecord enforces the post-merge shape: the always-finite
// invariant on the core numbers and zero defaults for 24h volume.
// Nil pointers are the explicit-null representation, so holders and
// priceChange need no filling here.
func normalizeRecord(rec *domain.TokenRecord) {
	if !domain.IsFinite(rec.Market.PriceUSD) {
		rec.Market.PriceUSD = 0
	}
	if !domain.IsFinite(rec.Market.LiquidityUSD) {
		rec.Market.LiquidityUSD = 0
	}
	if !domain.IsFinite(rec.Market.Volume24h) {
		rec.Market.Volume24h = 0
	}
	if !domain.IsFinite(rec.Market.FDV) {
		rec.Market.FDV = 0
	}
}
