package providers

import "context"

// MarketCapSource unifies the enrichment providers behind one
// per-address lookup so pipelines can hold a heterogeneous list of
// them.
type MarketCapSource interface {
	Name() string
	TokenMarket(ctx context.Context, address string) (MarketCapPayload, error)
}

// Name implements MarketCapSource.
func (b *Birdeye) Name() string { return b.client.Name() }

// TokenMarket implements MarketCapSource.
func (b *Birdeye) TokenMarket(ctx context.Context, address string) (MarketCapPayload, error) {
	return b.TokenOverview(ctx, address)
}

// Name implements MarketCapSource.
func (s *Solscan) Name() string { return s.client.Name() }

// TokenMarket implements MarketCapSource.
func (s *Solscan) TokenMarket(ctx context.Context, address string) (MarketCapPayload, error) {
	return s.TokenMeta(ctx, address)
}
