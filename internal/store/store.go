package store

import (
	"context"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// Filter narrows ListByFilter results.
type Filter struct {
	Chain domain.Chain

	// OnlyVetted selects tokens that already have vetting results,
	// the monitoring population. NeedsVetting selects the opposite:
	// merged candidates with no results yet.
	OnlyVetted   bool
	NeedsVetting bool

	MinLiquidityUSD float64
	Limit           int
}

// TokenStore is the persistence collaborator. The core only needs
// read-after-write consistency within one process; everything beyond
// these operations (retention, deletion) is external policy.
type TokenStore interface {
	// FindByAddress returns nil, nil when no record exists.
	FindByAddress(ctx context.Context, chain domain.Chain, address string) (*domain.TokenRecord, error)

	// UpsertMarketMetadata writes the canonical record, preserving the
	// earliest FirstSeenAt across refreshes. Reports whether the
	// record was newly created.
	UpsertMarketMetadata(ctx context.Context, rec *domain.TokenRecord) (created bool, err error)

	SaveVettingResults(ctx context.Context, res *domain.VettingResults) error
	// LatestVettingResults returns nil, nil when the token was never
	// vetted.
	LatestVettingResults(ctx context.Context, chain domain.Chain, address string) (*domain.VettingResults, error)

	ListByFilter(ctx context.Context, f Filter) ([]*domain.TokenRecord, error)

	SaveSnapshot(ctx context.Context, snap *domain.MonitoringSnapshot) error
	// LatestSnapshot returns nil, nil when the token was never
	// sampled.
	LatestSnapshot(ctx context.Context, chain domain.Chain, address string) (*domain.MonitoringSnapshot, error)

	SaveAlert(ctx context.Context, alert *domain.Alert) error
}
