package store

import (
	"context"
	"sync"
	"time"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// MemoryStore is the in-process TokenStore used by tests and local
// runs. Snapshots and alerts are append-only slices per token key,
// newest last.
type MemoryStore struct {
	mu        sync.RWMutex
	records   map[domain.TokenKey]*domain.TokenRecord
	vetting   map[domain.TokenKey]*domain.VettingResults
	snapshots map[domain.TokenKey][]*domain.MonitoringSnapshot
	alerts    map[domain.TokenKey][]*domain.Alert

	now func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:   make(map[domain.TokenKey]*domain.TokenRecord),
		vetting:   make(map[domain.TokenKey]*domain.VettingResults),
		snapshots: make(map[domain.TokenKey][]*domain.MonitoringSnapshot),
		alerts:    make(map[domain.TokenKey][]*domain.Alert),
		now:       time.Now,
	}
}

// FindByAddress implements TokenStore.
func (s *MemoryStore) FindByAddress(_ context.Context, chain domain.Chain, address string) (*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[domain.TokenKey{Chain: chain, Address: address}]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// UpsertMarketMetadata implements TokenStore.
func (s *MemoryStore) UpsertMarketMetadata(_ context.Context, rec *domain.TokenRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := rec.Key()
	now := s.now().UTC()
	cp := *rec
	cp.UpdatedAt = now

	existing, ok := s.records[key]
	if ok && !existing.FirstSeenAt.IsZero() &&
		(cp.FirstSeenAt.IsZero() || existing.FirstSeenAt.Before(cp.FirstSeenAt)) {
		cp.FirstSeenAt = existing.FirstSeenAt
	}
	if cp.FirstSeenAt.IsZero() {
		cp.FirstSeenAt = now
	}
	s.records[key] = &cp
	return !ok, nil
}

// SaveVettingResults implements TokenStore.
func (s *MemoryStore) SaveVettingResults(_ context.Context, res *domain.VettingResults) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	s.vetting[domain.TokenKey{Chain: res.Chain, Address: res.Address}] = &cp
	return nil
}

// LatestVettingResults implements TokenStore.
func (s *MemoryStore) LatestVettingResults(_ context.Context, chain domain.Chain, address string) (*domain.VettingResults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.vetting[domain.TokenKey{Chain: chain, Address: address}]
	if !ok {
		return nil, nil
	}
	cp := *res
	return &cp, nil
}

// ListByFilter implements TokenStore.
func (s *MemoryStore) ListByFilter(_ context.Context, f Filter) ([]*domain.TokenRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TokenRecord, 0)
	for key, rec := range s.records {
		if f.Chain != "" && rec.Chain != f.Chain {
			continue
		}
		if rec.Market.LiquidityUSD < f.MinLiquidityUSD {
			continue
		}
		_, vetted := s.vetting[key]
		if f.OnlyVetted && !vetted {
			continue
		}
		if f.NeedsVetting && vetted {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, nil
}

// SaveSnapshot implements TokenStore.
func (s *MemoryStore) SaveSnapshot(_ context.Context, snap *domain.MonitoringSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.TokenKey{Chain: snap.Chain, Address: snap.Address}
	cp := *snap
	s.snapshots[key] = append(s.snapshots[key], &cp)
	return nil
}

// LatestSnapshot implements TokenStore.
func (s *MemoryStore) LatestSnapshot(_ context.Context, chain domain.Chain, address string) (*domain.MonitoringSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snaps := s.snapshots[domain.TokenKey{Chain: chain, Address: address}]
	if len(snaps) == 0 {
		return nil, nil
	}
	cp := *snaps[len(snaps)-1]
	return &cp, nil
}

// SaveAlert implements TokenStore.
func (s *MemoryStore) SaveAlert(_ context.Context, alert *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := domain.TokenKey{Chain: alert.Chain, Address: alert.Address}
	cp := *alert
	s.alerts[key] = append(s.alerts[key], &cp)
	return nil
}

// Alerts returns all alerts recorded for a token, oldest first.
func (s *MemoryStore) Alerts(chain domain.Chain, address string) []*domain.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.alerts[domain.TokenKey{Chain: chain, Address: address}]
	out := make([]*domain.Alert, len(src))
	copy(out, src)
	return out
}

// SnapshotCount returns how many snapshots a token has accumulated.
func (s *MemoryStore) SnapshotCount(chain domain.Chain, address string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots[domain.TokenKey{Chain: chain, Address: address}])
}
