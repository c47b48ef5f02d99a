package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/tokenvet/tokenvet/internal/domain"
)

// Schema is the Postgres schema for the token store. Applied with
// EnsureSchema; statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS tokens (
	chain          TEXT NOT NULL,
	address        TEXT NOT NULL,
	symbol         TEXT NOT NULL DEFAULT '',
	name           TEXT NOT NULL DEFAULT '',
	price_usd      DOUBLE PRECISION NOT NULL DEFAULT 0,
	liquidity_usd  DOUBLE PRECISION NOT NULL DEFAULT 0,
	fdv            DOUBLE PRECISION NOT NULL DEFAULT 0,
	volume_24h     DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_change   JSONB NOT NULL DEFAULT '{}',
	txns           JSONB,
	holders        BIGINT,
	pair_address   TEXT NOT NULL DEFAULT '',
	source         TEXT NOT NULL DEFAULT '',
	logo_url       TEXT NOT NULL DEFAULT '',
	category       TEXT NOT NULL DEFAULT '',
	first_seen_at  TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain, address)
);

CREATE TABLE IF NOT EXISTS vetting_results (
	chain          TEXT NOT NULL,
	address        TEXT NOT NULL,
	overall_score  INTEGER NOT NULL,
	risk_level     TEXT NOT NULL,
	eligible_tier  TEXT NOT NULL,
	results        JSONB NOT NULL,
	calculated_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (chain, address)
);

CREATE TABLE IF NOT EXISTS monitoring_snapshots (
	id               UUID PRIMARY KEY,
	chain            TEXT NOT NULL,
	address          TEXT NOT NULL,
	price_usd        DOUBLE PRECISION NOT NULL DEFAULT 0,
	liquidity_usd    DOUBLE PRECISION NOT NULL DEFAULT 0,
	volume_24h       DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_change_24h DOUBLE PRECISION,
	holder_count     BIGINT,
	liquidity_trend  TEXT NOT NULL,
	holder_trend     TEXT NOT NULL,
	activity_trend   TEXT NOT NULL,
	scanned_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_snapshots_token_time
	ON monitoring_snapshots (chain, address, scanned_at DESC);

CREATE TABLE IF NOT EXISTS alerts (
	id                    UUID PRIMARY KEY,
	chain                 TEXT NOT NULL,
	address               TEXT NOT NULL,
	severity              TEXT NOT NULL,
	trigger_type          TEXT NOT NULL,
	condition_description TEXT NOT NULL DEFAULT '',
	message               TEXT NOT NULL DEFAULT '',
	detected              BOOLEAN NOT NULL DEFAULT TRUE,
	detected_at           TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_token_time
	ON alerts (chain, address, detected_at DESC);
`

// PostgresStore is the production TokenStore backed by Postgres.
type PostgresStore struct {
	db      *sqlx.DB
	timeout time.Duration
	now     func() time.Time
}

// NewPostgresStore wraps an open sqlx handle. timeout bounds each
// statement.
func NewPostgresStore(db *sqlx.DB, timeout time.Duration) *PostgresStore {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PostgresStore{db: db, timeout: timeout, now: time.Now}
}

// EnsureSchema applies the schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

type tokenRow struct {
	Chain        string         `db:"chain"`
	Address      string         `db:"address"`
	Symbol       string         `db:"symbol"`
	Name         string         `db:"name"`
	PriceUSD     float64        `db:"price_usd"`
	LiquidityUSD float64        `db:"liquidity_usd"`
	FDV          float64        `db:"fdv"`
	Volume24h    float64        `db:"volume_24h"`
	PriceChange  []byte         `db:"price_change"`
	Txns         []byte         `db:"txns"`
	Holders      sql.NullInt64  `db:"holders"`
	PairAddress  string         `db:"pair_address"`
	Source       string         `db:"source"`
	LogoURL      string         `db:"logo_url"`
	Category     string         `db:"category"`
	FirstSeenAt  time.Time      `db:"first_seen_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r tokenRow) toRecord() (*domain.TokenRecord, error) {
	rec := &domain.TokenRecord{
		Chain:   domain.Chain(r.Chain),
		Address: r.Address,
		Symbol:  r.Symbol,
		Name:    r.Name,
		Market: domain.MarketInfo{
			PriceUSD:     r.PriceUSD,
			LiquidityUSD: r.LiquidityUSD,
			FDV:          r.FDV,
			Volume24h:    r.Volume24h,
			PairAddress:  r.PairAddress,
			Source:       r.Source,
		},
		LogoURL:     r.LogoURL,
		Category:    r.Category,
		FirstSeenAt: r.FirstSeenAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.PriceChange) > 0 {
		if err := json.Unmarshal(r.PriceChange, &rec.Market.PriceChange); err != nil {
			return nil, fmt.Errorf("decode price_change: %w", err)
		}
	}
	if len(r.Txns) > 0 {
		var txns domain.TxnCounts
		if err := json.Unmarshal(r.Txns, &txns); err != nil {
			return nil, fmt.Errorf("decode txns: %w", err)
		}
		rec.Market.Txns = &txns
	}
	if r.Holders.Valid {
		h := r.Holders.Int64
		rec.Market.Holders = &h
	}
	return rec, nil
}

// FindByAddress implements TokenStore.
func (s *PostgresStore) FindByAddress(ctx context.Context, chain domain.Chain, address string) (*domain.TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var row tokenRow
	err := s.db.GetContext(ctx, &row,
		`SELECT * FROM tokens WHERE chain = $1 AND address = $2`, chain, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find token %s|%s: %w", chain, address, err)
	}
	return row.toRecord()
}

// UpsertMarketMetadata implements TokenStore.
func (s *PostgresStore) UpsertMarketMetadata(ctx context.Context, rec *domain.TokenRecord) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	priceChange, err := json.Marshal(rec.Market.PriceChange)
	if err != nil {
		return false, fmt.Errorf("encode price_change: %w", err)
	}
	var txns []byte
	if rec.Market.Txns != nil {
		if txns, err = json.Marshal(rec.Market.Txns); err != nil {
			return false, fmt.Errorf("encode txns: %w", err)
		}
	}
	var holders sql.NullInt64
	if rec.Market.Holders != nil {
		holders = sql.NullInt64{Int64: *rec.Market.Holders, Valid: true}
	}
	now := s.now().UTC()
	firstSeen := rec.FirstSeenAt
	if firstSeen.IsZero() {
		firstSeen = now
	}

	var created bool
	err = s.db.QueryRowxContext(ctx, `
		INSERT INTO tokens (chain, address, symbol, name,
			price_usd, liquidity_usd, fdv, volume_24h,
			price_change, txns, holders, pair_address, source,
			logo_url, category, first_seen_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (chain, address) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			price_usd = EXCLUDED.price_usd,
			liquidity_usd = EXCLUDED.liquidity_usd,
			fdv = EXCLUDED.fdv,
			volume_24h = EXCLUDED.volume_24h,
			price_change = EXCLUDED.price_change,
			txns = EXCLUDED.txns,
			holders = EXCLUDED.holders,
			pair_address = EXCLUDED.pair_address,
			source = EXCLUDED.source,
			logo_url = EXCLUDED.logo_url,
			category = EXCLUDED.category,
			first_seen_at = LEAST(tokens.first_seen_at, EXCLUDED.first_seen_at),
			updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0)`,
		rec.Chain, rec.Address, rec.Symbol, rec.Name,
		rec.Market.PriceUSD, rec.Market.LiquidityUSD, rec.Market.FDV, rec.Market.Volume24h,
		priceChange, txns, holders, rec.Market.PairAddress, rec.Market.Source,
		rec.LogoURL, rec.Category, firstSeen, now).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert token %s: %w", rec.Key(), err)
	}
	return created, nil
}

// SaveVettingResults implements TokenStore.
func (s *PostgresStore) SaveVettingResults(ctx context.Context, res *domain.VettingResults) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode vetting results: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vetting_results (chain, address, overall_score, risk_level, eligible_tier, results, calculated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (chain, address) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			risk_level = EXCLUDED.risk_level,
			eligible_tier = EXCLUDED.eligible_tier,
			results = EXCLUDED.results,
			calculated_at = EXCLUDED.calculated_at`,
		res.Chain, res.Address, res.OverallScore, res.RiskLevel, res.EligibleTier,
		payload, res.CalculatedAt)
	if err != nil {
		return fmt.Errorf("save vetting results %s|%s: %w", res.Chain, res.Address, err)
	}
	return nil
}

// LatestVettingResults implements TokenStore.
func (s *PostgresStore) LatestVettingResults(ctx context.Context, chain domain.Chain, address string) (*domain.VettingResults, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var payload []byte
	err := s.db.GetContext(ctx, &payload,
		`SELECT results FROM vetting_results WHERE chain = $1 AND address = $2`, chain, address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load vetting results %s|%s: %w", chain, address, err)
	}
	var res domain.VettingResults
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode vetting results: %w", err)
	}
	return &res, nil
}

// ListByFilter implements TokenStore.
func (s *PostgresStore) ListByFilter(ctx context.Context, f Filter) ([]*domain.TokenRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `SELECT t.* FROM tokens t`
	switch {
	case f.OnlyVetted:
		query += ` JOIN vetting_results v ON v.chain = t.chain AND v.address = t.address`
	case f.NeedsVetting:
		query += ` LEFT JOIN vetting_results v ON v.chain = t.chain AND v.address = t.address`
	}
	query += ` WHERE t.liquidity_usd >= $1`
	args := []any{f.MinLiquidityUSD}
	if f.NeedsVetting {
		query += ` AND v.chain IS NULL`
	}
	if f.Chain != "" {
		args = append(args, f.Chain)
		query += fmt.Sprintf(` AND t.chain = $%d`, len(args))
	}
	query += ` ORDER BY t.liquidity_usd DESC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	var rows []tokenRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	out := make([]*domain.TokenRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// SaveSnapshot implements TokenStore.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *domain.MonitoringSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var priceChange sql.NullFloat64
	if snap.PriceChange24h != nil {
		priceChange = sql.NullFloat64{Float64: *snap.PriceChange24h, Valid: true}
	}
	var holders sql.NullInt64
	if snap.HolderCount != nil {
		holders = sql.NullInt64{Int64: *snap.HolderCount, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO monitoring_snapshots (id, chain, address,
			price_usd, liquidity_usd, volume_24h, price_change_24h, holder_count,
			liquidity_trend, holder_trend, activity_trend, scanned_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		snap.ID, snap.Chain, snap.Address,
		snap.PriceUSD, snap.LiquidityUSD, snap.Volume24h, priceChange, holders,
		snap.LiquidityTrend, snap.HolderTrend, snap.ActivityTrend, snap.ScannedAt)
	if err != nil {
		return fmt.Errorf("save snapshot %s|%s: %w", snap.Chain, snap.Address, err)
	}
	return nil
}

// LatestSnapshot implements TokenStore.
func (s *PostgresStore) LatestSnapshot(ctx context.Context, chain domain.Chain, address string) (*domain.MonitoringSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row := s.db.QueryRowxContext(ctx, `
		SELECT id, chain, address, price_usd, liquidity_usd, volume_24h,
			price_change_24h, holder_count, liquidity_trend, holder_trend,
			activity_trend, scanned_at
		FROM monitoring_snapshots
		WHERE chain = $1 AND address = $2
		ORDER BY scanned_at DESC
		LIMIT 1`, chain, address)

	var snap domain.MonitoringSnapshot
	var priceChange sql.NullFloat64
	var holders sql.NullInt64
	err := row.Scan(&snap.ID, &snap.Chain, &snap.Address,
		&snap.PriceUSD, &snap.LiquidityUSD, &snap.Volume24h,
		&priceChange, &holders,
		&snap.LiquidityTrend, &snap.HolderTrend, &snap.ActivityTrend, &snap.ScannedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s|%s: %w", chain, address, err)
	}
	if priceChange.Valid {
		snap.PriceChange24h = &priceChange.Float64
	}
	if holders.Valid {
		snap.HolderCount = &holders.Int64
	}
	return &snap, nil
}

// SaveAlert implements TokenStore.
func (s *PostgresStore) SaveAlert(ctx context.Context, alert *domain.Alert) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, chain, address, severity, trigger_type,
			condition_description, message, detected, detected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		alert.ID, alert.Chain, alert.Address, alert.Severity, alert.TriggerType,
		alert.Condition, alert.Message, alert.Detected, alert.DetectedAt)
	if err != nil {
		return fmt.Errorf("save alert %s|%s: %w", alert.Chain, alert.Address, err)
	}
	return nil
}
