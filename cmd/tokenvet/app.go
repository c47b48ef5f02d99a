package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tokenvet/tokenvet/internal/cache"
	"github.com/tokenvet/tokenvet/internal/config"
	"github.com/tokenvet/tokenvet/internal/ingest"
	"github.com/tokenvet/tokenvet/internal/metrics"
	"github.com/tokenvet/tokenvet/internal/monitor"
	"github.com/tokenvet/tokenvet/internal/notify"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/store"
	"github.com/tokenvet/tokenvet/internal/vetting"
)

// app holds every wired collaborator for one process. Subcommands
// pick the pipelines they need.
type app struct {
	cfg  *config.Config
	prom *prometheus.Registry
	met  *metrics.Registry

	store store.TokenStore
	cache cache.Cache

	dex    *providers.DexScreener
	gecko  *providers.GeckoTerminal
	caps   []providers.MarketCapSource
	goplus *providers.GoPlus

	ingest  *ingest.Cycle
	vetting *vetting.Orchestrator
	monitor *monitor.Sampler

	closers []func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	if cfg.Vetting.CacheTTL <= 0 {
		cfg.Vetting.CacheTTL = cfg.Cache.TTL
	}

	a := &app{cfg: cfg}

	a.prom = prometheus.NewRegistry()
	a.prom.MustRegister(collectors.NewGoCollector())
	a.met = metrics.NewRegistry()
	if err := a.met.Register(a.prom); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	a.openCache()

	a.dex = providers.NewDexScreener(cfg.Providers.DexScreener, a.met)
	a.gecko = providers.NewGeckoTerminal(cfg.Providers.GeckoTerminal, a.met)
	a.goplus = providers.NewGoPlus(cfg.Providers.GoPlus, a.met)
	if cfg.Providers.Birdeye.APIKey != "" {
		a.caps = append(a.caps, providers.NewBirdeye(cfg.Providers.Birdeye, a.met))
	}
	if cfg.Providers.Solscan.APIKey != "" {
		a.caps = append(a.caps, providers.NewSolscan(cfg.Providers.Solscan, a.met))
	}

	var notifier ingest.Notifier
	if cfg.WebhookURL != "" {
		notifier = notify.NewWebhook(cfg.WebhookURL, 5*time.Second)
	}

	a.ingest = ingest.NewCycle(a.dex, a.gecko, a.caps, a.store, notifier, a.met, cfg.Ingest)
	a.vetting = vetting.NewOrchestrator(a.store, a.goplus, a.cache, a.met, cfg.Vetting)
	a.monitor = monitor.NewSampler(a.store, a.dex, a.goplus, a.met, cfg.Monitoring)
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.Postgres.DSN == "" {
		log.Info().Msg("no postgres dsn, using in-memory store")
		a.store = store.NewMemoryStore()
		return nil
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", a.cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	a.closers = append(a.closers, func() { _ = db.Close() })

	pg := store.NewPostgresStore(db, 10*time.Second)
	if err := pg.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	a.store = pg
	log.Info().Msg("postgres store ready")
	return nil
}

func (a *app) openCache() {
	if a.cfg.Redis.Addr == "" {
		ttl := cache.NewTTLCache(a.cfg.Cache.MaxEntries)
		a.closers = append(a.closers, ttl.Close)
		a.cache = ttl
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.cache = cache.NewRedisCache(client, appName)
	log.Info().Str("addr", a.cfg.Redis.Addr).Msg("redis cache ready")
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
