package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tokenvet/tokenvet/internal/ingest"
	"github.com/tokenvet/tokenvet/internal/monitor"
	"github.com/tokenvet/tokenvet/internal/providers"
	"github.com/tokenvet/tokenvet/internal/sched"
	"github.com/tokenvet/tokenvet/internal/vetting"
)

// Config is the full service configuration. Defaults work without a
// config file; secrets come from the environment and never live in
// YAML.
type Config struct {
	LogLevel string `yaml:"log_level"`
	HTTPAddr string `yaml:"http_addr"`

	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Cache    CacheConfig    `yaml:"cache"`

	Providers ProvidersConfig `yaml:"providers"`

	Ingest     ingest.Config  `yaml:"ingest"`
	Vetting    vetting.Config `yaml:"vetting"`
	Monitoring monitor.Config `yaml:"monitoring"`
	Scheduler  sched.Config   `yaml:"scheduler"`

	WebhookURL string `yaml:"webhook_url"`
}

type PostgresConfig struct {
	// DSN empty means the in-memory store.
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	// Addr empty means the in-process TTL cache.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type CacheConfig struct {
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
}

type ProvidersConfig struct {
	DexScreener   providers.ClientConfig `yaml:"dexscreener"`
	GeckoTerminal providers.ClientConfig `yaml:"geckoterminal"`
	Birdeye       providers.ClientConfig `yaml:"birdeye"`
	Solscan       providers.ClientConfig `yaml:"solscan"`
	GoPlus        providers.ClientConfig `yaml:"goplus"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		HTTPAddr: ":8080",
		Cache: CacheConfig{
			TTL:        15 * time.Minute,
			MaxEntries: 4096,
		},
		Providers: ProvidersConfig{
			DexScreener: providers.ClientConfig{
				Name:    "dexscreener",
				BaseURL: "https://api.dexscreener.com",
				Timeout: 10 * time.Second,
				RPM:     240,
			},
			GeckoTerminal: providers.ClientConfig{
				Name:    "geckoterminal",
				BaseURL: "https://api.geckoterminal.com",
				Timeout: 10 * time.Second,
				RPM:     30,
			},
			Birdeye: providers.ClientConfig{
				Name:         "birdeye",
				BaseURL:      "https://public-api.birdeye.so",
				Timeout:      10 * time.Second,
				RPM:          50,
				APIKeyHeader: "X-API-KEY",
			},
			Solscan: providers.ClientConfig{
				Name:         "solscan",
				BaseURL:      "https://pro-api.solscan.io",
				Timeout:      10 * time.Second,
				RPM:          60,
				APIKeyHeader: "token",
			},
			GoPlus: providers.ClientConfig{
				Name:    "goplus",
				BaseURL: "https://api.gopluslabs.io",
				Timeout: 15 * time.Second,
				RPM:     30,
			},
		},
		Ingest:     ingest.DefaultConfig(),
		Vetting:    vetting.DefaultConfig(),
		Monitoring: monitor.DefaultConfig(),
		Scheduler:  sched.DefaultConfig(),
	}
}

// Load reads path over the defaults, then applies environment
// overrides. An empty path keeps the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

// applyEnv pulls secrets and deployment endpoints from the
// environment. Environment always wins over YAML.
func (c *Config) applyEnv() {
	if v := os.Getenv("TOKENVET_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TOKENVET_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Postgres.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("BIRDEYE_API_KEY"); v != "" {
		c.Providers.Birdeye.APIKey = v
	}
	if v := os.Getenv("SOLSCAN_API_KEY"); v != "" {
		c.Providers.Solscan.APIKey = v
	}
	if v := os.Getenv("GOPLUS_API_KEY"); v != "" {
		c.Providers.GoPlus.APIKey = v
	}
	if v := os.Getenv("TOKENVET_WEBHOOK_URL"); v != "" {
		c.WebhookURL = v
	}
}
