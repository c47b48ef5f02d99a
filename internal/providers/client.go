package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/tokenvet/tokenvet/internal/metrics"
)

// ClientConfig configures one provider client.
type ClientConfig struct {
	Name    string        `yaml:"name"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	RPM     int           `yaml:"rpm"`

	// APIKeyHeader names the auth header; empty means the key goes in
	// the query string under APIKeyParam.
	APIKey       string `yaml:"api_key"`
	APIKeyHeader string `yaml:"api_key_header"`
	APIKeyParam  string `yaml:"api_key_param"`
}

// Client is the transport shared by all provider adapters: one HTTP
// client with a bounded per-request timeout, a requests-per-minute
// limiter and a circuit breaker. A tripped breaker fails fast until
// the provider recovers; callers treat that like any transport error.
type Client struct {
	cfg     ClientConfig
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	metrics *metrics.Registry
}

// NewClient builds a provider client. metrics may be nil in tests.
func NewClient(cfg ClientConfig, m *metrics.Registry) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 8 * time.Second
	}
	rpm := cfg.RPM
	if rpm <= 0 {
		rpm = 60
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("provider", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("provider circuit state changed")
		},
	})
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		breaker: breaker,
		metrics: m,
	}
}

// Name returns the provider name used in logs and metrics.
func (c *Client) Name() string { return c.cfg.Name }

// GetJSON performs a rate-limited GET against the provider and decodes
// the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", c.cfg.Name, err)
	}

	u, err := c.buildURL(path, query)
	if err != nil {
		return err
	}

	start := time.Now()
	body, err := c.doThroughBreaker(ctx, u)
	duration := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if c.metrics != nil {
		c.metrics.ProviderRequests.WithLabelValues(c.cfg.Name, outcome).Inc()
		c.metrics.ProviderLatency.WithLabelValues(c.cfg.Name).Observe(duration.Seconds())
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.cfg.Name, err)
	}
	log.Debug().Str("provider", c.cfg.Name).Str("path", path).
		Dur("duration", duration).Msg("provider request ok")
	return nil
}

func (c *Client) doThroughBreaker(ctx context.Context, u string) ([]byte, error) {
	res, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if c.cfg.APIKey != "" && c.cfg.APIKeyHeader != "" {
			req.Header.Set(c.cfg.APIKeyHeader, c.cfg.APIKey)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s: request: %w", c.cfg.Name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
			return nil, fmt.Errorf("%s: http %d", c.cfg.Name, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

func (c *Client) buildURL(path string, query url.Values) (string, error) {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%s: base url: %w", c.cfg.Name, err)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query == nil {
		query = url.Values{}
	}
	if c.cfg.APIKey != "" && c.cfg.APIKeyHeader == "" && c.cfg.APIKeyParam != "" {
		query.Set(c.cfg.APIKeyParam, c.cfg.APIKey)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
