// Package registry constructs datasources from configuration by name. The
// variant is selected by the config "type" discriminator through a closed
// switch, never by reflective lookup.
package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/datasource"
	"marketdata/internal/datasource/alphavantage"
	"marketdata/internal/datasource/iexcloud"
	"marketdata/internal/datasource/ratelimit"
	"marketdata/internal/datasource/rest"
	"marketdata/internal/datasource/yahoofinance"
	"marketdata/internal/httpx"
)

type Registry struct {
	cfg    config.Config
	client *httpx.Client
	log    *zap.Logger

	// mu guards instances; lookup-or-create is one atomic step.
	mu        sync.Mutex
	instances map[string]datasource.DataSource
}

func New(cfg config.Config, client *httpx.Client, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	if client == nil {
		client = httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	}
	return &Registry{
		cfg:       cfg,
		client:    client,
		log:       log,
		instances: make(map[string]datasource.DataSource),
	}
}

// Defaults returns the configured default source and fallback names.
func (r *Registry) Defaults() (string, string) {
	return r.cfg.DefaultDataSource, r.cfg.DefaultFallbackDataSource
}

// Create returns the datasource for name, constructing it on first use.
// Repeated calls return the same instance. An unconfigured name yields
// *datasource.NotFoundError.
func (r *Registry) Create(name string) (datasource.DataSource, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ds, ok := r.instances[name]; ok {
		return ds, nil
	}

	cfg, ok := r.cfg.Lookup(name)
	if !ok {
		return nil, &datasource.NotFoundError{Name: name}
	}

	ds, err := r.build(cfg)
	if err != nil {
		return nil, err
	}
	ds = r.wrap(cfg, ds)
	r.instances[name] = ds
	return ds, nil
}

func (r *Registry) build(cfg config.DataSource) (datasource.DataSource, error) {
	// The name doubles as the discriminator when type is omitted.
	kind := cfg.Type
	if kind == "" {
		kind = cfg.Name
	}
	switch kind {
	case "iexcloud", "IEXCloud":
		return iexcloud.New(cfg, r.client, r.log)
	case "alphavantage", "AlphaVantage":
		return alphavantage.New(cfg, r.client)
	case "yahoofinance", "YahooFinance":
		return yahoofinance.New(cfg, r.client, r.log)
	default:
		if !cfg.IsLibrary {
			return rest.New(cfg, r.client)
		}
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "unknown datasource type " + kind}
	}
}

// wrap applies the configured rate limit around a constructed datasource,
// preferring a token bucket with burst over a plain minimum interval.
func (r *Registry) wrap(cfg config.DataSource, ds datasource.DataSource) datasource.DataSource {
	if cfg.MaxRequestsPerMinute > 0 {
		rate := float64(cfg.MaxRequestsPerMinute) / 60.0
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		return &ratelimit.TokenBucketDataSource{DS: ds, TB: ratelimit.NewTokenBucket(rate, burst)}
	}
	if cfg.MinRequestIntervalSec > 0 {
		return &ratelimit.MinInterval{DS: ds, Interval: time.Duration(cfg.MinRequestIntervalSec) * time.Second}
	}
	return ds
}
