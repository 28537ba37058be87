package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Endpoint is a config node that is either a plain scalar value or a
// per-environment mapping, e.g.
//
//	baseUrl: https://www.alphavantage.co/query
//
// or
//
//	baseUrl:
//	  sandbox: https://sandbox.iexapis.com
//	  production: https://cloud.iexapis.com
type Endpoint struct {
	literal string
	perEnv  map[string]string
}

func (e *Endpoint) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&e.literal)
	case yaml.MappingNode:
		return node.Decode(&e.perEnv)
	default:
		return fmt.Errorf("line %d: expected a string or a mapping", node.Line)
	}
}

// Literal returns the scalar form, or "" when the node is a mapping.
func (e Endpoint) Literal() string { return e.literal }

// ForEnv returns the value for a named environment. A scalar node answers
// every environment with the literal value.
func (e Endpoint) ForEnv(env string) (string, bool) {
	if e.literal != "" {
		return e.literal, true
	}
	v, ok := e.perEnv[env]
	return v, ok
}

// PerEnv returns the mapping form, or nil for a scalar node.
func (e Endpoint) PerEnv() map[string]string { return e.perEnv }

func (e Endpoint) IsZero() bool { return e.literal == "" && len(e.perEnv) == 0 }

// LiteralEndpoint builds a scalar Endpoint. Used by tests and Default().
func LiteralEndpoint(v string) Endpoint { return Endpoint{literal: v} }

// EnvEndpoint builds a per-environment Endpoint.
func EnvEndpoint(m map[string]string) Endpoint { return Endpoint{perEnv: m} }

// DataSource describes one upstream source. Field names follow the config
// document keys.
type DataSource struct {
	Name            string   `yaml:"name"`
	Type            string   `yaml:"type"`
	IsLibrary       bool     `yaml:"isLibrary"`
	IsAuthenticated bool     `yaml:"isAuthenticated"`
	BaseURL         Endpoint `yaml:"baseUrl"`
	AuthToken       Endpoint `yaml:"authToken"`
	Environment     string   `yaml:"environment"`
	Version         string   `yaml:"version"`

	// ResourceMapping translates a logical function name ("summary") to a
	// URL template with a {symbol} placeholder, or to a library method name.
	ResourceMapping map[string]string `yaml:"resourceMapping"`

	// HTTPFallbackCodes is the allow-list of status codes that send a call
	// to the fallback source.
	HTTPFallbackCodes []int `yaml:"httpFallbackCodes"`

	Cache CacheConfig `yaml:"cache"`

	MaxRequestsPerMinute  int `yaml:"maxRequestsPerMinute"`
	Burst                 int `yaml:"burst"`
	MinRequestIntervalSec int `yaml:"minRequestIntervalSec"`
}

// CacheConfig sizes the per-symbol handle cache of library-backed sources.
type CacheConfig struct {
	Capacity   int `yaml:"capacity"`
	TTLSeconds int `yaml:"ttlSeconds"`
}

type Config struct {
	DefaultDataSource         string       `yaml:"defaultDataSource"`
	DefaultFallbackDataSource string       `yaml:"defaultFallbackDatasource"`
	RequestTimeoutSec         int          `yaml:"requestTimeoutSec"`
	DataSources               []DataSource `yaml:"datasources"`
}

// Lookup finds a datasource config by name.
func (c *Config) Lookup(name string) (DataSource, bool) {
	for _, ds := range c.DataSources {
		if ds.Name == name {
			return ds, true
		}
	}
	return DataSource{}, false
}

func Default() Config {
	return Config{
		DefaultDataSource:         "IEXCloud",
		DefaultFallbackDataSource: "YahooFinance",
		RequestTimeoutSec:         10,
		DataSources: []DataSource{
			{
				Name:            "IEXCloud",
				Type:            "iexcloud",
				IsAuthenticated: true,
				BaseURL: EnvEndpoint(map[string]string{
					"sandbox":    "https://sandbox.iexapis.com",
					"production": "https://cloud.iexapis.com",
				}),
				AuthToken: EnvEndpoint(map[string]string{
					"sandbox":    "env.IEX_SANDBOX_TOKEN",
					"production": "env.IEX_TOKEN",
				}),
				Environment: "production",
				Version:     "stable",
				ResourceMapping: map[string]string{
					"summary": "/stock/{symbol}/stats",
				},
				HTTPFallbackCodes: []int{429, 500, 502, 503},
			},
			{
				Name:            "AlphaVantage",
				Type:            "alphavantage",
				IsAuthenticated: true,
				BaseURL:         LiteralEndpoint("https://www.alphavantage.co/query"),
				AuthToken:       LiteralEndpoint("env.ALPHAVANTAGE_API_KEY"),
				ResourceMapping: map[string]string{
					"summary": "OVERVIEW",
				},
				HTTPFallbackCodes: []int{429},
			},
			{
				Name:      "YahooFinance",
				Type:      "yahoofinance",
				IsLibrary: true,
				ResourceMapping: map[string]string{
					"summary": "Summary",
				},
				Cache: CacheConfig{Capacity: 10},
			},
		},
	}
}

// Load reads the YAML config from path. If path is empty it tries
// config.yaml in the working directory and falls back to defaults when no
// file exists.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			cfg = Config{RequestTimeoutSec: cfg.RequestTimeoutSec}
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.DataSources) == 0 {
		return errors.New("datasources cannot be empty")
	}
	seen := make(map[string]struct{}, len(c.DataSources))
	for _, ds := range c.DataSources {
		if ds.Name == "" {
			return errors.New("datasource with empty name")
		}
		if _, dup := seen[ds.Name]; dup {
			return fmt.Errorf("duplicate datasource name %q", ds.Name)
		}
		seen[ds.Name] = struct{}{}
	}
	if c.DefaultDataSource != "" {
		if _, ok := c.Lookup(c.DefaultDataSource); !ok {
			return fmt.Errorf("defaultDataSource %q is not configured", c.DefaultDataSource)
		}
	}
	if c.DefaultFallbackDataSource != "" {
		if _, ok := c.Lookup(c.DefaultFallbackDataSource); !ok {
			return fmt.Errorf("defaultFallbackDatasource %q is not configured", c.DefaultFallbackDataSource)
		}
	}
	if c.RequestTimeoutSec <= 0 {
		c.RequestTimeoutSec = 10
	}
	return nil
}
