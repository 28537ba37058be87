// Package alphavantage implements the Alpha-Vantage-style datasource: one
// query endpoint, the upstream function selected by a query parameter, and
// the API key sent as "apikey".
package alphavantage

import (
	"context"
	"net/url"

	"marketdata/internal/config"
	"marketdata/internal/datasource"
	"marketdata/internal/httpx"
)

type DataSource struct {
	name          string
	baseURL       string
	apiKey        string
	resources     map[string]string
	fallbackCodes map[int]struct{}
	client        *httpx.Client
}

func New(cfg config.DataSource, hc *httpx.Client) (*DataSource, error) {
	if cfg.BaseURL.Literal() == "" {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "base url is required"}
	}
	if cfg.AuthToken.IsZero() {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "api key is required"}
	}
	key, err := datasource.ResolveToken(cfg.AuthToken.Literal())
	if err != nil {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "api key resolution failed", Err: err}
	}

	codes := make(map[int]struct{}, len(cfg.HTTPFallbackCodes))
	for _, c := range cfg.HTTPFallbackCodes {
		codes[c] = struct{}{}
	}

	return &DataSource{
		name:          cfg.Name,
		baseURL:       cfg.BaseURL.Literal(),
		apiKey:        key,
		resources:     cfg.ResourceMapping,
		fallbackCodes: codes,
		client:        hc,
	}, nil
}

func (d *DataSource) Name() string { return d.name }

// Execute requires both a function and a symbol; they become the upstream
// "function" and "symbol" query parameters.
func (d *DataSource) Execute(ctx context.Context, function, symbol string, opts *datasource.CallOptions) (map[string]any, error) {
	if function == "" {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}
	if symbol == "" {
		return nil, &datasource.InvalidArgumentError{Param: "symbol"}
	}
	upstream, ok := d.resources[function]
	if !ok {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}

	key := d.apiKey
	if opts != nil && opts.Token != "" {
		key = opts.Token
	}

	params := url.Values{}
	params.Set("function", upstream)
	params.Set("symbol", symbol)
	params.Set("apikey", key)
	return datasource.FetchJSON(ctx, d.client, d.name, d.baseURL, params)
}

func (d *DataSource) FallbackEligible(statusCode int) bool {
	_, ok := d.fallbackCodes[statusCode]
	return ok
}
