// Package rest implements the plain REST datasource: a literal base URL, a
// resource template per logical function, and an optional token sent as a
// query parameter.
package rest

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
	token         string
	resources     map[string]string
	fallbackCodes map[int]struct{}
	client        *httpx.Client
}

func New(cfg config.DataSource, hc *httpx.Client) (*DataSource, error) {
	if !cfg.IsLibrary && cfg.BaseURL.Literal() == "" {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "base url is required when the datasource is not a library"}
	}

	var token string
	if cfg.IsAuthenticated {
		if cfg.AuthToken.IsZero() {
			return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "auth token is required for an authenticated datasource"}
		}
		var err error
		token, err = datasource.ResolveToken(cfg.AuthToken.Literal())
		if err != nil {
			return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "auth token resolution failed", Err: err}
		}
	}

	codes := make(map[int]struct{}, len(cfg.HTTPFallbackCodes))
	for _, c := range cfg.HTTPFallbackCodes {
		codes[c] = struct{}{}
	}

	return &DataSource{
		name:          cfg.Name,
		baseURL:       cfg.BaseURL.Literal(),
		token:         token,
		resources:     cfg.ResourceMapping,
		fallbackCodes: codes,
		client:        hc,
	}, nil
}

func (d *DataSource) Name() string { return d.name }

func (d *DataSource) Execute(ctx context.Context, function, symbol string, opts *datasource.CallOptions) (map[string]any, error) {
	if function == "" {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}
	if symbol == "" {
		return nil, &datasource.InvalidArgumentError{Param: "symbol"}
	}
	resource, ok := d.resources[function]
	if !ok {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}

	params := url.Values{}
	token := d.token
	if opts != nil && opts.Token != "" {
		token = opts.Token
	}
	if token != "" {
		params.Set("token", token)
	}

	return datasource.FetchJSON(ctx, d.client, d.name, d.baseURL+datasource.ExpandSymbol(resource, symbol), params)
}

func (d *DataSource) FallbackEligible(statusCode int) bool {
	_, ok := d.fallbackCodes[statusCode]
	return ok
}
