// Package iexcloud implements the IEX-Cloud-style datasource: per-environment
// base URLs and tokens, an API version path segment, and token authentication
// through a query parameter.
package iexcloud

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/datasource"
	"marketdata/internal/httpx"
)

var (
	environments = []string{"sandbox", "production"}
	versions     = []string{"stable", "latest", "v1"}
)

type DataSource struct {
	name          string
	baseURLs      map[string]string
	tokens        map[string]string
	environment   string
	version       string
	resources     map[string]string
	fallbackCodes map[int]struct{}
	client        *httpx.Client
	log           *zap.Logger
}

func New(cfg config.DataSource, hc *httpx.Client, log *zap.Logger) (*DataSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	baseURLs := cfg.BaseURL.PerEnv()
	if len(baseURLs) == 0 {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "base url must map environments to URLs"}
	}

	// Bad environment and version values are downgraded to a warning plus
	// the first allowed value. This leniency is deliberate.
	env := cfg.Environment
	if !contains(environments, env) {
		log.Warn("invalid environment, substituting default",
			zap.String("datasource", cfg.Name),
			zap.String("environment", env),
			zap.String("default", environments[0]))
		env = environments[0]
	}
	version := cfg.Version
	if !contains(versions, version) {
		if version != "" {
			log.Warn("invalid version, substituting default",
				zap.String("datasource", cfg.Name),
				zap.String("version", version),
				zap.String("default", versions[0]))
		}
		version = versions[0]
	}

	tokens, err := resolveTokens(cfg, log)
	if err != nil {
		return nil, err
	}

	codes := make(map[int]struct{}, len(cfg.HTTPFallbackCodes))
	for _, c := range cfg.HTTPFallbackCodes {
		codes[c] = struct{}{}
	}

	return &DataSource{
		name:          cfg.Name,
		baseURLs:      baseURLs,
		tokens:        tokens,
		environment:   env,
		version:       version,
		resources:     cfg.ResourceMapping,
		fallbackCodes: codes,
		client:        hc,
		log:           log,
	}, nil
}

// resolveTokens resolves the per-environment token map. A single missing
// environment token is dropped with a warning; a provider with no resolvable
// token at all fails construction.
func resolveTokens(cfg config.DataSource, log *zap.Logger) (map[string]string, error) {
	perEnv := cfg.AuthToken.PerEnv()
	if perEnv == nil {
		if cfg.AuthToken.Literal() == "" {
			return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "auth token is required"}
		}
		tok, err := datasource.ResolveToken(cfg.AuthToken.Literal())
		if err != nil {
			return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "auth token resolution failed", Err: err}
		}
		tokens := make(map[string]string, len(environments))
		for _, env := range environments {
			tokens[env] = tok
		}
		return tokens, nil
	}

	tokens := make(map[string]string, len(perEnv))
	for env, raw := range perEnv {
		tok, err := datasource.ResolveToken(raw)
		if err != nil {
			log.Warn("dropping environment with unresolvable token",
				zap.String("datasource", cfg.Name),
				zap.String("environment", env),
				zap.Error(err))
			continue
		}
		tokens[env] = tok
	}
	if len(tokens) == 0 {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "no environment has a resolvable auth token"}
	}
	return tokens, nil
}

func (d *DataSource) Name() string { return d.name }

func (d *DataSource) Execute(ctx context.Context, function, symbol string, opts *datasource.CallOptions) (map[string]any, error) {
	if symbol == "" {
		return nil, &datasource.InvalidArgumentError{Param: "symbol"}
	}
	resource, ok := d.resources[function]
	if !ok {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}

	env := d.environment
	version := d.version
	var token string
	if opts != nil {
		if opts.Environment != "" {
			env = opts.Environment
		}
		if opts.Version != "" {
			version = opts.Version
		}
		token = opts.Token
	}

	base, ok := d.baseURLs[env]
	if !ok {
		return nil, &datasource.InvalidArgumentError{Param: "environment"}
	}
	if token == "" {
		token, ok = d.tokens[env]
		if !ok {
			return nil, &datasource.InvalidArgumentError{Param: "token"}
		}
	}

	rawURL := fmt.Sprintf("%s/%s%s", base, version, datasource.ExpandSymbol(resource, symbol))
	params := url.Values{}
	params.Set("token", token)
	return datasource.FetchJSON(ctx, d.client, d.name, rawURL, params)
}

func (d *DataSource) FallbackEligible(statusCode int) bool {
	_, ok := d.fallbackCodes[statusCode]
	return ok
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
