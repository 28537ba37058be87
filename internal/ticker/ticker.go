// Package ticker binds a stock symbol to a primary and a fallback
// datasource and runs lookups with exactly one fallback hop.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"marketdata/internal/datasource"
	"marketdata/internal/summary"
)

// Resolver turns a datasource name into an instance. The registry satisfies
// this; tests substitute fakes.
type Resolver interface {
	Create(name string) (datasource.DataSource, error)
	Defaults() (source, fallback string)
}

// Ticker looks up market data for one symbol. It holds references to its
// datasources, not ownership; it is stateless across calls and safe to reuse
// for repeated lookups of the same symbol.
type Ticker struct {
	symbol   string
	resolver Resolver
	primary  datasource.DataSource
	fallback datasource.DataSource
	log      *zap.Logger
}

type Option func(*tickerOptions)

type tickerOptions struct {
	source   string
	fallback string
	log      *zap.Logger
}

// WithDataSource names the primary datasource instead of the configured
// default.
func WithDataSource(name string) Option {
	return func(o *tickerOptions) { o.source = name }
}

// WithFallbackDataSource names the fallback datasource instead of the
// configured default.
func WithFallbackDataSource(name string) Option {
	return func(o *tickerOptions) { o.fallback = name }
}

func WithLogger(log *zap.Logger) Option {
	return func(o *tickerOptions) { o.log = log }
}

func New(resolver Resolver, symbol string, opts ...Option) (*Ticker, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, &datasource.InvalidArgumentError{Param: "symbol"}
	}
	var o tickerOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	defSource, defFallback := resolver.Defaults()
	if o.source == "" {
		o.source = defSource
	}
	if o.fallback == "" {
		o.fallback = defFallback
	}

	primary, err := resolver.Create(o.source)
	if err != nil {
		return nil, err
	}
	fallback, err := resolver.Create(o.fallback)
	if err != nil {
		return nil, err
	}

	return &Ticker{
		symbol:   symbol,
		resolver: resolver,
		primary:  primary,
		fallback: fallback,
		log:      o.log,
	}, nil
}

func (t *Ticker) Symbol() string { return t.symbol }

func (t *Ticker) DataSource() datasource.DataSource { return t.primary }

func (t *Ticker) FallbackDataSource() datasource.DataSource { return t.fallback }

// SetDataSource rebinds the primary datasource by name.
func (t *Ticker) SetDataSource(name string) error {
	ds, err := t.resolver.Create(name)
	if err != nil {
		return err
	}
	t.primary = ds
	return nil
}

// SetFallbackDataSource rebinds the fallback datasource by name.
func (t *Ticker) SetFallbackDataSource(name string) error {
	ds, err := t.resolver.Create(name)
	if err != nil {
		return err
	}
	t.fallback = ds
	return nil
}

// CallOption adjusts a single lookup without touching the Ticker's bindings.
type CallOption func(*callConfig)

type callConfig struct {
	source string
	opts   datasource.CallOptions
}

// WithSource resolves a different primary datasource for this call only.
// The transient instance comes from the resolver; the stored binding is
// never mutated.
func WithSource(name string) CallOption {
	return func(c *callConfig) { c.source = name }
}

func WithEnvironment(env string) CallOption {
	return func(c *callConfig) { c.opts.Environment = env }
}

func WithVersion(version string) CallOption {
	return func(c *callConfig) { c.opts.Version = version }
}

func WithToken(token string) CallOption {
	return func(c *callConfig) { c.opts.Token = token }
}

// GetSummary fetches the stock summary. On a transport failure, a
// fallback-eligible status code, or a library I/O error the fallback
// datasource is invoked exactly once; any fallback failure is terminal.
func (t *Ticker) GetSummary(ctx context.Context, opts ...CallOption) (map[string]any, error) {
	var cc callConfig
	for _, opt := range opts {
		opt(&cc)
	}

	primary := t.primary
	if cc.source != "" {
		ds, err := t.resolver.Create(cc.source)
		if err != nil {
			return nil, err
		}
		primary = ds
	}

	body, err := primary.Execute(ctx, datasource.FunctionSummary, t.symbol, &cc.opts)
	if err == nil {
		return summary.Normalize(body), nil
	}

	// Caller mistakes fail identically against any source; surface them.
	var invalid *datasource.InvalidArgumentError
	if errors.As(err, &invalid) {
		return nil, err
	}

	// Eligibility is decided on the raw status code alone. A status outside
	// the source's allow-list is terminal.
	var status *datasource.StatusError
	if errors.As(err, &status) && !primary.FallbackEligible(status.StatusCode) {
		return nil, &MarketDataError{Symbol: t.symbol, Source: primary.Name(), Err: err}
	}

	t.log.Warn("primary datasource failed, invoking fallback",
		zap.String("symbol", t.symbol),
		zap.String("datasource", primary.Name()),
		zap.String("fallback", t.fallback.Name()),
		zap.Error(err))

	// Per-call environment/version/token overrides are provider-specific;
	// the fallback runs with its own configured defaults.
	body, fbErr := t.fallback.Execute(ctx, datasource.FunctionSummary, t.symbol, nil)
	if fbErr != nil {
		return nil, &MarketDataError{
			Symbol:         t.symbol,
			Source:         primary.Name(),
			Err:            err,
			FallbackSource: t.fallback.Name(),
			FallbackErr:    fbErr,
		}
	}
	return summary.Normalize(body), nil
}

// MarketDataError is the terminal lookup failure. When the fallback ran and
// also failed, both causes are carried.
type MarketDataError struct {
	Symbol         string
	Source         string
	Err            error
	FallbackSource string
	FallbackErr    error
}

func (e *MarketDataError) Error() string {
	msg := fmt.Sprintf("market data lookup for %s via %s failed: %v", e.Symbol, e.Source, e.Err)
	if e.FallbackErr != nil {
		msg += fmt.Sprintf("; fallback %s failed: %v", e.FallbackSource, e.FallbackErr)
	}
	return msg
}

func (e *MarketDataError) Unwrap() []error {
	errs := []error{e.Err}
	if e.FallbackErr != nil {
		errs = append(errs, e.FallbackErr)
	}
	return errs
}
