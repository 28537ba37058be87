package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"marketdata/internal/httpx"
)

// FunctionSummary is the logical function name for a stock summary lookup.
const FunctionSummary = "summary"

// envTokenPrefix marks an auth token value that must be resolved from a
// process environment variable, e.g. "env.IEX_TOKEN".
const envTokenPrefix = "env."

// CallOptions carries per-call overrides. A nil *CallOptions means "use the
// source's configured defaults". Overrides never mutate the source.
type CallOptions struct {
	Environment string
	Version     string
	Token       string
}

// DataSource is an upstream market-data source. Implementations normalize
// heterogeneous authentication and URL schemes behind Execute.
//
//go:generate mockgen -package=ticker_test -destination=../ticker/mock_datasource_test.go -source=datasource.go DataSource
type DataSource interface {
	Name() string

	// Execute runs the named logical function for a symbol and returns the
	// decoded response object. Non-2xx responses surface as *StatusError,
	// transport failures as the underlying error.
	Execute(ctx context.Context, function, symbol string, opts *CallOptions) (map[string]any, error)

	// FallbackEligible reports whether a raw HTTP status code is in the
	// source's configured fallback allow-list. Library-backed sources
	// always answer false.
	FallbackEligible(statusCode int) bool
}

// ResolveToken resolves an auth token value. Values with the "env." prefix
// are read from the named environment variable; everything else is taken
// literally. Resolution happens once, at source construction.
func ResolveToken(v string) (string, error) {
	if !strings.HasPrefix(v, envTokenPrefix) {
		return v, nil
	}
	name := strings.TrimPrefix(v, envTokenPrefix)
	tok, ok := os.LookupEnv(name)
	if !ok || tok == "" {
		return "", &ConfigError{Reason: fmt.Sprintf("environment variable %s is not set", name)}
	}
	return tok, nil
}

// FetchJSON executes a blocking GET and decodes the JSON object body.
// Non-2xx responses return a *StatusError carrying the raw status code and
// (truncated) body without decoding; the fallback decision is made on the
// status alone.
func FetchJSON(ctx context.Context, client *httpx.Client, source, rawURL string, params url.Values) (map[string]any, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse url: %w", source, err)
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(ctx, req)
	if err != nil {
		// Transport-level failure; returned raw so the caller can tell it
		// apart from an upstream status error.
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, &StatusError{Source: source, StatusCode: resp.StatusCode, Body: b}
	}

	var body map[string]any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, fmt.Errorf("%s: decode: %w", source, err)
	}
	return body, nil
}

// ExpandSymbol substitutes the {symbol} placeholder in a resource template.
func ExpandSymbol(template, symbol string) string {
	return strings.ReplaceAll(template, "{symbol}", url.PathEscape(symbol))
}
