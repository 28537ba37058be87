// Package yahoofinance implements the library-backed datasource. There is no
// JSON API behind it: a per-symbol quote handle scrapes the public quote
// pages and exposes named lookups. Handles are expensive to build, so they
// live in a small LRU cache.
package yahoofinance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"marketdata/internal/config"
	"marketdata/internal/datasource"
	"marketdata/internal/datasource/cache"
	"marketdata/internal/httpx"
)

const (
	defaultCacheCapacity = 10
	defaultBaseURL       = "https://finance.yahoo.com"
)

// methods is the closed set of handle lookups a resource mapping may name.
var methods = map[string]func(*quoteHandle) (map[string]any, error){
	"Summary": (*quoteHandle).summary,
	"Price":   (*quoteHandle).price,
}

type DataSource struct {
	name      string
	baseURL   string
	resources map[string]string
	client    *httpx.Client
	log       *zap.Logger

	// handles is not safe for concurrent use on its own; mu guards it.
	mu      sync.Mutex
	handles *cache.Cache[string, *quoteHandle]
	sf      singleflight.Group

	// newHandle builds a handle for a symbol. Swappable in tests to count
	// constructions.
	newHandle func(ctx context.Context, symbol string) (*quoteHandle, error)
}

func New(cfg config.DataSource, hc *httpx.Client, log *zap.Logger) (*DataSource, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for function, method := range cfg.ResourceMapping {
		if _, ok := methods[method]; !ok {
			return nil, &datasource.ConfigError{
				Source: cfg.Name,
				Reason: fmt.Sprintf("resource mapping %q names unknown method %q", function, method),
			}
		}
	}

	capacity := cfg.Cache.Capacity
	if capacity == 0 {
		capacity = defaultCacheCapacity
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	handles, err := cache.New[string, *quoteHandle](capacity, ttl)
	if err != nil {
		return nil, &datasource.ConfigError{Source: cfg.Name, Reason: "invalid handle cache configuration", Err: err}
	}

	d := &DataSource{
		name:      cfg.Name,
		baseURL:   defaultBaseURL,
		resources: cfg.ResourceMapping,
		client:    hc,
		log:       log,
		handles:   handles,
	}
	d.newHandle = d.scrapeHandle
	return d, nil
}

func (d *DataSource) Name() string { return d.name }

func (d *DataSource) Execute(ctx context.Context, function, symbol string, _ *datasource.CallOptions) (map[string]any, error) {
	if symbol == "" {
		return nil, &datasource.InvalidArgumentError{Param: "symbol"}
	}
	method, ok := d.resources[function]
	if !ok {
		return nil, &datasource.InvalidArgumentError{Param: "function"}
	}

	h, err := d.handle(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return methods[method](h)
}

// FallbackEligible always answers false: there is no HTTP status to match
// against a fallback code list. The ticker treats any handle error as
// fallback-worthy on its own.
func (d *DataSource) FallbackEligible(int) bool { return false }

// handle returns the cached handle for symbol, building one on miss.
// Concurrent builds for the same symbol are coalesced.
func (d *DataSource) handle(ctx context.Context, symbol string) (*quoteHandle, error) {
	d.mu.Lock()
	h, ok := d.handles.Get(symbol)
	d.mu.Unlock()
	if ok {
		return h, nil
	}

	v, err, _ := d.sf.Do(symbol, func() (any, error) {
		h, err := d.newHandle(ctx, symbol)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.handles.Put(symbol, h)
		d.mu.Unlock()
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*quoteHandle), nil
}

// quoteHandle holds the fields scraped for one symbol.
type quoteHandle struct {
	symbol string
	fields map[string]any
}

func (h *quoteHandle) summary() (map[string]any, error) {
	out := make(map[string]any, len(h.fields)+1)
	out["symbol"] = h.symbol
	for k, v := range h.fields {
		out[k] = v
	}
	return out, nil
}

func (h *quoteHandle) price() (map[string]any, error) {
	out := map[string]any{"symbol": h.symbol}
	for _, k := range []string{"latestPrice", "week52high", "week52low"} {
		if v, ok := h.fields[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

// labelKeys maps scraped statistic labels to the canonical summary keys.
// Labels not listed here are kept under a lower-camel form of the label.
var labelKeys = map[string]string{
	"Market Cap":                    "marketcap",
	"Market Cap (intraday)":         "marketcap",
	"52 Week High":                  "week52high",
	"52-Week High":                  "week52high",
	"52 Week Low":                   "week52low",
	"52-Week Low":                   "week52low",
	"52-Week Change":                "week52change",
	"Shares Outstanding":            "sharesOutstanding",
	"Avg Vol (10 day)":              "avg10Volume",
	"Avg Vol (3 month)":             "avg30Volume",
	"200-Day Moving Average":        "day200MovingAvg",
	"50-Day Moving Average":         "day50MovingAvg",
	"Full Time Employees":           "employees",
	"Diluted EPS (ttm)":             "ttmEPS",
	"Float":                         "float",
	"Forward Annual Dividend Yield": "dividendYield",
}

// scrapeHandle fetches the key-statistics page for a symbol and collects its
// label/value table rows into a field map.
func (d *DataSource) scrapeHandle(ctx context.Context, symbol string) (*quoteHandle, error) {
	rawURL := fmt.Sprintf("%s/quote/%s/key-statistics", d.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", d.name, err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: GET %s -> %d", d.name, rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: parse page: %w", d.name, err)
	}

	fields := make(map[string]any)
	doc.Find("table tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		label := strings.TrimSpace(cells.First().Text())
		value := strings.TrimSpace(cells.Eq(1).Text())
		if label == "" || value == "" {
			return
		}
		key, ok := labelKeys[label]
		if !ok {
			key = lowerCamel(label)
		}
		fields[key] = value
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: no statistics found for %s", d.name, symbol)
	}
	d.log.Debug("built quote handle", zap.String("symbol", symbol), zap.Int("fields", len(fields)))
	return &quoteHandle{symbol: symbol, fields: fields}, nil
}

// lowerCamel turns "Enterprise Value" into "enterpriseValue", dropping
// anything that is not a letter or digit.
func lowerCamel(label string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range label {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'
		if !isLower && !isUpper && !isDigit {
			if b.Len() > 0 {
				upperNext = true
			}
			continue
		}
		switch {
		case b.Len() == 0 && isUpper:
			r += 'a' - 'A'
		case upperNext && isLower:
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
		upperNext = false
	}
	return b.String()
}
