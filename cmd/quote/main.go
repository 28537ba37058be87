// Command quote fetches one stock summary and prints it as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/httpx"
	"marketdata/internal/registry"
	"marketdata/internal/ticker"
)

func main() {
	var (
		configPath  = flag.String("config", getenv("CONFIG_FILE", ""), "path to config.yaml (optional)")
		symbol      = flag.String("symbol", getenv("SYMBOL", ""), "stock symbol, e.g. AAPL")
		source      = flag.String("source", "", "datasource name (defaults to the configured default)")
		fallback    = flag.String("fallback", "", "fallback datasource name")
		environment = flag.String("env", "", "per-call environment override (e.g. sandbox)")
		version     = flag.String("version", "", "per-call API version override (e.g. stable)")
		timeout     = flag.Duration("timeout", 15*time.Second, "overall request timeout")
		verbose     = flag.Bool("v", false, "verbose logging")
	)
	flag.Parse()

	// Token env vars usually live in a local .env during development.
	_ = godotenv.Load()

	log := newLogger(*verbose)
	defer log.Sync()

	if *symbol == "" {
		fmt.Fprintln(os.Stderr, "usage: quote -symbol AAPL [-source IEXCloud] [-fallback YahooFinance]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}

	client := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	reg := registry.New(cfg, client, log)

	var opts []ticker.Option
	if *source != "" {
		opts = append(opts, ticker.WithDataSource(*source))
	}
	if *fallback != "" {
		opts = append(opts, ticker.WithFallbackDataSource(*fallback))
	}
	opts = append(opts, ticker.WithLogger(log))

	tkr, err := ticker.New(reg, *symbol, opts...)
	if err != nil {
		log.Fatal("ticker", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var callOpts []ticker.CallOption
	if *environment != "" {
		callOpts = append(callOpts, ticker.WithEnvironment(*environment))
	}
	if *version != "" {
		callOpts = append(callOpts, ticker.WithVersion(*version))
	}

	got, err := tkr.GetSummary(ctx, callOpts...)
	if err != nil {
		log.Fatal("summary", zap.String("symbol", *symbol), zap.Error(err))
	}

	b, err := json.MarshalIndent(got, "", "  ")
	if err != nil {
		log.Fatal("encode", zap.Error(err))
	}
	fmt.Println(string(b))
}

func newLogger(verbose bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
