// Command server exposes stock summaries over HTTP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"marketdata/internal/config"
	"marketdata/internal/datasource"
	"marketdata/internal/httpx"
	"marketdata/internal/registry"
	"marketdata/internal/ticker"
)

func main() {
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatal("config", zap.Error(err))
	}
	port := getenv("PORT", "8080")

	client := httpx.New(time.Duration(cfg.RequestTimeoutSec) * time.Second)
	reg := registry.New(cfg, client, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handleGetSummary(w, r, reg, log)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           withJSONHeaders(recoverPanic(mux)),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func handleGetSummary(w http.ResponseWriter, r *http.Request, resolver ticker.Resolver, log *zap.Logger) {
	q := r.URL.Query()
	writeSummary(w, r.Context(), resolver, summaryRequest{
		symbol:      strings.TrimSpace(q.Get("symbol")),
		source:      q.Get("source"),
		fallback:    q.Get("fallback"),
		environment: q.Get("env"),
		version:     q.Get("version"),
	}, log)
}

type summaryRequest struct {
	symbol      string
	source      string
	fallback    string
	environment string
	version     string
}

type summaryResponse struct {
	Symbol  string         `json:"symbol"`
	Summary map[string]any `json:"summary"`
}

func writeSummary(w http.ResponseWriter, rctx context.Context, resolver ticker.Resolver, req summaryRequest, log *zap.Logger) {
	if req.symbol == "" {
		http.Error(w, "missing symbol query param", http.StatusBadRequest)
		return
	}

	opts := []ticker.Option{ticker.WithLogger(log)}
	if req.source != "" {
		opts = append(opts, ticker.WithDataSource(req.source))
	}
	if req.fallback != "" {
		opts = append(opts, ticker.WithFallbackDataSource(req.fallback))
	}

	tkr, err := ticker.New(resolver, req.symbol, opts...)
	if err != nil {
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(rctx, 15*time.Second)
	defer cancel()

	var callOpts []ticker.CallOption
	if req.environment != "" {
		callOpts = append(callOpts, ticker.WithEnvironment(req.environment))
	}
	if req.version != "" {
		callOpts = append(callOpts, ticker.WithVersion(req.version))
	}

	got, err := tkr.GetSummary(ctx, callOpts...)
	if err != nil {
		log.Warn("summary lookup failed", zap.String("symbol", req.symbol), zap.Error(err))
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(summaryResponse{Symbol: req.symbol, Summary: got})
}

func writeError(w http.ResponseWriter, err error) {
	var notFound *datasource.NotFoundError
	if errors.As(err, &notFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var invalid *datasource.InvalidArgumentError
	if errors.As(err, &invalid) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Error(w, err.Error(), http.StatusBadGateway)
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
