package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/services/syncer"
)

type workerHTTPOpts struct {
	httpAddr    string
	swaggerPath string
	onListen    func(httpAddr string)

	syncer *syncer.Syncer
	cfg    *config.Config
	log    *zap.Logger
}

func runWorkerHTTPServer(ctx context.Context, opts workerHTTPOpts) error {
	if opts.httpAddr == "" {
		opts.httpAddr = ":8082"
	}
	if opts.log == nil {
		opts.log = zap.NewNop()
	}
	if opts.swaggerPath != "" {
		if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
			return fmt.Errorf("worker swagger file not found: %s", opts.swaggerPath)
		}
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	srv := &http.Server{Handler: newWorkerRouter(opts), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	opts.log.Info("worker HTTP listening", zap.String("addr", lis.Addr().String()))
	err = srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}

func newWorkerRouter(opts workerHTTPOpts) http.Handler {
	r := chi.NewRouter()
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.syncer == nil {
			_, _ = w.Write([]byte(`{"error":"syncer not wired"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(opts.syncer.Stats())
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// без секретов, только настройки воркера
		o := opts.cfg.OrderTrack
		_ = json.NewEncoder(w).Encode(map[string]any{
			"pollIntervalSeconds":        o.WorkerPollIntervalSeconds,
			"batchSize":                  o.WorkerBatchSize,
			"concurrency":                o.WorkerConcurrency,
			"leaseSeconds":               o.WorkerLeaseSeconds,
			"rateLimitPerMinute":         o.WorkerRateLimitPerMinute,
			"nextSyncPendingSeconds":     o.WorkerNextSyncPendingSeconds,
			"nextSyncActiveMinSeconds":   o.WorkerNextSyncActiveMinSeconds,
			"nextSyncActiveMaxSeconds":   o.WorkerNextSyncActiveMaxSeconds,
			"nextSyncUnknownSeconds":     o.WorkerNextSyncUnknownSeconds,
			"providerFake":               opts.cfg.Provider.Fake,
			"providerCredentialsPresent": opts.cfg.Provider.APIKey != "",
		})
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.syncer == nil {
			_, _ = w.Write([]byte(`{"error":"syncer not wired"}`))
			return
		}
		opts.syncer.Trigger()
		_, _ = w.Write([]byte(`{"triggered":true}`))
	})

	if opts.swaggerPath != "" {
		r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			http.ServeFile(w, r, opts.swaggerPath)
		})
		swaggerURL := "/swagger.json"
		if fi, err := os.Stat(opts.swaggerPath); err == nil {
			swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
		}
		r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))
	}
	return r
}
