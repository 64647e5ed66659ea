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

	"github.com/BearBump/OrderTrack/internal/api/tracking_api"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/pkg/middleware"
)

type trackAPIOpts struct {
	httpAddr       string
	swaggerPath    string
	requestTimeout time.Duration

	topic         string
	consumerGroup string

	onListen func(httpAddr string)
}

type kafkaConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

// readyCheck: проверка одной зависимости для /readyz.
type readyCheck struct {
	name  string
	check func(ctx context.Context) error
}

type trackAPIDeps struct {
	api      *tracking_api.TrackingAPI
	consumer kafkaConsumer
	handler  kafka.Handler
	ready    []readyCheck
	log      *zap.Logger
}

func runTrackAPI(ctx context.Context, opts trackAPIOpts, deps trackAPIDeps) error {
	if opts.swaggerPath == "" {
		return fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}
	if deps.log == nil {
		deps.log = zap.NewNop()
	}

	lis, err := net.Listen("tcp", opts.httpAddr)
	if err != nil {
		return err
	}
	if opts.onListen != nil {
		opts.onListen(lis.Addr().String())
	}

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- runHTTPServer(ctx, lis, newRouter(opts, deps), deps.log)
	}()

	consumerErr := make(chan error, 1)
	if deps.consumer != nil && deps.handler != nil {
		go func() {
			deps.log.Info("kafka consumer started", zap.String("topic", opts.topic), zap.String("group", opts.consumerGroup))
			consumerErr <- deps.consumer.Consume(ctx, deps.handler)
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-httpErr:
		return err
	case err := <-consumerErr:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// без commit сообщение перечитается после рестарта
		return errors.Wrap(err, "kafka consumer stopped")
	}
}

func newRouter(opts trackAPIOpts, deps trackAPIDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(deps.log), middleware.AccessLog(deps.log), metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		failed := map[string]string{}
		for _, c := range deps.ready {
			if err := c.check(ctx); err != nil {
				failed[c.name] = err.Error()
			}
		}
		if len(failed) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]any{"status": "not ready", "failed": failed})
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger.json"),
	))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(opts.requestTimeout))
		deps.api.Register(r)
	})
	return r
}

func runHTTPServer(ctx context.Context, lis net.Listener, h http.Handler, log *zap.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("HTTP server listening", zap.String("addr", lis.Addr().String()))
	err := srv.Serve(lis)
	if errors.Is(err, http.ErrServerClosed) {
		return ctx.Err()
	}
	return err
}
