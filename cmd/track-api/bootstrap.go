package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/api/tracking_api"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/cache/rediscache"
	"github.com/BearBump/OrderTrack/internal/courier"
	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/integrations/provider/deliverynet"
	"github.com/BearBump/OrderTrack/internal/integrations/provider/fake"
	"github.com/BearBump/OrderTrack/internal/pkg/logger"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/services/fleetstats"
	"github.com/BearBump/OrderTrack/internal/services/mirror"
	"github.com/BearBump/OrderTrack/internal/services/tracking"
	"github.com/BearBump/OrderTrack/internal/status"
	"github.com/BearBump/OrderTrack/internal/storage/pgstore"
)

const defaultSwaggerPath = "api/ordertrack.swagger.json"

type trackAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   trackAPIOpts
	deps   trackAPIDeps
	log    *zap.Logger

	closers []func()
}

func mustBootstrapTrackAPI() *trackAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		swaggerPath = defaultSwaggerPath
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	log := logger.Must(cfg.OrderTrack.LogLevel)

	httpAddr := cfg.OrderTrack.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	consumerGroup := cfg.OrderTrack.KafkaConsumerGroup
	if consumerGroup == "" {
		consumerGroup = "track-api"
	}
	topic := cfg.Kafka.ProviderOrderSyncedTopicName
	if topic == "" {
		topic = messages.TopicProviderOrderSynced
	}
	requestTimeout := millis(cfg.OrderTrack.RequestTimeoutMillis, 10*time.Second)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	st, err := pgstore.New(ctx, cfg.Database.ConnString(), log.Named("pgstore"))
	if err != nil {
		cancel()
		panic(fmt.Sprintf("postgres is not ready: %v", err))
	}

	rc := rediscache.New(cfg.Redis.Addr())
	prov := newProviderClient(cfg, log)

	resolver := courier.New(log.Named("courier"), courier.Chain(st, st, st)...)

	trackingSvc := tracking.New(st, prov, resolver, log.Named("tracking")).
		WithTimeouts(
			millis(cfg.OrderTrack.LiveTimeoutMillis, 0),
			millis(cfg.OrderTrack.ProgressTimeoutMillis, 0),
			millis(cfg.OrderTrack.RequestTimeoutMillis, 0),
		).
		WithProgressTable(status.DefaultProgress().WithOverrides(cfg.OrderTrack.ProgressOverrides))

	statsSvc := fleetstats.New(st, rc, log.Named("fleetstats")).
		WithSettings(
			time.Duration(cfg.OrderTrack.StatsCacheTTLSeconds)*time.Second,
			cfg.OrderTrack.StatsMaxOrders,
			time.Duration(cfg.OrderTrack.StatsWindowDays)*24*time.Hour,
		).
		WithPolicy(statsPolicy(cfg, log))

	mirrorSvc := mirror.New(st, log.Named("mirror"))
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers(), topic, consumerGroup)

	metrics.StartSystemCollector(ctx, 15*time.Second)

	return &trackAPIApp{
		ctx:    ctx,
		cancel: cancel,
		log:    log,
		opts: trackAPIOpts{
			httpAddr:       httpAddr,
			swaggerPath:    swaggerPath,
			requestTimeout: requestTimeout,
			topic:          topic,
			consumerGroup:  consumerGroup,
		},
		deps: trackAPIDeps{
			api:      tracking_api.New(trackingSvc, statsSvc, log.Named("api")),
			consumer: consumer,
			handler:  mirrorSvc.HandleMessage,
			ready: []readyCheck{
				{name: "postgres", check: st.Ping},
				{name: "redis", check: rc.Ping},
			},
			log: log,
		},
		closers: []func(){
			func() { _ = consumer.Close() },
			func() { _ = rc.Close() },
			st.Close,
			func() { _ = log.Sync() },
		},
	}
}

func newProviderClient(cfg *config.Config, log *zap.Logger) provider.Client {
	if cfg.Provider.Fake {
		log.Warn("using fake delivery provider")
		return fake.New()
	}
	c := deliverynet.New(cfg.Provider.BaseURL, cfg.Provider.APIKey)
	if cfg.Provider.BreakerFailures > 0 {
		c = c.WithBreaker(uint32(cfg.Provider.BreakerFailures), time.Duration(cfg.Provider.BreakerOpenSeconds)*time.Second)
	}
	if !c.HasCredentials() {
		log.Warn("provider api key is empty, live lookups disabled")
	}
	return c
}

func statsPolicy(cfg *config.Config, log *zap.Logger) fleetstats.Policy {
	p := fleetstats.DefaultPolicy()
	if cfg.OrderTrack.OnTimeToleranceMinutes > 0 {
		p.OnTimeTolerance = time.Duration(cfg.OrderTrack.OnTimeToleranceMinutes) * time.Minute
	}
	if tz := cfg.OrderTrack.Timezone; tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			log.Warn("unknown timezone, using UTC", zap.String("timezone", tz), zap.Error(err))
		} else {
			p.Location = loc
		}
	}
	return p
}

func millis(ms int, def time.Duration) time.Duration {
	if ms <= 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func (a *trackAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	for _, c := range a.closers {
		c()
	}
}

func (a *trackAPIApp) Run() error {
	return runTrackAPI(a.ctx, a.opts, a.deps)
}
