package main

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/broker/kafka"
	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/cache/rediscache"
	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/integrations/provider/deliverynet"
	"github.com/BearBump/OrderTrack/internal/integrations/provider/fake"
	"github.com/BearBump/OrderTrack/internal/services/syncer"
	"github.com/BearBump/OrderTrack/internal/storage/pgstore"
)

type workerFactories struct {
	newStorage        func(ctx context.Context, cfg *config.Config, log *zap.Logger) (repo syncer.Repository, closeFn func(), err error)
	newProducer       func(cfg *config.Config) syncer.Producer
	newRateLimiter    func(cfg *config.Config) syncer.RateLimiter
	newProviderClient func(cfg *config.Config) provider.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newStorage: func(ctx context.Context, cfg *config.Config, log *zap.Logger) (syncer.Repository, func(), error) {
			st, err := pgstore.New(ctx, cfg.Database.ConnString(), log.Named("pgstore"))
			if err != nil {
				return nil, nil, err
			}
			return st, st.Close, nil
		},
		newProducer: func(cfg *config.Config) syncer.Producer {
			return kafka.NewProducer(cfg.Kafka.Brokers())
		},
		newRateLimiter: func(cfg *config.Config) syncer.RateLimiter {
			return rediscache.NewRateLimiter(cfg.Redis.Addr())
		},
		newProviderClient: func(cfg *config.Config) provider.Client {
			if cfg.Provider.Fake {
				return fake.New()
			}
			c := deliverynet.New(cfg.Provider.BaseURL, cfg.Provider.APIKey)
			if cfg.Provider.BreakerFailures > 0 {
				c = c.WithBreaker(uint32(cfg.Provider.BreakerFailures), seconds(cfg.Provider.BreakerOpenSeconds))
			}
			return c
		},
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func plannerConfig(cfg *config.Config) syncer.PlannerConfig {
	o := cfg.OrderTrack
	// нули заменяются значениями по умолчанию в syncer.NewPlanner
	return syncer.PlannerConfig{
		PendingDelay:   seconds(o.WorkerNextSyncPendingSeconds),
		ActiveMinDelay: seconds(o.WorkerNextSyncActiveMinSeconds),
		ActiveMaxDelay: seconds(o.WorkerNextSyncActiveMaxSeconds),
		UnknownDelay:   seconds(o.WorkerNextSyncUnknownSeconds),
		Backoff1:       seconds(o.WorkerBackoff1Seconds),
		Backoff2:       seconds(o.WorkerBackoff2Seconds),
		Backoff3:       seconds(o.WorkerBackoff3Seconds),
		Backoff4:       seconds(o.WorkerBackoff4Seconds),
	}
}

// RunSyncWorker поднимает syncer и служебный HTTP сервер до отмены ctx.
func RunSyncWorker(ctx context.Context, cfg *config.Config, f workerFactories, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	topic := cfg.Kafka.ProviderOrderSyncedTopicName
	if topic == "" {
		topic = messages.TopicProviderOrderSynced
	}

	repo, closeFn, err := f.newStorage(ctx, cfg, log)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}

	prov := f.newProviderClient(cfg)
	if !prov.HasCredentials() {
		log.Warn("provider credentials are empty, every sync will back off")
	}

	s := syncer.New(repo, prov, f.newProducer(cfg), f.newRateLimiter(cfg), topic, log.Named("syncer")).
		WithSettings(
			seconds(cfg.OrderTrack.WorkerPollIntervalSeconds),
			cfg.OrderTrack.WorkerBatchSize,
			cfg.OrderTrack.WorkerConcurrency,
			seconds(cfg.OrderTrack.WorkerLeaseSeconds),
			int64(cfg.OrderTrack.WorkerRateLimitPerMinute),
		).
		WithPlanner(plannerConfig(cfg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.Run(gctx)
	})
	if cfg.OrderTrack.WorkerHTTPAddr != "" {
		g.Go(func() error {
			return runWorkerHTTPServer(gctx, workerHTTPOpts{
				httpAddr:    cfg.OrderTrack.WorkerHTTPAddr,
				swaggerPath: os.Getenv("workerSwaggerPath"),
				syncer:      s,
				cfg:         cfg,
				log:         log,
			})
		})
	}
	return g.Wait()
}
