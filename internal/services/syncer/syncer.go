package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/pkg/retrier"
	"github.com/BearBump/OrderTrack/internal/status"
)

var ErrRateLimited = errors.New("provider rate limit exceeded")

type Repository interface {
	ClaimDueSyncs(ctx context.Context, now time.Time, limit int, lease time.Duration) ([]*models.SyncTarget, error)
}

type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// Syncer периодически забирает активные заказы с номером провайдера,
// запрашивает их у провайдера и публикует результат в Kafka.
type Syncer struct {
	repo     Repository
	provider provider.Client
	producer Producer
	rl       RateLimiter
	log      *zap.Logger

	topic string

	planner *Planner
	publish *retrier.Retrier

	pollInterval       time.Duration
	batchSize          int
	concurrency        int
	lease              time.Duration
	rateLimitPerMinute int64

	now       func() time.Time
	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalClaimed        atomic.Int64
	totalProcessed      atomic.Int64
	totalErrors         atomic.Int64
	inFlight            atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(repo Repository, prov provider.Client, producer Producer, rl RateLimiter, topic string, log *zap.Logger) *Syncer {
	if log == nil {
		log = zap.NewNop()
	}
	if topic == "" {
		topic = messages.TopicProviderOrderSynced
	}
	return &Syncer{
		repo: repo, provider: prov, producer: producer, rl: rl, topic: topic, log: log,
		planner: NewPlanner(DefaultPlannerConfig(), nil),
		// Kafka может быть не готова сразу после старта docker compose.
		publish: retrier.New(retrier.Config{
			InitialInterval: 150 * time.Millisecond,
			MaxInterval:     2 * time.Second,
			MaxElapsedTime:  15 * time.Second,
			Randomization:   0.3,
			Multiplier:      2,
			MaxRetries:      10,
			ShouldRetry: func(err error) bool {
				return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
			},
		}),
		pollInterval:       2 * time.Second,
		batchSize:          100,
		concurrency:        10,
		lease:              120 * time.Second,
		rateLimitPerMinute: 120,
		now:                time.Now,
		triggerCh:          make(chan struct{}, 1),
		startedAtUnixNano:  time.Now().UTC().UnixNano(),
	}
}

func (s *Syncer) WithSettings(pollInterval time.Duration, batchSize, concurrency int, lease time.Duration, rlPerMin int64) *Syncer {
	if pollInterval > 0 {
		s.pollInterval = pollInterval
	}
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if concurrency > 0 {
		s.concurrency = concurrency
	}
	if lease > 0 {
		s.lease = lease
	}
	if rlPerMin > 0 {
		s.rateLimitPerMinute = rlPerMin
	}
	return s
}

func (s *Syncer) WithPlanner(cfg PlannerConfig) *Syncer {
	s.planner = NewPlanner(cfg, nil)
	return s
}

// Trigger forces an immediate sync cycle (best-effort, non-blocking).
func (s *Syncer) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt      time.Time  `json:"startedAt"`
	LastCycleAt    *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt  *time.Time `json:"lastTriggerAt,omitempty"`
	TotalClaimed   int64      `json:"totalClaimed"`
	TotalProcessed int64      `json:"totalProcessed"`
	TotalErrors    int64      `json:"totalErrors"`
	InFlight       int64      `json:"inFlight"`
	LastError      string     `json:"lastError,omitempty"`
}

func (s *Syncer) Stats() Stats {
	st := Stats{
		StartedAt:      time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalClaimed:   s.totalClaimed.Load(),
		TotalProcessed: s.totalProcessed.Load(),
		TotalErrors:    s.totalErrors.Load(),
		InFlight:       s.inFlight.Load(),
	}
	if n := s.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Syncer) Run(ctx context.Context) error {
	t := time.NewTicker(s.pollInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Syncer) setLastError(err error) {
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
}

func (s *Syncer) runOnce(ctx context.Context) {
	now := s.now().UTC()
	s.lastCycleUnixNano.Store(now.UnixNano())

	items, err := s.repo.ClaimDueSyncs(ctx, now, s.batchSize, s.lease)
	if err != nil {
		s.log.Error("claim due syncs", zap.Error(err))
		s.setLastError(err)
		return
	}
	s.totalClaimed.Add(int64(len(items)))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for _, target := range items {
		sem <- struct{}{}
		wg.Add(1)
		s.inFlight.Add(1)
		go func(target *models.SyncTarget) {
			defer func() {
				s.inFlight.Add(-1)
				<-sem
				wg.Done()
			}()
			if err := s.processOne(ctx, target); err != nil {
				s.totalErrors.Add(1)
				s.setLastError(err)
				s.log.Error("sync order",
					zap.String("order_id", target.OrderID),
					zap.String("provider_order_number", target.ProviderOrderNumber),
					zap.Error(err))
			}
			s.totalProcessed.Add(1)
		}(target)
	}
	wg.Wait()
}

func (s *Syncer) processOne(ctx context.Context, target *models.SyncTarget) error {
	now := s.now().UTC()

	if s.rl != nil && s.rateLimitPerMinute > 0 {
		minuteKey := fmt.Sprintf("rl:provider:%s", now.Format("200601021504"))
		allowed, n, err := s.rl.Allow(ctx, minuteKey, s.rateLimitPerMinute, 70*time.Second)
		if err != nil {
			return errors.Wrap(err, "rate limit")
		}
		if !allowed {
			// заказ вернётся в выборку, когда истечёт lease
			s.log.Warn("provider rate limit exceeded", zap.Int64("count", n))
			metrics.SyncerProcessedTotal.WithLabelValues("rate_limited").Inc()
			return ErrRateLimited
		}
	}

	msg := messages.ProviderOrderSynced{
		OrderID:             target.OrderID,
		ProviderOrderNumber: target.ProviderOrderNumber,
		SyncedAt:            now,
	}

	po, err := s.provider.GetOrder(ctx, target.ProviderOrderNumber)
	if err != nil {
		e := err.Error()
		msg.Error = &e
		next := now.Add(s.planner.BackoffDelay(target.SyncFailCount + 1))
		msg.NextSyncAt = &next
		metrics.SyncerProcessedTotal.WithLabelValues("provider_error").Inc()
	} else {
		msg.Order = po
		if d, ok := s.planner.NextSyncDelay(status.Normalize(po.State)); ok {
			next := now.Add(d)
			msg.NextSyncAt = &next
		}
		metrics.SyncerProcessedTotal.WithLabelValues("ok").Inc()
	}

	b, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal kafka msg")
	}

	key := []byte(target.OrderID)
	err = s.publish.ExecuteWithContext(ctx, func(ctx context.Context) error {
		return s.producer.Publish(ctx, s.topic, key, b)
	})
	if err != nil {
		metrics.SyncerProcessedTotal.WithLabelValues("publish_error").Inc()
		return errors.Wrap(err, "publish sync result")
	}
	return nil
}
