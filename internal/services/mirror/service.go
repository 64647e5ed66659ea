package mirror

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/internal/broker/messages"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/storage/pgstore"
)

var ErrInvalidMessage = errors.New("invalid sync message")

type Repository interface {
	ApplyProviderSync(ctx context.Context, upd pgstore.ProviderSync) error
}

// Service применяет результаты синхронизации из Kafka к зеркалу провайдера.
type Service struct {
	repo Repository
	log  *zap.Logger
	now  func() time.Time
}

func New(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Apply(ctx context.Context, msg messages.ProviderOrderSynced) error {
	if msg.OrderID == "" {
		return errors.Wrap(ErrInvalidMessage, "order_id is required")
	}
	if msg.SyncedAt.IsZero() {
		msg.SyncedAt = s.now().UTC()
	}
	if msg.Order == nil && msg.Error == nil {
		e := "empty sync result"
		msg.Error = &e
	}

	err := s.repo.ApplyProviderSync(ctx, pgstore.ProviderSync{
		OrderID:             msg.OrderID,
		ProviderOrderNumber: msg.ProviderOrderNumber,
		SyncedAt:            msg.SyncedAt,
		Order:               msg.Order,
		NextSyncAt:          msg.NextSyncAt,
		Error:               msg.Error,
	})
	if err != nil {
		metrics.MirrorAppliedTotal.WithLabelValues("error").Inc()
		return errors.Wrap(err, "apply provider sync")
	}

	outcome := "ok"
	if msg.Error != nil {
		outcome = "failed_sync"
	}
	metrics.MirrorAppliedTotal.WithLabelValues(outcome).Inc()
	return nil
}

// HandleMessage обработчик для kafka.Consumer. Битые сообщения логируются и
// пропускаются, иначе консьюмер застрянет на них навсегда.
func (s *Service) HandleMessage(ctx context.Context, key, value []byte) error {
	var msg messages.ProviderOrderSynced
	if err := json.Unmarshal(value, &msg); err != nil {
		s.log.Warn("skip malformed sync message", zap.ByteString("key", key), zap.Error(err))
		metrics.MirrorAppliedTotal.WithLabelValues("malformed").Inc()
		return nil
	}

	err := s.Apply(ctx, msg)
	if errors.Is(err, ErrInvalidMessage) {
		s.log.Warn("skip invalid sync message", zap.ByteString("key", key), zap.Error(err))
		metrics.MirrorAppliedTotal.WithLabelValues("malformed").Inc()
		return nil
	}
	return err
}
