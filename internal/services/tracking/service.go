package tracking

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/OrderTrack/internal/courier"
	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/logger"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"github.com/BearBump/OrderTrack/internal/status"
	"github.com/BearBump/OrderTrack/internal/timeline"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrOrderNotFound единственная ошибка, которую видит клиент (404).
var ErrOrderNotFound = errors.New("order not found")

type Repository interface {
	// FindOrder ищет заказ по id, затем по order_number, затем по provider_order_number.
	FindOrder(ctx context.Context, identifier string) (*models.Order, error)
}

type Resolver interface {
	Resolve(ctx context.Context, in courier.Input) (*models.DriverInfo, string)
}

const (
	defaultLiveTimeout     = 4 * time.Second
	defaultProgressTimeout = 3 * time.Second
	defaultRequestCeiling  = 8 * time.Second
)

type Service struct {
	repo     Repository
	provider provider.Client
	resolver Resolver
	log      *zap.Logger

	liveTimeout     time.Duration
	progressTimeout time.Duration
	requestCeiling  time.Duration
	progress        status.ProgressTable
}

// New: prov может быть nil, тогда живой вызов и прогресс не выполняются.
func New(repo Repository, prov provider.Client, resolver Resolver, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:            repo,
		provider:        prov,
		resolver:        resolver,
		log:             log,
		liveTimeout:     defaultLiveTimeout,
		progressTimeout: defaultProgressTimeout,
		requestCeiling:  defaultRequestCeiling,
		progress:        status.DefaultProgress(),
	}
}

func (s *Service) WithTimeouts(live, progress, ceiling time.Duration) *Service {
	if live > 0 {
		s.liveTimeout = live
	}
	if progress > 0 {
		s.progressTimeout = progress
	}
	if ceiling > 0 {
		s.requestCeiling = ceiling
	}
	return s
}

func (s *Service) WithProgressTable(t status.ProgressTable) *Service {
	if len(t) > 0 {
		s.progress = t
	}
	return s
}

// GetTrackingSnapshot собирает текущее состояние заказа. Недоступность
// провайдера никогда не приводит к ошибке: используются локальные данные.
func (s *Service) GetTrackingSnapshot(ctx context.Context, identifier string) (*models.TrackingSnapshot, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrOrderNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestCeiling)
	defer cancel()
	log := logger.FromContext(ctx, s.log).With(zap.String("order", identifier))

	order, err := s.repo.FindOrder(ctx, identifier)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "find order")
	}

	snap := seed(order)

	// Живой заказ и позиция курьера независимы, идут параллельно.
	var (
		live     *models.ProviderOrder
		progress *models.Progress
		g        errgroup.Group
	)
	if s.liveEnabled(order) {
		g.Go(func() error {
			live = s.fetchLive(ctx, log, order.ProviderOrderNumber)
			return nil
		})
	}
	if s.provider != nil && order.ProviderTrackingID != "" {
		g.Go(func() error {
			progress = s.fetchProgress(ctx, log, order.ProviderTrackingID)
			return nil
		})
	}
	_ = g.Wait()

	source := "local"
	if live != nil {
		applyLive(snap, order, live)
		source = "live"
	}
	metrics.SnapshotSourceTotal.WithLabelValues(source).Inc()

	if s.resolver != nil {
		info, tier := s.resolver.Resolve(ctx, courier.Input{Order: order, Live: live})
		snap.Driver = info
		if info != nil {
			log.Debug("courier resolved", zap.String("tier", tier))
		}
	}

	st := status.Normalize(snap.Status)
	if progress != nil {
		if progress.Location != nil {
			loc := *progress.Location
			snap.DriverLocation = &loc
		}
		if snap.EstimatedTime <= 0 && progress.EstimatedMinutes > 0 {
			snap.EstimatedTime = progress.EstimatedMinutes
		}
	}

	s.finalize(snap, order, st)
	return snap, nil
}

func (s *Service) liveEnabled(order *models.Order) bool {
	return order.ProviderOrderNumber != "" && s.provider != nil && s.provider.HasCredentials()
}

func (s *Service) fetchLive(ctx context.Context, log *zap.Logger, orderNumber string) *models.ProviderOrder {
	ctx, cancel := context.WithTimeout(ctx, s.liveTimeout)
	defer cancel()

	po, err := s.provider.GetOrder(ctx, orderNumber)
	if err != nil {
		if errors.Is(err, provider.ErrOrderNotFound) {
			log.Info("order not known to provider", zap.String("provider_order_number", orderNumber))
		} else {
			log.Warn("live provider order unavailable, using local data", zap.Error(err))
		}
		return nil
	}
	return po
}

func (s *Service) fetchProgress(ctx context.Context, log *zap.Logger, trackingID string) *models.Progress {
	ctx, cancel := context.WithTimeout(ctx, s.progressTimeout)
	defer cancel()

	p, err := s.provider.GetProgress(ctx, trackingID)
	if err != nil {
		log.Debug("courier progress unavailable", zap.String("tracking_id", trackingID), zap.Error(err))
		return nil
	}
	return p
}

func (s *Service) finalize(snap *models.TrackingSnapshot, order *models.Order, st status.Status) {
	snap.Status = string(st)
	snap.StatusCategory = string(status.CategoryOf(st))
	snap.Progress = s.progress.Of(st)

	if status.IsTerminal(st) || snap.EstimatedTime < 0 {
		snap.EstimatedTime = 0
	}

	snap.DeliveryTime = nil
	if status.IsDelivered(st) {
		if at, ok := timeline.Latest(snap.Timeline, timeline.KeyDelivered, timeline.KeyCompleted); ok {
			snap.DeliveryTime = &at
		} else if !order.UpdatedAt.IsZero() {
			at := order.UpdatedAt.UTC()
			snap.DeliveryTime = &at
		}
	}
}
