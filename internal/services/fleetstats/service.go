package fleetstats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/internal/cache"
	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
)

var ErrEmptyID = errors.New("empty scope id")

type Repository interface {
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
}

const (
	DefaultMaxOrders = 500
	DefaultWindow    = 30 * 24 * time.Hour
	DefaultCacheTTL  = time.Minute
)

type Service struct {
	repo  Repository
	cache cache.BytesCache
	log   *zap.Logger

	ttl       time.Duration
	maxOrders int
	window    time.Duration
	policy    Policy
	now       func() time.Time
}

func New(repo Repository, c cache.BytesCache, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		repo:      repo,
		cache:     c,
		log:       log,
		ttl:       DefaultCacheTTL,
		maxOrders: DefaultMaxOrders,
		window:    DefaultWindow,
		policy:    DefaultPolicy(),
		now:       time.Now,
	}
}

func (s *Service) WithSettings(ttl time.Duration, maxOrders int, window time.Duration) *Service {
	if ttl >= 0 {
		s.ttl = ttl
	}
	if maxOrders > 0 {
		s.maxOrders = maxOrders
	}
	if window > 0 {
		s.window = window
	}
	return s
}

func (s *Service) WithPolicy(p Policy) *Service {
	s.policy = p
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) ForBusiness(ctx context.Context, businessID string) (*Report, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" {
		return nil, ErrEmptyID
	}
	return s.report(ctx, "business:"+businessID, models.OrderFilter{BusinessID: businessID})
}

func (s *Service) ForDriver(ctx context.Context, driverID string) (*Report, error) {
	driverID = strings.TrimSpace(driverID)
	if driverID == "" {
		return nil, ErrEmptyID
	}
	return s.report(ctx, "driver:"+driverID, models.OrderFilter{DriverID: driverID})
}

func (s *Service) report(ctx context.Context, scope string, f models.OrderFilter) (*Report, error) {
	key := fmt.Sprintf("fleetstats:%s", scope)

	if s.cache != nil && s.ttl > 0 {
		b, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.log.Warn("stats cache get failed", zap.String("key", key), zap.Error(err))
		case ok:
			var r Report
			if err := json.Unmarshal(b, &r); err == nil {
				metrics.FleetStatsCacheTotal.WithLabelValues("hit").Inc()
				return &r, nil
			}
		}
		metrics.FleetStatsCacheTotal.WithLabelValues("miss").Inc()
	}

	now := s.now()
	f.Since = now.Add(-s.window)
	f.Limit = s.maxOrders

	orders, err := s.repo.ListOrders(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}

	r := Derive(orders, now, s.policy)

	if s.cache != nil && s.ttl > 0 {
		if b, err := json.Marshal(r); err == nil {
			// best-effort
			if err := s.cache.Set(ctx, key, b, s.ttl); err != nil {
				s.log.Warn("stats cache set failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return &r, nil
}
