package courier

import (
	"context"
	"fmt"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/pkg/metrics"
	"go.uber.org/zap"
)

// NeutralRating is shown when the source carries no rating of its own.
const NeutralRating = 5.0

// Input is what every tier may look at.
type Input struct {
	Order *models.Order
	// Live is the provider's live order, nil when the live call was skipped or failed.
	Live *models.ProviderOrder
}

// Tier is one courier source. A tier that has nothing to say returns (nil, nil).
type Tier interface {
	Name() string
	Resolve(ctx context.Context, in Input) (*models.DriverInfo, error)
}

type Resolver struct {
	tiers []Tier
	log   *zap.Logger
}

func New(log *zap.Logger, tiers ...Tier) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{tiers: tiers, log: log}
}

// Resolve пробует уровни по порядку и останавливается на первом, который
// вернул курьера. Ошибки уровней только логируются. Второе значение: имя
// сработавшего уровня ("" если никто не нашёл).
func (r *Resolver) Resolve(ctx context.Context, in Input) (*models.DriverInfo, string) {
	for _, t := range r.tiers {
		info, err := safeResolve(ctx, t, in)
		if err != nil {
			metrics.ResolverTierTotal.WithLabelValues(t.Name(), "error").Inc()
			r.log.Warn("courier tier failed",
				zap.String("tier", t.Name()),
				zap.String("order_id", orderID(in)),
				zap.Error(err),
			)
			continue
		}
		if info == nil {
			metrics.ResolverTierTotal.WithLabelValues(t.Name(), "miss").Inc()
			continue
		}
		metrics.ResolverTierTotal.WithLabelValues(t.Name(), "hit").Inc()
		return withFallbacks(info), t.Name()
	}
	return nil, ""
}

func safeResolve(ctx context.Context, t Tier, in Input) (info *models.DriverInfo, err error) {
	defer func() {
		if p := recover(); p != nil {
			info, err = nil, fmt.Errorf("tier %s panicked: %v", t.Name(), p)
		}
	}()
	return t.Resolve(ctx, in)
}

func withFallbacks(info *models.DriverInfo) *models.DriverInfo {
	out := *info
	if out.Name == "" {
		out.Name = models.PlaceholderDriver
	}
	if out.Rating < 0 {
		out.Rating = 0
	}
	return &out
}

func orderID(in Input) string {
	if in.Order == nil {
		return ""
	}
	return in.Order.ID
}

func fromCarrier(c *models.Carrier) *models.DriverInfo {
	if c == nil || (c.Name == "" && c.PhoneNumber == "") {
		return nil
	}
	rating := NeutralRating
	if c.Rating != nil && *c.Rating > 0 {
		rating = *c.Rating
	}
	return &models.DriverInfo{
		Name:        c.Name,
		PhoneNumber: c.PhoneNumber,
		Photo:       c.Photo,
		Rating:      rating,
	}
}
