package courier

import (
	"context"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/pkg/errors"
)

type ProviderOrderMirror interface {
	GetProviderOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error)
}

type CarrierMirror interface {
	GetCarrier(ctx context.Context, id int64) (*models.Carrier, error)
}

type DriverStore interface {
	GetDriver(ctx context.Context, id string) (*models.Driver, error)
}

// LiveTier uses the assigned carrier embedded in the live provider order.
type LiveTier struct{}

func (LiveTier) Name() string { return "live" }

func (LiveTier) Resolve(_ context.Context, in Input) (*models.DriverInfo, error) {
	if in.Live == nil {
		return nil, nil
	}
	return fromCarrier(in.Live.AssignedCarrier), nil
}

// MirrorOrderTier reads the assigned carrier from the local mirror of the
// provider order.
type MirrorOrderTier struct {
	Mirror ProviderOrderMirror
}

func (MirrorOrderTier) Name() string { return "mirror_order" }

func (t MirrorOrderTier) Resolve(ctx context.Context, in Input) (*models.DriverInfo, error) {
	if in.Order == nil || in.Order.ProviderOrderNumber == "" {
		return nil, nil
	}
	po, err := t.Mirror.GetProviderOrder(ctx, in.Order.ProviderOrderNumber)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get mirrored provider order")
	}
	if po == nil {
		return nil, nil
	}
	return fromCarrier(po.AssignedCarrier), nil
}

// MirrorCarrierTier reads the mirrored carrier record by the carrier id stored
// on the order.
type MirrorCarrierTier struct {
	Mirror CarrierMirror
}

func (MirrorCarrierTier) Name() string { return "mirror_carrier" }

func (t MirrorCarrierTier) Resolve(ctx context.Context, in Input) (*models.DriverInfo, error) {
	if in.Order == nil || in.Order.AssignedCarrierID == nil {
		return nil, nil
	}
	c, err := t.Mirror.GetCarrier(ctx, *in.Order.AssignedCarrierID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get mirrored carrier")
	}
	return fromCarrier(c), nil
}

// DriverTier uses the platform's own driver account.
type DriverTier struct {
	Drivers DriverStore
}

func (DriverTier) Name() string { return "driver" }

func (t DriverTier) Resolve(ctx context.Context, in Input) (*models.DriverInfo, error) {
	if in.Order == nil || in.Order.DriverID == nil || *in.Order.DriverID == "" {
		return nil, nil
	}
	d, err := t.Drivers.GetDriver(ctx, *in.Order.DriverID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "get driver")
	}
	if d == nil || (d.Name == "" && d.PhoneNumber == "") {
		return nil, nil
	}
	return &models.DriverInfo{
		Name:        d.Name,
		PhoneNumber: d.PhoneNumber,
		Photo:       d.Photo,
		Rating:      d.AverageRating,
	}, nil
}

// Fallback returns the tiers used when the live order is unavailable, in
// order.
func Fallback(orders ProviderOrderMirror, carriers CarrierMirror, drivers DriverStore) []Tier {
	return []Tier{
		MirrorOrderTier{Mirror: orders},
		MirrorCarrierTier{Mirror: carriers},
		DriverTier{Drivers: drivers},
	}
}

// Chain is the full four-tier chain.
func Chain(orders ProviderOrderMirror, carriers CarrierMirror, drivers DriverStore) []Tier {
	return append([]Tier{LiveTier{}}, Fallback(orders, carriers, drivers)...)
}
