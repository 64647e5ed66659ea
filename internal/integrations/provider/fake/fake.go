package fake

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/BearBump/OrderTrack/internal/integrations/provider"
	"github.com/BearBump/OrderTrack/internal/models"
)

// Client — детерминированная заглушка провайдера для локального запуска:
// состояние заказа и позиция курьера зависят только от номера заказа.
type Client struct {
	now func() time.Time
}

func New() *Client { return &Client{now: time.Now} }

var states = []string{
	"NOT_ASSIGNED", "NOT_STARTED_YET", "STARTED", "PICKED_UP", "READY_TO_DELIVER", "ALREADY_DELIVERED",
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func (c *Client) HasCredentials() bool { return true }

func (c *Client) GetOrder(ctx context.Context, orderNumber string) (*models.ProviderOrder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if orderNumber == "" {
		return nil, provider.ErrOrderNotFound
	}
	v := hash(orderNumber)
	state := states[v%uint32(len(states))]

	placed := c.now().UTC().Truncate(time.Minute).Add(-time.Duration(v%90) * time.Minute)
	log := &models.ActivityLog{PlacementTime: models.NewFlexTime(placed)}
	po := &models.ProviderOrder{
		OrderID:          int64(v),
		OrderNumber:      orderNumber,
		TrackingID:       fmt.Sprintf("trk-%08x", v),
		State:            state,
		ActivityLog:      log,
		EstimatedMinutes: int(5 + v%30),
	}
	if state != "NOT_ASSIGNED" {
		log.AssignedTime = models.NewFlexTime(placed.Add(3 * time.Minute))
		po.AssignedCarrier = &models.Carrier{
			ID:          int64(v % 1000),
			Name:        fmt.Sprintf("Repartidor %d", v%1000),
			PhoneNumber: fmt.Sprintf("+52 55 %04d %04d", v%10000, (v/10000)%10000),
		}
	}
	if state == "ALREADY_DELIVERED" {
		log.DeliveryTime = models.NewFlexTime(placed.Add(40 * time.Minute))
		po.EstimatedMinutes = 0
	}
	return po, nil
}

func (c *Client) GetProgress(ctx context.Context, trackingID string) (*models.Progress, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v := hash(trackingID)
	return &models.Progress{
		TrackingID:       trackingID,
		EstimatedMinutes: int(5 + v%30),
		Location: &models.LatLng{
			Latitude:  19.40 + float64(v%100)/1000,
			Longitude: -99.15 + float64((v/100)%100)/1000,
		},
	}, nil
}
