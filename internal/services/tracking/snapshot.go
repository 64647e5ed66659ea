package tracking

import (
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/status"
	"github.com/BearBump/OrderTrack/internal/timeline"
)

// seed заполняет снимок только локальными данными; у каждого поля есть
// значение по умолчанию.
func seed(o *models.Order) *models.TrackingSnapshot {
	snap := &models.TrackingSnapshot{
		OrderNumber:     firstNonEmpty(o.OrderNumber, o.ProviderOrderNumber, o.ID),
		Status:          string(status.Normalize(o.Status)),
		Customer:        customerInfo(o.Customer),
		Business:        businessInfo(o.Pickup),
		EstimatedTime:   o.EstimatedMinutes,
		OrderItems:      append([]models.OrderItem{}, o.Items...),
		DeliveryFee:     o.DeliveryFee,
		TotalCost:       o.Total,
		PlacementTime:   placementTime(o, nil),
		ProofOfDelivery: append([]string{}, o.ProofOfDelivery...),
	}
	snap.Timeline = timeline.Build(localEntries(o)...)
	return snap
}

func localEntries(o *models.Order) [][]timeline.Entry {
	sources := [][]timeline.Entry{
		timeline.FromActivityLog(o.ActivityLog),
		timeline.FromOrderTimestamps(o.Timestamps),
	}
	if !o.CreatedAt.IsZero() {
		sources = append(sources, []timeline.Entry{{
			Key:      timeline.KeyCreated,
			At:       o.CreatedAt.UTC(),
			Priority: timeline.PriorityRecordFallback,
		}})
	}
	return sources
}

// applyLive перезаписывает только те поля, которые провайдер действительно вернул.
func applyLive(snap *models.TrackingSnapshot, o *models.Order, live *models.ProviderOrder) {
	if st := status.Normalize(live.State); st.Known() {
		snap.Status = string(st)
	}
	if live.EstimatedMinutes > 0 {
		snap.EstimatedTime = live.EstimatedMinutes
	}

	c := live.Customer
	if c.Name != "" {
		snap.Customer.Name = c.Name
	}
	if c.Address != "" {
		snap.Customer.Address = c.Address
	}
	if c.PhoneNumber != "" {
		snap.Customer.PhoneNumber = c.PhoneNumber
	}
	if c.Location != nil {
		snap.Customer.Latitude, snap.Customer.Longitude = c.Location.Latitude, c.Location.Longitude
	}

	b := live.Pickup
	if b.Name != "" {
		snap.Business.Name = b.Name
	}
	if b.Address != "" {
		snap.Business.Address = b.Address
	}
	if b.Location != nil {
		snap.Business.Latitude, snap.Business.Longitude = b.Location.Latitude, b.Location.Longitude
	}

	if live.DeliveryFee > 0 {
		snap.DeliveryFee = live.DeliveryFee
	}
	if live.Total > 0 {
		snap.TotalCost = live.Total
	}
	if len(live.ProofOfDelivery) > 0 {
		snap.ProofOfDelivery = append([]string{}, live.ProofOfDelivery...)
	}

	if live.ActivityLog != nil {
		sources := append([][]timeline.Entry{timeline.FromActivityLog(live.ActivityLog)}, localEntries(o)...)
		snap.Timeline = timeline.Build(sources...)
	}
	snap.PlacementTime = placementTime(o, live.ActivityLog)
}

func customerInfo(p models.Party) models.CustomerInfo {
	out := models.CustomerInfo{
		Name:        firstNonEmpty(p.Name, models.PlaceholderCustomer),
		Address:     p.Address,
		PhoneNumber: p.PhoneNumber,
	}
	if p.Location != nil {
		out.Latitude, out.Longitude = p.Location.Latitude, p.Location.Longitude
	}
	return out
}

func businessInfo(p models.Party) models.BusinessInfo {
	out := models.BusinessInfo{
		Name:    firstNonEmpty(p.Name, models.PlaceholderBusiness),
		Address: p.Address,
	}
	if p.Location != nil {
		out.Latitude, out.Longitude = p.Location.Latitude, p.Location.Longitude
	}
	return out
}

func placementTime(o *models.Order, live *models.ActivityLog) time.Time {
	if live != nil && live.PlacementTime.Valid() {
		return live.PlacementTime.Time
	}
	if o.ActivityLog != nil && o.ActivityLog.PlacementTime.Valid() {
		return o.ActivityLog.PlacementTime.Time
	}
	if o.Timestamps.CreatedAt.Valid() {
		return o.Timestamps.CreatedAt.Time
	}
	return o.CreatedAt.UTC()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
