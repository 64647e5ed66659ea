package deliverynet

import (
	"strings"

	"github.com/BearBump/OrderTrack/internal/models"
)

type wireParty struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	PhoneNumber string   `json:"phoneNumber"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

type wireCarrier struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	PhoneNumber  string   `json:"phoneNumber"`
	CarrierPhoto string   `json:"carrierPhoto"`
	Rating       *float64 `json:"rating"`
}

type wireOrder struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	TrackingID  string `json:"trackingId"`
	OrderStatus struct {
		OrderState string `json:"orderState"`
	} `json:"orderStatus"`
	Customer               wireParty           `json:"customer"`
	Restaurant             wireParty           `json:"restaurant"`
	AssignedCarrier        *wireCarrier        `json:"assignedCarrier"`
	ActivityLog            *models.ActivityLog `json:"activityLog"`
	EstimatedTimeInMinutes int                 `json:"estimatedTimeInMinutes"`
	Costing                struct {
		TotalCost   float64 `json:"totalCost"`
		DeliveryFee float64 `json:"deliveryFee"`
		Tip         float64 `json:"tip"`
	} `json:"costing"`
	ProofOfDelivery *struct {
		ImageURLs []string `json:"imageUrls"`
	} `json:"proofOfDelivery"`
}

type wireProgress struct {
	FixedData struct {
		TrackingID string `json:"trackingId"`
	} `json:"fixedData"`
	DynamicData struct {
		OrderStatus struct {
			Status string `json:"status"`
		} `json:"orderStatus"`
		CarrierLocation *struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"carrierLocation"`
		EstimatedTimeInMinutes int `json:"estimatedTimeInMinutes"`
	} `json:"dynamicData"`
}

func (p wireParty) toModel() models.Party {
	out := models.Party{
		Name:        strings.TrimSpace(p.Name),
		Address:     strings.TrimSpace(p.Address),
		PhoneNumber: strings.TrimSpace(p.PhoneNumber),
	}
	if p.Latitude != nil && p.Longitude != nil && (*p.Latitude != 0 || *p.Longitude != 0) {
		out.Location = &models.LatLng{Latitude: *p.Latitude, Longitude: *p.Longitude}
	}
	return out
}

func (o wireOrder) toModel() *models.ProviderOrder {
	po := &models.ProviderOrder{
		OrderID:          o.OrderID,
		OrderNumber:      o.OrderNumber,
		TrackingID:       o.TrackingID,
		State:            o.OrderStatus.OrderState,
		Customer:         o.Customer.toModel(),
		Pickup:           o.Restaurant.toModel(),
		ActivityLog:      o.ActivityLog,
		EstimatedMinutes: o.EstimatedTimeInMinutes,
		DeliveryFee:      o.Costing.DeliveryFee,
		Tip:              o.Costing.Tip,
		Total:            o.Costing.TotalCost,
	}
	if c := o.AssignedCarrier; c != nil {
		po.AssignedCarrier = &models.Carrier{
			ID:          c.ID,
			Name:        strings.TrimSpace(c.Name),
			PhoneNumber: strings.TrimSpace(c.PhoneNumber),
			Photo:       c.CarrierPhoto,
			Rating:      c.Rating,
		}
	}
	if o.ProofOfDelivery != nil {
		for _, u := range o.ProofOfDelivery.ImageURLs {
			if u = strings.TrimSpace(u); u != "" {
				po.ProofOfDelivery = append(po.ProofOfDelivery, u)
			}
		}
	}
	return po
}

func (p wireProgress) toModel(trackingID string) *models.Progress {
	out := &models.Progress{
		TrackingID:       trackingID,
		EstimatedMinutes: p.DynamicData.EstimatedTimeInMinutes,
	}
	if loc := p.DynamicData.CarrierLocation; loc != nil && loc.Latitude != nil && loc.Longitude != nil {
		out.Location = &models.LatLng{Latitude: *loc.Latitude, Longitude: *loc.Longitude}
	}
	return out
}
