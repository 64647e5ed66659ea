package models

import "time"

// Placeholders shown for anything that could not be resolved.
const (
	PlaceholderCustomer = "Cliente"
	PlaceholderBusiness = "Negocio"
	PlaceholderDriver   = "Repartidor"
)

// TrackingSnapshot is the merged "where is this order now" document.
type TrackingSnapshot struct {
	OrderNumber     string          `json:"orderNumber"`
	Status          string          `json:"status"`
	StatusCategory  string          `json:"statusCategory"`
	Progress        int             `json:"progress"`
	Customer        CustomerInfo    `json:"customer"`
	Business        BusinessInfo    `json:"business"`
	Driver          *DriverInfo     `json:"driver"`
	DriverLocation  *LatLng         `json:"driverLocation"`
	EstimatedTime   int             `json:"estimatedTime"`
	OrderItems      []OrderItem     `json:"orderItems"`
	DeliveryFee     float64         `json:"deliveryFee"`
	TotalCost       float64         `json:"totalCost"`
	PlacementTime   time.Time       `json:"placementTime"`
	DeliveryTime    *time.Time      `json:"deliveryTime"`
	ProofOfDelivery []string        `json:"proofOfDelivery"`
	Timeline        []TimelineEvent `json:"timeline"`
}

type CustomerInfo struct {
	Name        string  `json:"name"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	PhoneNumber string  `json:"phoneNumber"`
}

type BusinessInfo struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type DriverInfo struct {
	Name        string  `json:"name"`
	PhoneNumber string  `json:"phoneNumber"`
	Photo       string  `json:"photo"`
	Rating      float64 `json:"rating"`
}

// TimelineEvent is derived on every read and never stored.
type TimelineEvent struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}
