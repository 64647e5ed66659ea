package models

// ProviderOrder is the delivery-network provider's view of an order, either
// fetched live or read from the local mirror.
type ProviderOrder struct {
	OrderID          int64        `json:"orderId"`
	OrderNumber      string       `json:"orderNumber"`
	TrackingID       string       `json:"trackingId,omitempty"`
	State            string       `json:"state,omitempty"`
	Customer         Party        `json:"customer"`
	Pickup           Party        `json:"pickup"`
	AssignedCarrier  *Carrier     `json:"assignedCarrier,omitempty"`
	ActivityLog      *ActivityLog `json:"activityLog,omitempty"`
	EstimatedMinutes int          `json:"estimatedMinutes,omitempty"`
	DeliveryFee      float64      `json:"deliveryFee,omitempty"`
	Tip              float64      `json:"tip,omitempty"`
	Total            float64      `json:"total,omitempty"`
	ProofOfDelivery  []string     `json:"proofOfDelivery,omitempty"`
}

// Carrier is the provider's courier record. The provider does not rate its
// carriers, so Rating is usually nil.
type Carrier struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	PhoneNumber string   `json:"phoneNumber,omitempty"`
	Photo       string   `json:"photo,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// Progress is the provider's lightweight live view used for the map.
type Progress struct {
	TrackingID       string  `json:"trackingId"`
	Location         *LatLng `json:"location,omitempty"`
	EstimatedMinutes int     `json:"estimatedMinutes,omitempty"`
}
