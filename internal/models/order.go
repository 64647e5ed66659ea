package models

import "time"

// Order is the platform's own delivery request document. Status holds the raw
// value as stored, which may come from any of the status vocabularies.
type Order struct {
	ID                  string  `json:"id"`
	OrderNumber         string  `json:"orderNumber,omitempty"`
	ProviderOrderNumber string  `json:"providerOrderNumber,omitempty"`
	ProviderTrackingID  string  `json:"providerTrackingId,omitempty"`
	BusinessID          string  `json:"businessId,omitempty"`
	DriverID            *string `json:"driverId,omitempty"`
	AssignedCarrierID   *int64  `json:"assignedCarrierId,omitempty"`

	Status        string `json:"status"`
	PaymentMethod string `json:"paymentMethod,omitempty"`

	DeliveryFee float64     `json:"deliveryFee"`
	Tip         float64     `json:"tip"`
	Total       float64     `json:"total"`
	Items       []OrderItem `json:"items,omitempty"`

	Customer Party `json:"customer"`
	Pickup   Party `json:"pickup"`

	EstimatedMinutes int      `json:"estimatedMinutes,omitempty"`
	ProofOfDelivery  []string `json:"proofOfDelivery,omitempty"`

	Timestamps         OrderTimestamps `json:"timestamps"`
	ActivityLog        *ActivityLog    `json:"activityLog,omitempty"`
	ExpectedDeliveryAt *FlexTime       `json:"expectedDeliveryAt,omitempty"`
	Feedback           *Feedback       `json:"feedback,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type OrderItem struct {
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

// Party is either end of a delivery: the business (pickup) or the customer
// (destination).
type Party struct {
	Name        string  `json:"name,omitempty"`
	Address     string  `json:"address,omitempty"`
	PhoneNumber string  `json:"phoneNumber,omitempty"`
	Location    *LatLng `json:"location,omitempty"`
}

type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// OrderTimestamps are the discrete per-field stamps written on the order
// record by the lifecycle operations. Any of them may be absent.
type OrderTimestamps struct {
	CreatedAt   *FlexTime `json:"createdAt,omitempty"`
	AssignedAt  *FlexTime `json:"assignedAt,omitempty"`
	PickedUpAt  *FlexTime `json:"pickedUpAt,omitempty"`
	InTransitAt *FlexTime `json:"inTransitAt,omitempty"`
	DeliveredAt *FlexTime `json:"deliveredAt,omitempty"`
	CompletedAt *FlexTime `json:"completedAt,omitempty"`
	CancelledAt *FlexTime `json:"cancelledAt,omitempty"`
}

// ActivityLog is the provider's record of named lifecycle stamps. Older
// orders carry a copy of it on the order document itself.
type ActivityLog struct {
	PlacementTime        *FlexTime `json:"placementTime,omitempty"`
	AssignedTime         *FlexTime `json:"assignedTime,omitempty"`
	StartTime            *FlexTime `json:"startTime,omitempty"`
	PickedUpTime         *FlexTime `json:"pickedUpTime,omitempty"`
	ArrivedTime          *FlexTime `json:"arrivedTime,omitempty"`
	DeliveryTime         *FlexTime `json:"deliveryTime,omitempty"`
	ExpectedDeliveryTime *FlexTime `json:"expectedDeliveryTime,omitempty"`
}

type Feedback struct {
	Rating  float64 `json:"rating"`
	Comment string  `json:"comment,omitempty"`
}

// Driver is the platform's internal driver account.
type Driver struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PhoneNumber   string  `json:"phoneNumber,omitempty"`
	Photo         string  `json:"photo,omitempty"`
	AverageRating float64 `json:"averageRating"`
	RatingCount   int     `json:"ratingCount"`
}
