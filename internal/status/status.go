package status

import "strings"

// Status — каноническое состояние заказа. Сырые статусы из любого словаря
// приводятся к нему через Normalize.
type Status string

const (
	Pending   Status = "PENDING"
	Assigned  Status = "ASSIGNED"
	Started   Status = "STARTED"
	PickedUp  Status = "PICKED_UP"
	InTransit Status = "IN_TRANSIT"
	Arrived   Status = "ARRIVED"
	Delivered Status = "DELIVERED"
	Completed Status = "COMPLETED"
	Failed    Status = "FAILED"
	Cancelled Status = "CANCELLED"

	Unknown Status = "UNKNOWN"
)

// Canonical is the closed set callers may rely on, Unknown excluded.
var Canonical = []Status{
	Pending, Assigned, Started, PickedUp, InTransit, Arrived, Delivered, Completed, Failed, Cancelled,
}

var vocabulary = map[string]Status{
	// legacy lowercase operational codes (compared upper-cased)
	"PENDING_DISPATCH": Pending,
	"EN_CAMINO":        InTransit,
	"ENTREGADO":        Delivered,
	"CANCELADO":        Cancelled,

	// platform codes
	"PENDING":    Pending,
	"ASSIGNED":   Assigned,
	"ACCEPTED":   Assigned,
	"STARTED":    Started,
	"PICKED_UP":  PickedUp,
	"IN_TRANSIT": InTransit,
	"ARRIVED":    Arrived,
	"DELIVERED":  Delivered,
	"COMPLETED":  Completed,
	"FAILED":     Failed,
	"CANCELLED":  Cancelled,

	// provider vocabulary
	"NOT_ASSIGNED":      Pending,
	"NOT_ACCEPTED":      Pending,
	"NOT_STARTED_YET":   Assigned,
	"IN_PROGRESS":       InTransit,
	"AT_PICKUP":         PickedUp,
	"READY_FOR_PICKUP":  PickedUp,
	"READY_TO_DELIVER":  Arrived,
	"ALREADY_DELIVERED": Delivered,
	"INCOMPLETE":        Failed,
	"FAILED_DELIVERY":   Failed,
}

// Normalize никогда не паникует и не возвращает ошибку: всё незнакомое
// становится Unknown.
func Normalize(raw string) Status {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if s, ok := vocabulary[key]; ok {
		return s
	}
	return Unknown
}

func (s Status) String() string { return string(s) }

// Known reports whether s is one of the canonical values.
func (s Status) Known() bool {
	return s != Unknown && s != "" && vocabulary[string(s)] == s
}

func IsDelivered(s Status) bool {
	return s == Delivered || s == Completed
}

// IsTerminal: дальше по этому заказу ничего не произойдёт.
func IsTerminal(s Status) bool {
	return IsDelivered(s) || s == Cancelled || s == Failed
}
