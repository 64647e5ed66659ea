package status

type Category string

const (
	CategoryPending   Category = "pending"
	CategoryAssigned  Category = "assigned"
	CategoryPickedUp  Category = "picked_up"
	CategoryInTransit Category = "in_transit"
	CategoryCompleted Category = "completed"
	CategoryCancelled Category = "cancelled"
	CategoryUnknown   Category = "unknown"
)

var categories = map[Status]Category{
	Pending:   CategoryPending,
	Assigned:  CategoryAssigned,
	Started:   CategoryAssigned,
	PickedUp:  CategoryPickedUp,
	InTransit: CategoryInTransit,
	Arrived:   CategoryInTransit,
	Delivered: CategoryCompleted,
	Completed: CategoryCompleted,
	Cancelled: CategoryCancelled,
	Failed:    CategoryCancelled,
}

// CategoryOf groups canonical statuses for dashboards.
func CategoryOf(s Status) Category {
	if c, ok := categories[s]; ok {
		return c
	}
	return CategoryUnknown
}

// Phase is the coarse lifecycle stage.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
	PhaseFailed    Phase = "failed"
	PhaseUnknown   Phase = "unknown"
)

func PhaseOf(s Status) Phase {
	switch s {
	case Pending:
		return PhasePending
	case Assigned, Started, PickedUp, InTransit, Arrived:
		return PhaseActive
	case Delivered, Completed:
		return PhaseCompleted
	case Cancelled, Failed:
		return PhaseFailed
	default:
		return PhaseUnknown
	}
}
