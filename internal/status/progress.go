package status

// ProgressTable maps a canonical status to a 0..100 percentage for progress
// bars. Statuses missing from the table report 0.
type ProgressTable map[Status]int

// DefaultProgress: отменённые и неудачные заказы всегда 0, даже если до отмены
// курьер успел забрать заказ.
func DefaultProgress() ProgressTable {
	return ProgressTable{
		Pending:   10,
		Assigned:  25,
		Started:   40,
		PickedUp:  75,
		InTransit: 85,
		Arrived:   95,
		Delivered: 100,
		Completed: 100,
		Cancelled: 0,
		Failed:    0,
		Unknown:   0,
	}
}

var defaultProgress = DefaultProgress()

func (t ProgressTable) Of(s Status) int {
	p, ok := t[s]
	if !ok {
		return 0
	}
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Progress uses the default table.
func Progress(s Status) int {
	return defaultProgress.Of(s)
}

// WithOverrides returns a copy of t with percentages replaced for the given raw
// status names. Names that do not normalize to a known status are ignored.
func (t ProgressTable) WithOverrides(overrides map[string]int) ProgressTable {
	out := make(ProgressTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	for raw, p := range overrides {
		s := Normalize(raw)
		if s == Unknown {
			continue
		}
		out[s] = p
	}
	return out
}
