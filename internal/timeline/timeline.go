package timeline

import (
	"sort"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
)

// Key is the semantic event a timestamp stands for.
type Key string

const (
	KeyCreated   Key = "CREATED"
	KeyAssigned  Key = "ASSIGNED"
	KeyStarted   Key = "STARTED"
	KeyPickedUp  Key = "PICKED_UP"
	KeyInTransit Key = "IN_TRANSIT"
	KeyArrived   Key = "ARRIVED"
	KeyDelivered Key = "DELIVERED"
	KeyCompleted Key = "COMPLETED"
	KeyCancelled Key = "CANCELLED"
)

// Приоритеты источников: при совпадении ключа побеждает больший.
const (
	PriorityRecordFallback = 0
	PriorityOrderFields    = 10
	PriorityActivityLog    = 20
)

var rank = map[Key]int{
	KeyCreated:   0,
	KeyAssigned:  1,
	KeyStarted:   2,
	KeyPickedUp:  3,
	KeyInTransit: 4,
	KeyArrived:   5,
	KeyDelivered: 6,
	KeyCompleted: 7,
	KeyCancelled: 8,
}

var descriptions = map[Key]string{
	KeyCreated:   "Pedido creado",
	KeyAssigned:  "Repartidor asignado",
	KeyStarted:   "Repartidor en camino al negocio",
	KeyPickedUp:  "Pedido recogido",
	KeyInTransit: "Pedido en camino",
	KeyArrived:   "Repartidor llegó al destino",
	KeyDelivered: "Pedido entregado",
	KeyCompleted: "Pedido completado",
	KeyCancelled: "Pedido cancelado",
}

func Description(k Key) string {
	if d, ok := descriptions[k]; ok {
		return d
	}
	return string(k)
}

// Entry is one (key, timestamp) pair taken from some source.
type Entry struct {
	Key      Key
	At       time.Time
	Priority int
}

func entry(out []Entry, k Key, t *models.FlexTime, priority int) []Entry {
	if !t.Valid() {
		return out
	}
	return append(out, Entry{Key: k, At: t.Time.UTC(), Priority: priority})
}

// FromActivityLog flattens the provider activity log. Absent stamps produce
// nothing.
func FromActivityLog(l *models.ActivityLog) []Entry {
	if l == nil {
		return nil
	}
	var out []Entry
	out = entry(out, KeyCreated, l.PlacementTime, PriorityActivityLog)
	out = entry(out, KeyAssigned, l.AssignedTime, PriorityActivityLog)
	out = entry(out, KeyStarted, l.StartTime, PriorityActivityLog)
	out = entry(out, KeyPickedUp, l.PickedUpTime, PriorityActivityLog)
	out = entry(out, KeyArrived, l.ArrivedTime, PriorityActivityLog)
	out = entry(out, KeyDelivered, l.DeliveryTime, PriorityActivityLog)
	return out
}

// FromOrderTimestamps flattens the discrete per-field stamps of an order.
func FromOrderTimestamps(ts models.OrderTimestamps) []Entry {
	var out []Entry
	out = entry(out, KeyCreated, ts.CreatedAt, PriorityOrderFields)
	out = entry(out, KeyAssigned, ts.AssignedAt, PriorityOrderFields)
	out = entry(out, KeyPickedUp, ts.PickedUpAt, PriorityOrderFields)
	out = entry(out, KeyInTransit, ts.InTransitAt, PriorityOrderFields)
	out = entry(out, KeyDelivered, ts.DeliveredAt, PriorityOrderFields)
	out = entry(out, KeyCompleted, ts.CompletedAt, PriorityOrderFields)
	out = entry(out, KeyCancelled, ts.CancelledAt, PriorityOrderFields)
	return out
}

// Build merges entries from any number of sources into a timeline: at most
// one event per key, newest first.
func Build(sources ...[]Entry) []models.TimelineEvent {
	best := make(map[Key]Entry)
	for _, src := range sources {
		for _, e := range src {
			if e.At.IsZero() {
				continue
			}
			cur, ok := best[e.Key]
			if !ok || e.Priority > cur.Priority {
				best[e.Key] = e
			}
		}
	}

	merged := make([]Entry, 0, len(best))
	for _, e := range best {
		merged = append(merged, e)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].At.Equal(merged[j].At) {
			return merged[i].At.After(merged[j].At)
		}
		return rankOf(merged[i].Key) > rankOf(merged[j].Key)
	})

	out := make([]models.TimelineEvent, 0, len(merged))
	for _, e := range merged {
		out = append(out, models.TimelineEvent{
			Status:      string(e.Key),
			Timestamp:   e.At,
			Description: Description(e.Key),
		})
	}
	return out
}

func rankOf(k Key) int {
	if r, ok := rank[k]; ok {
		return r
	}
	return len(rank)
}

// Latest returns the timestamp of the first event (timelines are newest
// first) whose key is one of keys.
func Latest(events []models.TimelineEvent, keys ...Key) (time.Time, bool) {
	for _, ev := range events {
		for _, k := range keys {
			if ev.Status == string(k) {
				return ev.Timestamp, true
			}
		}
	}
	return time.Time{}, false
}
