package fleetstats

import (
	"math"
	"time"

	"github.com/BearBump/OrderTrack/internal/models"
	"github.com/BearBump/OrderTrack/internal/status"
)

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

const DefaultOnTimeTolerance = 15 * time.Minute

// Policy collects the tunable constants of the derivation.
type Policy struct {
	OnTimeTolerance time.Duration
	// Location задаёт границы календарного дня для тренда.
	Location *time.Location
}

func DefaultPolicy() Policy {
	return Policy{OnTimeTolerance: DefaultOnTimeTolerance, Location: time.UTC}
}

type Report struct {
	TotalOrders     int `json:"totalOrders"`
	CompletedOrders int `json:"completedOrders"`
	CancelledOrders int `json:"cancelledOrders"`
	ActiveOrders    int `json:"activeOrders"`

	SuccessRate            float64 `json:"successRate"`
	AverageDeliveryMinutes float64 `json:"averageDeliveryMinutes"`
	OnTimePercentage       float64 `json:"onTimePercentage"`
	AverageRating          float64 `json:"averageRating"`
	RatedOrders            int     `json:"ratedOrders"`
	AverageActiveMinutes   float64 `json:"averageActiveMinutes"`

	OrdersToday     int   `json:"ordersToday"`
	OrdersYesterday int   `json:"ordersYesterday"`
	Trend           Trend `json:"trend"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// Derive считает отчёт по набору заказов. Отсутствующие поля исключают заказ
// из соответствующего среднего, а не дают ноль.
func Derive(orders []*models.Order, now time.Time, p Policy) Report {
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.OnTimeTolerance < 0 {
		p.OnTimeTolerance = 0
	}

	r := Report{GeneratedAt: now.UTC(), Trend: TrendStable}

	var (
		deliverySum   float64
		deliveryCount int
		onTime        int
		onTimeBase    int
		ratingSum     float64
		activeSum     float64
		activeCount   int
	)

	today := dayStart(now, p.Location)
	yesterday := today.AddDate(0, 0, -1)

	for _, o := range orders {
		if o == nil {
			continue
		}
		r.TotalOrders++

		st := status.Normalize(o.Status)
		switch {
		case st == status.Cancelled:
			r.CancelledOrders++
		case status.CategoryOf(st) == status.CategoryCompleted:
			r.CompletedOrders++
		case !status.IsTerminal(st):
			r.ActiveOrders++
			if d, ok := Elapsed(o, now); ok {
				activeSum += d.Minutes()
				activeCount++
			}
		}

		if placed, delivered, ok := deliveryWindow(o); ok {
			if d := delivered.Sub(placed); d >= 0 {
				deliverySum += d.Minutes()
				deliveryCount++
			}
			if expected, ok := expectedAt(o); ok {
				onTimeBase++
				if !delivered.After(expected.Add(p.OnTimeTolerance)) {
					onTime++
				}
			}
		}

		if o.Feedback != nil && o.Feedback.Rating > 0 {
			ratingSum += o.Feedback.Rating
			r.RatedOrders++
		}

		if placed, ok := placedAt(o); ok {
			day := dayStart(placed, p.Location)
			switch {
			case day.Equal(today):
				r.OrdersToday++
			case day.Equal(yesterday):
				r.OrdersYesterday++
			}
		}
	}

	r.SuccessRate = percent(r.CompletedOrders, r.TotalOrders-r.CancelledOrders)
	r.AverageDeliveryMinutes = ratio(deliverySum, deliveryCount)
	r.OnTimePercentage = percent(onTime, onTimeBase)
	r.AverageRating = ratio(ratingSum, r.RatedOrders)
	r.AverageActiveMinutes = ratio(activeSum, activeCount)

	switch {
	case r.OrdersToday > r.OrdersYesterday:
		r.Trend = TrendUp
	case r.OrdersToday < r.OrdersYesterday:
		r.Trend = TrendDown
	}
	return r
}

// Elapsed возвращает время с момента размещения заказа до доставки (или до now,
// если заказ ещё не доставлен). ok=false, когда момент размещения неизвестен.
func Elapsed(o *models.Order, now time.Time) (time.Duration, bool) {
	placed, ok := placedAt(o)
	if !ok {
		return 0, false
	}
	end := now
	if _, delivered, ok := deliveryWindow(o); ok {
		end = delivered
	} else if o.Timestamps.DeliveredAt.Valid() {
		end = o.Timestamps.DeliveredAt.Time
	}
	d := end.Sub(placed)
	if d < 0 {
		return 0, false
	}
	return d, true
}

// deliveryWindow берёт только поля activity log.
func deliveryWindow(o *models.Order) (placed, delivered time.Time, ok bool) {
	al := o.ActivityLog
	if al == nil || !al.PlacementTime.Valid() || !al.DeliveryTime.Valid() {
		return time.Time{}, time.Time{}, false
	}
	return al.PlacementTime.Time, al.DeliveryTime.Time, true
}

func expectedAt(o *models.Order) (time.Time, bool) {
	if o.ActivityLog != nil && o.ActivityLog.ExpectedDeliveryTime.Valid() {
		return o.ActivityLog.ExpectedDeliveryTime.Time, true
	}
	if o.ExpectedDeliveryAt.Valid() {
		return o.ExpectedDeliveryAt.Time, true
	}
	return time.Time{}, false
}

func placedAt(o *models.Order) (time.Time, bool) {
	if o.ActivityLog != nil && o.ActivityLog.PlacementTime.Valid() {
		return o.ActivityLog.PlacementTime.Time, true
	}
	if o.Timestamps.CreatedAt.Valid() {
		return o.Timestamps.CreatedAt.Time, true
	}
	if !o.CreatedAt.IsZero() {
		return o.CreatedAt, true
	}
	return time.Time{}, false
}

func dayStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func percent(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return round1(float64(n) * 100 / float64(d))
}

func ratio(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round1(sum / float64(n))
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}
