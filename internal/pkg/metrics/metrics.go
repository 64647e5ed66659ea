package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of delivery provider requests",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint", "outcome"},
	)

	ProviderBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "provider_circuit_breaker_state",
			Help: "Circuit breaker state per provider endpoint (0 closed, 1 half-open, 2 open)",
		},
		[]string{"breaker"},
	)

	ResolverTierTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "courier_resolver_tier_total",
			Help: "Courier resolver tier outcomes",
		},
		[]string{"tier", "outcome"},
	)

	SnapshotSourceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tracking_snapshot_total",
			Help: "Tracking snapshots by data source used for status",
		},
		[]string{"source"},
	)

	SyncerProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syncer_processed_total",
			Help: "Provider mirror sync attempts by outcome",
		},
		[]string{"outcome"},
	)

	FleetStatsCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleet_stats_cache_total",
			Help: "Fleet stats cache lookups",
		},
		[]string{"result"},
	)

	MirrorAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mirror_applied_total",
			Help: "Provider sync messages applied to the mirror by outcome",
		},
		[]string{"outcome"},
	)
)
