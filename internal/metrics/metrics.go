package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodwatch_feed_fetches_total",
			Help: "Total upstream feed fetches",
		},
		[]string{"feed", "status"},
	)

	FeedFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floodwatch_feed_fetch_latency_seconds",
			Help:    "Upstream feed fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"feed"},
	)

	CyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodwatch_refresh_cycles_total",
			Help: "Total refresh cycles by outcome",
		},
		[]string{"result"},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "floodwatch_refresh_cycle_duration_seconds",
			Help:    "Wall time of a full refresh cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	SeverityLevel = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_severity_level",
			Help: "Current city flood severity (0 normal to 3 critical)",
		},
	)

	FloodAlerts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_flood_alerts",
			Help: "Crowd-sourced flood alerts in the last snapshot",
		},
	)

	AffectedAreas = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_affected_areas",
			Help: "Risk zones with flood status above normal",
		},
	)

	AlertsInAreas = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_alerts_in_areas",
			Help: "Flood alerts located inside affected risk zones",
		},
	)

	ActiveStations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_active_stations",
			Help: "Rain gauges reporting accumulation in the last hour",
		},
	)

	AvgRain = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_avg_rain_mm",
			Help: "City-wide average rainfall over the last hour in mm",
		},
	)

	MaxRain = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floodwatch_max_rain_mm",
			Help: "Highest station rainfall over the last hour in mm",
		},
	)

	NotableEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floodwatch_notable_events_total",
			Help: "Notable events emitted by the fusion engine",
		},
		[]string{"tag"},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "floodwatch_persist_failures_total",
			Help: "Snapshot writes that failed against the store",
		},
	)

	BusPublishFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "floodwatch_bus_publish_failures_total",
			Help: "Notable event publishes that failed against the bus",
		},
	)
)
