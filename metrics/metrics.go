// Package metrics registers the Prometheus collectors for the navigation
// server. promauto registers everything with the default registry, which the
// monitoring server exposes at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sensor reports rejected by the event router before they become
	// navigation events. Reasons: debounce, out_of_order, implausible_speed,
	// queue_full.
	EventsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navserver_events_dropped_total",
			Help: "Sensor reports rejected by the event router",
		},
		[]string{"reason"},
	)

	ScansAcceptedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "navserver_scans_accepted_total",
			Help: "QR scans accepted and delivered as navigation events",
		},
	)

	ReroutesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "navserver_reroutes_total",
			Help: "Route recomputations triggered by deviations",
		},
	)

	TripsFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "navserver_trips_finished_total",
			Help: "Trips that reached a terminal state",
		},
		[]string{"outcome"}, // arrived | aborted
	)

	GuidanceDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "navserver_guidance_dropped_total",
			Help: "Guidance messages dropped because the speech queue was full",
		},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "navserver_active_sessions",
			Help: "Device sessions currently registered",
		},
	)
)
