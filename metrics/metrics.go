package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "parking"

var (
	Reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_total",
		Help:      "Reserve attempts by result.",
	}, []string{"result"})

	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "checkouts_total",
		Help:      "Checkout attempts by result.",
	}, []string{"result"})

	SlotsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "slots_available",
		Help:      "Available slots seen by the last audit run.",
	})

	SlotDrift = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slot_drift_total",
		Help:      "Slots whose availability flag disagreed with their reservations.",
	})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// 結果標籤
const (
	ResultOK          = "ok"
	ResultUnavailable = "slot_unavailable"
	ResultNotFound    = "not_found"
	ResultForbidden   = "forbidden"
	ResultError       = "error"
)
