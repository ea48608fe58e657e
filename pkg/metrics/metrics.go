// Package metrics holds the Prometheus collectors of the registration service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "registracion"

// Metrics contains all Prometheus metrics of the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	WeighingRegistrations *prometheus.CounterVec
	WeighedKilograms      *prometheus.CounterVec

	OutboxRelayed *prometheus.CounterVec

	DatabaseConnections *prometheus.GaugeVec
}

// New registers every collector on reg. Pass prometheus.DefaultRegisterer in
// production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPRequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		WeighingRegistrations: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weighing_registrations_total",
				Help:      "Weighing registrations by kind and result",
			},
			[]string{"kind", "result"},
		),
		WeighedKilograms: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "weighed_kilograms_total",
				Help:      "Kilograms committed by weighing registrations",
			},
			[]string{"kind"},
		),
		OutboxRelayed: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outbox_events_relayed_total",
				Help:      "Outbox events handed to the broker",
			},
			[]string{"result"},
		),
		DatabaseConnections: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "database_connections",
				Help:      "Database pool connections by state",
			},
			[]string{"state"},
		),
	}
}

// RecordHTTPRequest records one finished request.
func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordRegistration counts a weighing attempt; kg is only added on success.
func (m *Metrics) RecordRegistration(kind string, kg float64, err error) {
	if err != nil {
		m.WeighingRegistrations.WithLabelValues(kind, "error").Inc()
		return
	}
	m.WeighingRegistrations.WithLabelValues(kind, "ok").Inc()
	m.WeighedKilograms.WithLabelValues(kind).Add(kg)
}

// RecordRelay counts delivered and failed outbox events.
func (m *Metrics) RecordRelay(delivered, failed int) {
	m.OutboxRelayed.WithLabelValues("delivered").Add(float64(delivered))
	m.OutboxRelayed.WithLabelValues("failed").Add(float64(failed))
}

// SetPoolStats publishes a pool snapshot.
func (m *Metrics) SetPoolStats(total, acquired, idle int32) {
	m.DatabaseConnections.WithLabelValues("total").Set(float64(total))
	m.DatabaseConnections.WithLabelValues("acquired").Set(float64(acquired))
	m.DatabaseConnections.WithLabelValues("idle").Set(float64(idle))
}
