// Package metrics defines the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry        *prometheus.Registry
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AccessDecisions *prometheus.CounterVec
	ImportedRows    *prometheus.CounterVec
}

// New creates the collectors on a fresh registry named after service.
func New(service string) *Metrics {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"service": service}

	m := &Metrics{
		Registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "HTTP requests by method, route and status.",
			ConstLabels: labels,
		}, []string{"method", "route", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency.",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "access_decisions_total",
			Help:        "Authorization gate decisions by route.",
			ConstLabels: labels,
		}, []string{"route", "decision"}),
		ImportedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "employee_import_rows_total",
			Help:        "Rows inserted by batch and file uploads.",
			ConstLabels: labels,
		}, []string{"source"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.RequestsTotal,
		m.RequestDuration,
		m.AccessDecisions,
		m.ImportedRows,
	)
	return m
}
