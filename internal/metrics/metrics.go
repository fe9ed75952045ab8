// Package metrics exposes Prometheus instrumentation for car-diagnoser.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardiag"

// Metrics holds all collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	diagnosesTotal  *prometheus.CounterVec
	diagnoseResults prometheus.Histogram
	diagnoseLatency prometheus.Histogram
	rulesReloads    *prometheus.CounterVec
	rulesLoaded     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	catalogUpdates  *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		diagnosesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnoses_total",
			Help:      "Diagnose requests, labeled by outcome (matched, no_match, invalid).",
		}, []string{"outcome"}),
		diagnoseResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnose_results",
			Help:      "Number of ranked results returned per diagnosis.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13},
		}),
		diagnoseLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "diagnose_duration_seconds",
			Help:      "Time spent matching and ranking one diagnosis.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		rulesReloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_reloads_total",
			Help:      "Knowledge base reload attempts, labeled by result (ok, rejected).",
		}, []string{"result"}),
		rulesLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules_loaded",
			Help:      "Number of rules in the active knowledge base.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		catalogUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_updates_total",
			Help:      "Vehicle catalog refreshes, labeled by result (ok, error).",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.diagnosesTotal,
		m.diagnoseResults,
		m.diagnoseLatency,
		m.rulesReloads,
		m.rulesLoaded,
		m.httpRequests,
		m.httpDuration,
		m.catalogUpdates,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveDiagnosis records one successful diagnosis.
func (m *Metrics) ObserveDiagnosis(results int, elapsed time.Duration) {
	outcome := "matched"
	if results == 0 {
		outcome = "no_match"
	}
	m.diagnosesTotal.WithLabelValues(outcome).Inc()
	m.diagnoseResults.Observe(float64(results))
	m.diagnoseLatency.Observe(elapsed.Seconds())
}

// ObserveInvalidDiagnosis records a request rejected for a malformed vehicle.
func (m *Metrics) ObserveInvalidDiagnosis() {
	m.diagnosesTotal.WithLabelValues("invalid").Inc()
}

// ObserveRulesReload records a reload attempt. rules is the size of the
// active knowledge base after the attempt.
func (m *Metrics) ObserveRulesReload(err error, rules int) {
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	m.rulesReloads.WithLabelValues(result).Inc()
	m.rulesLoaded.Set(float64(rules))
}

// SetRulesLoaded records the size of the active knowledge base.
func (m *Metrics) SetRulesLoaded(rules int) {
	m.rulesLoaded.Set(float64(rules))
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCatalogUpdate records a catalog refresh.
func (m *Metrics) ObserveCatalogUpdate(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.catalogUpdates.WithLabelValues(result).Inc()
}
