// Package metrics exposes Prometheus collectors for matching, registration and notifications.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crimai"

// Scan outcomes.
const (
	OutcomeMatch   = "match"
	OutcomeNoMatch = "no_match"
	OutcomeError   = "error"
)

// Metrics holds the service collectors on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	scans              *prometheus.CounterVec
	scanDuration       prometheus.Histogram
	candidatesCompared prometheus.Counter
	candidateFaults    prometheus.Counter
	detections         *prometheus.CounterVec
	registrations      prometheus.Counter
	notifyFailures     *prometheus.CounterVec
}

// New creates the collectors and registers them with a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gallery_scans_total",
			Help:      "Gallery scans by outcome.",
		}, []string{"outcome"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gallery_scan_duration_seconds",
			Help:      "Time spent scanning the gallery for one probe.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		candidatesCompared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_compared_total",
			Help:      "Reference images submitted to the verification oracle.",
		}),
		candidateFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidate_faults_total",
			Help:      "Comparisons skipped because the oracle could not process the candidate.",
		}),
		detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "detections_total",
			Help:      "Detections recorded by source.",
		}, []string{"source"}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "case_registrations_total",
			Help:      "Cases registered.",
		}),
		notifyFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_failures_total",
			Help:      "Detection notifications that could not be delivered.",
		}, []string{"notifier"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.scans,
		m.scanDuration,
		m.candidatesCompared,
		m.candidateFaults,
		m.detections,
		m.registrations,
		m.notifyFailures,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveScan records a finished gallery scan.
func (m *Metrics) ObserveScan(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.scans.WithLabelValues(outcome).Inc()
	m.scanDuration.Observe(d.Seconds())
}

// CandidateCompared counts one oracle comparison.
func (m *Metrics) CandidateCompared() {
	if m == nil {
		return
	}
	m.candidatesCompared.Inc()
}

// CandidateFault counts one skipped comparison.
func (m *Metrics) CandidateFault() {
	if m == nil {
		return
	}
	m.candidateFaults.Inc()
}

// DetectionRecorded counts a stored detection.
func (m *Metrics) DetectionRecorded(source string) {
	if m == nil {
		return
	}
	m.detections.WithLabelValues(source).Inc()
}

// CaseRegistered counts a registered case.
func (m *Metrics) CaseRegistered() {
	if m == nil {
		return
	}
	m.registrations.Inc()
}

// NotifyFailed counts a failed notification.
func (m *Metrics) NotifyFailed(notifier string) {
	if m == nil {
		return
	}
	m.notifyFailures.WithLabelValues(notifier).Inc()
}
