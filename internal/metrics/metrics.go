// Package metrics provides Prometheus instrumentation for reconciliation runs.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "k8sgce"

// Collector records reconciliation metrics.
type Collector interface {
	// RecordAction records one executed action by domain, op and result.
	RecordAction(domain, kind, op, result string)
	// RecordDomain records the duration and outcome of one domain run.
	RecordDomain(domain, result string, duration time.Duration)
	// RecordDrift sets the number of drifted resources of a domain.
	RecordDrift(domain string, count int)
	// RecordRetry records a retried mutation.
	RecordRetry(domain, kind string)
}

type prometheusCollector struct {
	actionsTotal   *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	domainDuration *prometheus.HistogramVec
	driftResources *prometheus.GaugeVec
}

// NewCollector creates a Prometheus collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) Collector {
	c := &prometheusCollector{
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "actions_total",
				Help:      "Total number of executed actions by domain, kind, op and result",
			},
			[]string{"domain", "kind", "op", "result"},
		),
		retriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "retries_total",
				Help:      "Total number of retried mutations by domain and kind",
			},
			[]string{"domain", "kind"},
		),
		domainDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "domain_duration_seconds",
				Help:      "Duration of a domain reconciliation in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~7min
			},
			[]string{"domain", "result"},
		),
		driftResources: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "drift_resources",
				Help:      "Number of resources whose observed attributes differ from the desired ones",
			},
			[]string{"domain"},
		),
	}

	reg.MustRegister(c.actionsTotal, c.retriesTotal, c.domainDuration, c.driftResources)
	return c
}

func (c *prometheusCollector) RecordAction(domain, kind, op, result string) {
	c.actionsTotal.WithLabelValues(domain, kind, op, result).Inc()
}

func (c *prometheusCollector) RecordDomain(domain, result string, duration time.Duration) {
	c.domainDuration.WithLabelValues(domain, result).Observe(duration.Seconds())
}

func (c *prometheusCollector) RecordDrift(domain string, count int) {
	c.driftResources.WithLabelValues(domain).Set(float64(count))
}

func (c *prometheusCollector) RecordRetry(domain, kind string) {
	c.retriesTotal.WithLabelValues(domain, kind).Inc()
}

// WriteTextfile writes all metrics gathered by g to path in the text
// exposition format read by the node exporter textfile collector.
func WriteTextfile(g prometheus.Gatherer, path string) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

// NoopCollector is a no-op implementation of Collector for testing.
type NoopCollector struct{}

// NewNoopCollector creates a new no-op collector.
func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (NoopCollector) RecordAction(_, _, _, _ string) {}
func (NoopCollector) RecordDomain(_, _ string, _ time.Duration) {}
func (NoopCollector) RecordDrift(_ string, _ int) {}
func (NoopCollector) RecordRetry(_, _ string) {}
