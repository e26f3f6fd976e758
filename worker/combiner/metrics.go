// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package combiner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/juju/combinator/core/combinator"
)

const metricsNamespace = "juju_combiner"

// Collector is a prometheus.Collector that collects metrics about
// combiner workers.
type Collector struct {
	sources        prometheus.Gauge
	trackedItems   prometheus.Gauge
	includedItems  prometheus.Gauge
	emittedChanges *prometheus.CounterVec
	updateDuration prometheus.Histogram
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		sources: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "sources",
				Help:      "The number of sources being combined.",
			},
		),
		trackedItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "tracked_items",
				Help:      "The number of distinct items held by at least one source.",
			},
		),
		includedItems: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "included_items",
				Help:      "The number of items in the combined output.",
			},
		),
		emittedChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "emitted_changes_total",
				Help:      "The number of item changes emitted by type.",
			}, []string{"type"},
		),
		updateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "update_duration_seconds",
				Help:      "The time taken to apply one event and compute its changes.",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.sources.Describe(ch)
	c.trackedItems.Describe(ch)
	c.includedItems.Describe(ch)
	c.emittedChanges.Describe(ch)
	c.updateDuration.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.sources.Collect(ch)
	c.trackedItems.Collect(ch)
	c.includedItems.Collect(ch)
	c.emittedChanges.Collect(ch)
	c.updateDuration.Collect(ch)
}

func (c *Collector) observe(stats combinator.Stats, adds, removes int, elapsed time.Duration) {
	c.sources.Set(float64(stats.Sources))
	c.trackedItems.Set(float64(stats.Tracked))
	c.includedItems.Set(float64(stats.Included))
	c.emittedChanges.WithLabelValues("add").Add(float64(adds))
	c.emittedChanges.WithLabelValues("remove").Add(float64(removes))
	c.updateDuration.Observe(elapsed.Seconds())
}
