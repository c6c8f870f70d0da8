// Package metrics exposes lookup telemetry to Prometheus.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
	"github.com/custodia-labs/medterm/internal/logger"
)

// Ensure Observer implements the interface.
var _ driven.LookupObserver = (*Observer)(nil)

// Observer records source calls and keyword outcomes.
type Observer struct {
	sourceCalls    *prometheus.CounterVec
	sourceDuration *prometheus.HistogramVec
	keywords       *prometheus.CounterVec
}

// NewObserver creates an observer and registers its metrics with reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		sourceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medterm_source_calls_total",
			Help: "Source calls by source, outcome and error kind",
		}, []string{"source", "outcome", "error_kind"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medterm_source_duration_seconds",
			Help:    "Source call latency",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		keywords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medterm_keyword_lookups_total",
			Help: "Keyword lookups by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(o.sourceCalls, o.sourceDuration, o.keywords)
	return o
}

// ObserveSource records one (keyword x source) call.
func (o *Observer) ObserveSource(
	kind domain.SourceKind, outcome driven.SourceOutcome, errKind domain.ErrorKind, elapsed time.Duration,
) {
	o.sourceCalls.WithLabelValues(kind.String(), string(outcome), errKind.String()).Inc()
	o.sourceDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

// ObserveKeyword records the aggregated outcome of one keyword.
func (o *Observer) ObserveKeyword(found bool) {
	outcome := "not_found"
	if found {
		outcome = "found"
	}
	o.keywords.WithLabelValues(outcome).Inc()
}

var storeEntriesDesc = prometheus.NewDesc(
	"medterm_store_entries",
	"Local dictionary entries by origin",
	[]string{"origin"},
	nil,
)

// StoreCollector reads dictionary counts from the store on each scrape.
type StoreCollector struct {
	store   driven.TermStore
	timeout time.Duration
}

// NewStoreCollector creates a collector over store.
func NewStoreCollector(store driven.TermStore) *StoreCollector {
	return &StoreCollector{store: store, timeout: 5 * time.Second}
}

// Describe sends the metric descriptor to the channel.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- storeEntriesDesc
}

// Collect queries the store and emits the counts as gauges.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	stats, err := c.store.Stats(ctx)
	if err != nil {
		logger.Error("failed to collect store metrics: %v", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(storeEntriesDesc, prometheus.GaugeValue,
		float64(stats.Seeded), domain.OriginSeeded.String())
	ch <- prometheus.MustNewConstMetric(storeEntriesDesc, prometheus.GaugeValue,
		float64(stats.Custom), domain.OriginCustom.String())
}

// Register creates a lookup observer and a store collector on reg.
func Register(reg prometheus.Registerer, store driven.TermStore) *Observer {
	o := NewObserver(reg)
	if store != nil {
		reg.MustRegister(NewStoreCollector(store))
	}
	return o
}
