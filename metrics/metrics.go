// Package metrics provides a Prometheus-backed listener for pacer buckets.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/yourusername/pacer/pkg/pacer"
)

// Collector implements pacer.Listener on top of Prometheus metrics.
// It is safe for concurrent use and can be shared by any number of buckets
// carrying the same name label.
type Collector struct {
	name string

	acquiredTokens  *prometheus.CounterVec
	acquisitions    *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	refilledTokens  *prometheus.CounterVec
	resets          *prometheus.CounterVec
	availableTokens *prometheus.GaugeVec
}

var _ pacer.Listener = (*Collector)(nil)

// NewCollector creates a collector on the default registerer.
// The name label distinguishes buckets sharing one registry.
func NewCollector(name string) *Collector {
	return NewCollectorWithRegistry(name, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector using the supplied registerer.
func NewCollectorWithRegistry(name string, registry prometheus.Registerer) *Collector {
	return &Collector{
		name: name,
		acquiredTokens: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_acquired_tokens_total",
				Help: "Total number of tokens successfully acquired",
			},
			[]string{"name"},
		),
		acquisitions: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_acquisitions_total",
				Help: "Total number of successful acquisitions",
			},
			[]string{"name"},
		),
		rejections: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_rejections_total",
				Help: "Total number of acquisitions rejected for insufficient tokens",
			},
			[]string{"name"},
		),
		refilledTokens: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_refilled_tokens_total",
				Help: "Total number of tokens credited back by refills",
			},
			[]string{"name"},
		),
		resets: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "pacer_resets_total",
				Help: "Total number of bucket resets",
			},
			[]string{"name"},
		),
		availableTokens: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pacer_available_tokens",
				Help: "Available tokens observed at the last refill",
			},
			[]string{"name"},
		),
	}
}

// OnAcquire implements pacer.Listener.
func (c *Collector) OnAcquire(tokensConsumed int64) {
	c.acquisitions.WithLabelValues(c.name).Inc()
	c.acquiredTokens.WithLabelValues(c.name).Add(float64(tokensConsumed))
}

// OnReject implements pacer.Listener.
func (c *Collector) OnReject(tokensRequested, tokensAvailable int64) {
	c.rejections.WithLabelValues(c.name).Inc()
}

// OnReset implements pacer.Listener.
func (c *Collector) OnReset() {
	c.resets.WithLabelValues(c.name).Inc()
}

// OnRefill implements pacer.Listener.
func (c *Collector) OnRefill(tokensAdded, newTotal int64) {
	c.refilledTokens.WithLabelValues(c.name).Add(float64(tokensAdded))
	c.availableTokens.WithLabelValues(c.name).Set(float64(newTotal))
}
