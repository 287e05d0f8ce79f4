// Package metrics exports Prometheus instrumentation for the collector.
// It plays the role the stock Go runtime's MemStats (NumGC, PauseNs,
// HeapAlloc; see _examples/Go-zh-go.old/src/runtime/mem.go) plays for
// the standard collector, wired through github.com/prometheus/client_golang
// instead of a polled snapshot struct.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the counters and gauges a Runtime updates around each
// minor collection cycle, alongside the before/after space measurements
// it already takes to decide whether to promote.
type Collector struct {
	MinorCollections prometheus.Counter
	Promotions       prometheus.Counter
	BytesCopied      prometheus.Counter
	SpaceAvailable   prometheus.Gauge
}

// NewCollector builds a Collector with a given namespace, suitable for
// registering against a prometheus.Registerer. It does not register
// itself, so callers can attach it to a private registry in tests.
func NewCollector(namespace string) *Collector {
	return &Collector{
		MinorCollections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "minor_collections_total",
			Help:      "Total number of minor collection cycles run.",
		}),
		Promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "promotions_total",
			Help:      "Total number of times a cycle was unable to free space and promoted to the old generation.",
		}),
		BytesCopied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "bytes_copied_total",
			Help:      "Total bytes evacuated from from-space to to-space across all minor collections.",
		}),
		SpaceAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gc",
			Name:      "space_available_bytes",
			Help:      "Bytes remaining in the nursery's active half as of the last sample.",
		}),
	}
}

// MustRegister registers every metric in c against reg, panicking on a
// duplicate registration, matching the usual prometheus.MustRegister
// call-site convention.
func (c *Collector) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(c.MinorCollections, c.Promotions, c.BytesCopied, c.SpaceAvailable)
}
