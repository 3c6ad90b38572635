package observability

import (
	"context"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"namechain/core"
)

type eventMetrics struct {
	events *prometheus.CounterVec
	blocks prometheus.Counter
	height prometheus.Gauge
}

var (
	eventMetricsOnce sync.Once
	eventRegistry    *eventMetrics
)

// Events returns the metrics registry tracking committed blocks and their
// registry events.
func Events() *eventMetrics {
	eventMetricsOnce.Do(func() {
		eventRegistry = &eventMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "namechain",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed events segmented by type.",
			}, []string{"type"}),
			blocks: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "namechain",
				Subsystem: "chain",
				Name:      "blocks_total",
				Help:      "Count of committed blocks since start.",
			}),
			height: prometheus.NewGauge(prometheus.GaugeOpts{
				Namespace: "namechain",
				Subsystem: "chain",
				Name:      "height",
				Help:      "Height of the latest committed block.",
			}),
		}
		prometheus.MustRegister(eventRegistry.events, eventRegistry.blocks, eventRegistry.height)
	})
	return eventRegistry
}

// RecordEvent increments the counter for the supplied event type.
func (m *eventMetrics) RecordEvent(kind string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(kind)
	if normalized == "" {
		normalized = "unknown"
	}
	m.events.WithLabelValues(normalized).Inc()
}

// HandleBlock implements core.BlockSink.
func (m *eventMetrics) HandleBlock(_ context.Context, block *core.CommittedBlock) error {
	if m == nil || block == nil || block.Header == nil {
		return nil
	}
	m.blocks.Inc()
	m.height.Set(float64(block.Header.Height))
	for _, evt := range block.Events {
		m.RecordEvent(evt.Type)
	}
	return nil
}
