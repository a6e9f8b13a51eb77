package genqueue

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for the generation queue.
type Metrics struct {
	processed    *prometheus.CounterVec
	pendingDepth prometheus.Gauge
	tickDuration prometheus.Histogram
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers queue metrics against the provided registerer. A nil
// registerer uses the default Prometheus registerer exactly once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_genqueue_items_processed_total",
			Help: "Generation queue items processed, labelled by outcome.",
		}, []string{"outcome"}),
		pendingDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "campus_genqueue_pending_depth",
			Help: "Pending items remaining in the generation queue.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_genqueue_tick_duration_seconds",
			Help:    "Duration of one processor tick including the generation call.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	registerer.MustRegister(m.processed, m.pendingDepth, m.tickDuration)
	return m
}

// ItemProcessed counts one finished item.
func (m *Metrics) ItemProcessed(success bool) {
	if m == nil {
		return
	}
	outcome := "completed"
	if !success {
		outcome = "failed"
	}
	m.processed.WithLabelValues(outcome).Inc()
}

// SetPendingDepth records the current pending backlog.
func (m *Metrics) SetPendingDepth(depth int) {
	if m == nil {
		return
	}
	m.pendingDepth.Set(float64(depth))
}

// ObserveTick records one tick's duration.
func (m *Metrics) ObserveTick(d time.Duration) {
	if m == nil {
		return
	}
	m.tickDuration.Observe(d.Seconds())
}
