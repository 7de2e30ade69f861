package index

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments index builds. Collectors register against the default
// registry exactly once regardless of how many builders are constructed.
type Metrics struct {
	BuildsTotal   prometheus.Counter
	BuildDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide index metrics set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			BuildsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_index_builds_total",
				Help: "Total number of completed full index builds.",
			}),
			BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "hubd_index_build_duration_seconds",
				Help:    "Wall-clock duration of full index builds.",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			}),
		}
	})
	return metrics
}
