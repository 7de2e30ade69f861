package search

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments search queries. Collectors register against the
// default registry exactly once regardless of how many engines are
// constructed.
type Metrics struct {
	QueriesTotal  prometheus.Counter
	QueryDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide search metrics set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			QueriesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_search_queries_total",
				Help: "Total number of search queries answered.",
			}),
			QueryDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "hubd_search_query_duration_seconds",
				Help:    "Wall-clock duration of search queries.",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			}),
		}
	})
	return metrics
}
