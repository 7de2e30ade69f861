package syncer

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments sync cycles. Collectors register against the default
// registry exactly once regardless of how many engines are constructed.
type Metrics struct {
	CyclesTotal      prometheus.Counter
	ReposPulledTotal prometheus.Counter
	ReposClonedTotal prometheus.Counter
	ErrorsTotal      prometheus.Counter
	CycleDuration    prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// NewMetrics returns the process-wide sync metrics set.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_sync_cycles_total",
				Help: "Total number of completed sync cycles.",
			}),
			ReposPulledTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_sync_repos_pulled_total",
				Help: "Total number of repositories pulled with changes.",
			}),
			ReposClonedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_sync_repos_cloned_total",
				Help: "Total number of newly cloned repositories.",
			}),
			ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "hubd_sync_errors_total",
				Help: "Total number of per-repository and cycle-level sync errors.",
			}),
			CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "hubd_sync_cycle_duration_seconds",
				Help:    "Wall-clock duration of sync cycles.",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
			}),
		}
	})
	return metrics
}
