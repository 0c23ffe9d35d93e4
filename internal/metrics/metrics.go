package metrics

import (
	"twin-core/internal/cache"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PipelineRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twin_pipeline_requests_total",
			Help: "Chat pipeline invocations by outcome",
		},
		[]string{"outcome"}, // cache_hit, generated, failed
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "twin_pipeline_duration_seconds",
			Help:    "End-to-end pipeline latency",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 2, 3, 5, 10, 30},
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twin_cache_lookups_total",
			Help: "Response cache lookups",
		},
		[]string{"result"}, // hit, miss, corrupt, bypass
	)

	SnippetsRetrieved = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "twin_retrieval_snippets",
			Help:    "Context snippets returned per retrieval",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	RetrievalDegraded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "twin_retrieval_degraded_total",
			Help: "Retrievals that failed and fell back to ungrounded generation",
		},
	)

	GenerationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twin_generation_attempts_total",
			Help: "Answer generator attempts by tier and status",
		},
		[]string{"tier", "status"}, // tier: primary/fallback
	)

	LogWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "twin_log_write_failures_total",
			Help: "Interaction log writes that were dropped",
		},
		[]string{"sink"}, // memory, archive
	)
)

// CacheStatsSource is satisfied by the in-process response cache.
type CacheStatsSource interface {
	Stats() cache.Stats
}

// RegisterCache exposes the response cache size and counters, read at scrape time.
func RegisterCache(reg prometheus.Registerer, src CacheStatsSource) error {
	collectors := []prometheus.Collector{
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "twin_cache_entries",
			Help: "Entries held by the response cache, including expired ones not yet swept",
		}, func() float64 { return float64(src.Stats().Entries) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "twin_cache_hits_total",
			Help: "Response cache reads that found a live entry",
		}, func() float64 { return float64(src.Stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "twin_cache_misses_total",
			Help: "Response cache reads that found nothing or an expired entry",
		}, func() float64 { return float64(src.Stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "twin_cache_expired_total",
			Help: "Expired entries removed from the response cache",
		}, func() float64 { return float64(src.Stats().Expired) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
