package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chartCacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chart",
		Subsystem: "cache",
		Name:      "requests_total",
		Help:      "Total number of chart snapshot cache lookups broken down by hit/miss.",
	}, []string{"result"})

	chartCacheInvalidate = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chart",
		Subsystem: "cache",
		Name:      "invalidate_total",
		Help:      "Total number of chart snapshot cache invalidations broken down by reason.",
	}, []string{"reason"})

	chartWriteConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chart",
		Subsystem: "write",
		Name:      "conflicts_total",
		Help:      "Total number of chart write conflicts broken down by kind.",
	}, []string{"kind"})

	chartCoverageDegraded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "chart",
		Subsystem: "coverage",
		Name:      "degraded_total",
		Help:      "Total number of coverage aggregations served with zero counts after a lookup failure.",
	})

	chartPartialFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "chart",
		Subsystem: "write",
		Name:      "partial_failures_total",
		Help:      "Total number of multi-step chart mutations that failed after the first step.",
	}, []string{"operation"})
)

func recordCacheRequest(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	chartCacheRequests.WithLabelValues(result).Inc()
}

func recordCacheInvalidate(reason string) {
	if reason == "" {
		reason = "manual"
	}
	chartCacheInvalidate.WithLabelValues(reason).Inc()
}

func recordWriteConflict(kind string) {
	if kind == "" {
		kind = "other"
	}
	chartWriteConflicts.WithLabelValues(kind).Inc()
}

func recordCoverageDegraded() {
	chartCoverageDegraded.Inc()
}

func recordPartialFailure(operation string) {
	chartPartialFailures.WithLabelValues(operation).Inc()
}
