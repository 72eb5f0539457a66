package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searches_total",
		Help: "Total number of discovery searches",
	}, []string{"mode"})

	SearchesFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "searches_failed_total",
		Help: "Total number of failed discovery searches",
	}, []string{"mode", "reason"})

	SearchResultCount = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_result_count",
		Help:    "Number of results returned per search",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
	}, []string{"mode"})

	SearchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "search_latency_seconds",
		Help:    "Latency of discovery searches",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	HistoryEventsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "history_events_published_total",
		Help: "Total number of search history events published",
	})

	HistoryEventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "history_events_dropped_total",
		Help: "Total number of search history events that failed to publish",
	})

	HistoryRowsAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "history_rows_appended_total",
		Help: "Total number of search history rows persisted by the worker",
	})

	PopularCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popular_freq_cache_hits_total",
		Help: "Popularity term-frequency reads served from Redis",
	})

	PopularCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popular_freq_cache_misses_total",
		Help: "Popularity term-frequency reads that fell back to the catalog",
	})

	PopularRefreshThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popular_refresh_throttled_total",
		Help: "Popularity cache refreshes skipped by the rate limiter",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
