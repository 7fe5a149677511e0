// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	scrapeJobsTotal           *prometheus.CounterVec
	scrapeItemsTotal          *prometheus.CounterVec
	scrapeFetchSeconds        *prometheus.HistogramVec
	scrapeCacheHitsTotal      *prometheus.CounterVec
	httpRequestsTotal         *prometheus.CounterVec
	httpRequestDurationSecond *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		scrapeJobsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_jobs_total",
				Help: "Total number of scrape jobs, labeled by target type and terminal status.",
			},
			[]string{"target", "status"},
		)

		scrapeItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_items_total",
				Help: "Total number of records upserted, labeled by target type.",
			},
			[]string{"target"},
		)

		scrapeFetchSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scraper_fetch_duration_seconds",
				Help:    "Histogram of page fetch+extract latencies, labeled by target type.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"target"},
		)

		scrapeCacheHitsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_cache_hits_total",
				Help: "Total freshness short-circuits that skipped a network fetch.",
			},
			[]string{"target"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSecond = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveJob increments the job counter for the given target and status.
func ObserveJob(target, status string) {
	scrapeJobsTotal.WithLabelValues(target, status).Inc()
}

// ObserveItems adds upserted record counts for a target type.
func ObserveItems(target string, count int) {
	if count > 0 {
		scrapeItemsTotal.WithLabelValues(target).Add(float64(count))
	}
}

// ObserveFetch records the duration of one fetch+extract call.
func ObserveFetch(target string, duration time.Duration) {
	scrapeFetchSeconds.WithLabelValues(target).Observe(duration.Seconds())
}

// ObserveCacheHit increments the freshness short-circuit counter.
func ObserveCacheHit(target string) {
	scrapeCacheHitsTotal.WithLabelValues(target).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSecond.WithLabelValues(method, route).Observe(duration.Seconds())
}
