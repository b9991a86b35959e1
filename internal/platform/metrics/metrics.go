package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	LoginsTotal     *prometheus.CounterVec
	ArticlesCreated prometheus.Counter
	ArticlesDeleted prometheus.Counter
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atelier_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		LoginsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "atelier_logins_total",
			Help: "Login attempts by outcome (success/failure)",
		}, []string{"outcome"}),
		ArticlesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_articles_created_total",
			Help: "Total number of articles created",
		}),
		ArticlesDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_articles_deleted_total",
			Help: "Total number of articles deleted",
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_blog_cache_hits_total",
			Help: "Blog cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "atelier_blog_cache_misses_total",
			Help: "Blog cache misses",
		}),
	}
}
