// Package metrics provides Prometheus metrics for the catalog service and its HTTP surface.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is safe to use through a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	ThrowsCreated    *prometheus.CounterVec
	ThrowsDeleted    prometheus.Counter
	FavoriteToggles  *prometheus.CounterVec
	CacheLookups     *prometheus.CounterVec
	WSConnections    prometheus.Gauge
	MediaUploadBytes prometheus.Histogram
}

// New creates the metrics and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grenades_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "grenades_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"method", "route"}),
		ThrowsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grenades_throws_created_total",
			Help: "Total number of submitted throws by grenade type",
		}, []string{"grenade_type"}),
		ThrowsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "grenades_throws_deleted_total",
			Help: "Total number of deleted throws",
		}),
		FavoriteToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grenades_favorite_toggles_total",
			Help: "Total number of favorite toggles by resulting state",
		}, []string{"state"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "grenades_cache_lookups_total",
			Help: "Query cache lookups by key and result",
		}, []string{"key", "result"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "grenades_ws_connections",
			Help: "Currently open invalidation feed connections",
		}),
		MediaUploadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "grenades_media_upload_bytes",
			Help:    "Size of uploaded media files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.HTTPRequests, m.HTTPDuration, m.ThrowsCreated, m.ThrowsDeleted,
		m.FavoriteToggles, m.CacheLookups, m.WSConnections, m.MediaUploadBytes,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ThrowCreated(grenadeType string) {
	if m == nil {
		return
	}
	m.ThrowsCreated.WithLabelValues(grenadeType).Inc()
}

func (m *Metrics) ThrowDeleted() {
	if m == nil {
		return
	}
	m.ThrowsDeleted.Inc()
}

func (m *Metrics) FavoriteToggled(favorite bool) {
	if m == nil {
		return
	}
	state := "removed"
	if favorite {
		state = "added"
	}
	m.FavoriteToggles.WithLabelValues(state).Inc()
}

func (m *Metrics) CacheLookup(key string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(key, result).Inc()
}

func (m *Metrics) WSConnected(delta float64) {
	if m == nil {
		return
	}
	m.WSConnections.Add(delta)
}

func (m *Metrics) MediaUploaded(size int64) {
	if m == nil {
		return
	}
	m.MediaUploadBytes.Observe(float64(size))
}
