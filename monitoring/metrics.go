package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "station_queue_length",
			Help: "Current queue length per station",
		},
		[]string{"station_id"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_operations_total",
			Help: "Total queue operations",
		},
		[]string{"operation", "station_id", "status"},
	)

	tokenOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_token_operations_total",
			Help: "Total QR token operations",
		},
		[]string{"operation", "status"},
	)

	geofenceTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_transitions_total",
			Help: "Total swaps flipped to approaching by the geofence monitor",
		},
		[]string{"station_id"},
	)

	locationUpdates = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_updates_total",
			Help: "Total GPS samples ingested",
		},
	)

	estimatedWait = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "queue_estimated_wait_minutes",
			Help:    "Wait estimates handed out at enqueue time",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		},
		[]string{"station_id"},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.collectQueueMetrics(context.Background())
	}
}

// collectQueueMetrics reads the cached per-station lengths the queue engine
// maintains. The cache may lag the durable store briefly; gauges tolerate it.
func (m *Monitor) collectQueueMetrics(ctx context.Context) {
	keys, _ := m.redis.Keys(ctx, "queue:length:*").Result()
	for _, key := range keys {
		stationID := key[len("queue:length:"):]
		length, err := m.redis.Get(ctx, key).Int64()
		if err != nil {
			continue
		}
		queueLength.WithLabelValues(stationID).Set(float64(length))
	}
}

// Track queue operations
func (m *Monitor) TrackQueueOperation(operation, stationID, status string) {
	queueOperations.WithLabelValues(operation, stationID, status).Inc()
}

// Track QR token operations
func (m *Monitor) TrackTokenOperation(operation, status string) {
	tokenOperations.WithLabelValues(operation, status).Inc()
}

func (m *Monitor) TrackGeofenceTransition(stationID string) {
	geofenceTransitions.WithLabelValues(stationID).Inc()
}

func (m *Monitor) TrackLocationUpdate() {
	locationUpdates.Inc()
}

func (m *Monitor) TrackWaitEstimate(stationID string, minutes int) {
	estimatedWait.WithLabelValues(stationID).Observe(float64(minutes))
}
