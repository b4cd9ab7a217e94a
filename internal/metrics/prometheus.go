package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline stages used as the failure label
const (
	StageTranscription = "transcription"
	StageTranslation   = "translation"
	StageRouting       = "routing"
	StageDelivery      = "delivery"
)

// Metrics contains all Prometheus metrics for the relay
type Metrics struct {
	// Connection metrics
	ActiveConnections   prometheus.Gauge
	ConnectionsOpened   prometheus.Counter
	ConnectionsRejected prometheus.Counter
	BytesReceived       prometheus.Counter

	// Dispatch metrics
	SegmentsDispatched prometheus.Counter
	SegmentsDelivered  prometheus.Counter
	DispatchesInFlight prometheus.Gauge
	SegmentSize        prometheus.Histogram
	DispatchDuration   prometheus.Histogram
	PipelineFailures   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "juru_active_connections",
			Help: "Current number of registered call legs",
		}),
		ConnectionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "juru_connections_opened_total",
			Help: "Total number of call legs accepted",
		}),
		ConnectionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "juru_connections_rejected_total",
			Help: "Total number of call legs rejected at registration",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "juru_audio_bytes_received_total",
			Help: "Total number of audio bytes received",
		}),

		SegmentsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "juru_segments_dispatched_total",
			Help: "Total number of audio segments handed to the pipeline",
		}),
		SegmentsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "juru_segments_delivered_total",
			Help: "Total number of translations spoken into the other leg",
		}),
		DispatchesInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "juru_dispatches_in_flight",
			Help: "Current number of segments being processed",
		}),
		SegmentSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "juru_segment_size_bytes",
			Help:    "Size of dispatched audio segments in bytes",
			Buckets: prometheus.ExponentialBuckets(4096, 2, 8), // 4KB to ~512KB
		}),
		DispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "juru_dispatch_duration_seconds",
			Help:    "Time from segment dispatch to spoken response",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1 minute
		}),
		PipelineFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "juru_pipeline_failures_total",
			Help: "Total number of abandoned segments by stage",
		}, []string{"stage"}),
	}
}

// RecordConnectionOpened records an accepted call leg
func (m *Metrics) RecordConnectionOpened() {
	m.ConnectionsOpened.Inc()
	m.ActiveConnections.Inc()
}

// RecordConnectionClosed records a call leg leaving the registry
func (m *Metrics) RecordConnectionClosed() {
	m.ActiveConnections.Dec()
}

// RecordConnectionRejected records a duplicate or invalid call leg
func (m *Metrics) RecordConnectionRejected() {
	m.ConnectionsRejected.Inc()
}

// RecordBytesReceived adds n audio bytes
func (m *Metrics) RecordBytesReceived(n int) {
	m.BytesReceived.Add(float64(n))
}

// RecordDispatchStarted records a segment entering the pipeline
func (m *Metrics) RecordDispatchStarted(sizeBytes int) {
	m.SegmentsDispatched.Inc()
	m.SegmentSize.Observe(float64(sizeBytes))
	m.DispatchesInFlight.Inc()
}

// RecordDispatchFinished records a segment leaving the pipeline
func (m *Metrics) RecordDispatchFinished(durationSeconds float64) {
	m.DispatchesInFlight.Dec()
	m.DispatchDuration.Observe(durationSeconds)
}

// RecordDelivered records a translation spoken into the other leg
func (m *Metrics) RecordDelivered() {
	m.SegmentsDelivered.Inc()
}

// RecordFailure records an abandoned segment at stage
func (m *Metrics) RecordFailure(stage string) {
	m.PipelineFailures.WithLabelValues(stage).Inc()
}
