package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics aggregates the Prometheus instruments for the monitoring
// pipeline. Construct with a dedicated registry in tests.
type Metrics struct {
	ActiveSessions  prometheus.Gauge
	SessionsStarted prometheus.Counter
	SessionsStopped prometheus.Counter
	Reconnects      prometheus.Counter

	ChunksRead prometheus.Counter
	BytesRead  prometheus.Counter

	SegmentsProduced prometheus.Counter
	SegmentsDropped  prometheus.Counter
	SegmentDuration  prometheus.Histogram

	DecodeFailures prometheus.Counter

	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	MatchesDetected prometheus.Counter

	SinkEventsDropped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "contestwatch_active_sessions",
			Help: "Current number of active station sessions",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_sessions_started_total",
			Help: "Total number of station sessions started",
		}),
		SessionsStopped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_sessions_stopped_total",
			Help: "Total number of station sessions stopped",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		}),
		ChunksRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_chunks_read_total",
			Help: "Total number of raw chunks read from streams",
		}),
		BytesRead: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_bytes_read_total",
			Help: "Total number of raw bytes read from streams",
		}),
		SegmentsProduced: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_segments_produced_total",
			Help: "Total number of audio segments produced",
		}),
		SegmentsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_segments_dropped_total",
			Help: "Total number of segments dropped due to pipeline backpressure",
		}),
		SegmentDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contestwatch_segment_duration_seconds",
			Help:    "Approximate duration of produced audio segments",
			Buckets: prometheus.LinearBuckets(5, 5, 10),
		}),
		DecodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_decode_failures_total",
			Help: "Total number of segment decode failures",
		}),
		TranscriptionSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_transcription_successes_total",
			Help: "Total number of successful segment transcriptions",
		}),
		TranscriptionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_transcription_failures_total",
			Help: "Total number of failed or empty segment transcriptions",
		}),
		TranscriptionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "contestwatch_transcription_duration_seconds",
			Help:    "Duration of transcription calls",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		MatchesDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_contest_matches_total",
			Help: "Total number of contest keyword matches detected",
		}),
		SinkEventsDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "contestwatch_sink_events_dropped_total",
			Help: "Total number of events dropped by the async dispatcher",
		}),
	}
}
