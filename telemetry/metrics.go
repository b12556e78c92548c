// Package telemetry provides Prometheus metrics, OpenTelemetry tracing, the console log
// handler and correlation-id aware logging helpers.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	PollsTotal          *prometheus.CounterVec // label: state
	TokenFetches        *prometheus.CounterVec // label: result
	RecordingsStarted   prometheus.Counter
	RecordingsFailed    prometheus.Counter
	RecordingsCompleted prometheus.Counter

	// Histograms (seconds)
	RecordingDuration prometheus.Observer

	// Gauges
	ChannelLiveGauge prometheus.Gauge // 1=recording,0=idle
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "recorder_polls_total", Help: "Number of channel status checks by resulting state"}, []string{"state"})
		TokenFetches = promauto.NewCounterVec(prometheus.CounterOpts{Name: "recorder_token_fetches_total", Help: "Number of app access token fetches by result"}, []string{"result"})
		RecordingsStarted = promauto.NewCounter(prometheus.CounterOpts{Name: "recorder_recordings_started_total", Help: "Number of capture pipelines started"})
		RecordingsFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "recorder_recordings_failed_total", Help: "Number of capture pipelines that exited with an error"})
		RecordingsCompleted = promauto.NewCounter(prometheus.CounterOpts{Name: "recorder_recordings_completed_total", Help: "Number of capture pipelines that exited cleanly"})
		// Streams run for hours; default buckets top out at 10s.
		RecordingDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "recorder_recording_duration_seconds", Help: "Capture pipeline wall time in seconds", Buckets: prometheus.ExponentialBuckets(60, 2, 10)})
		ChannelLiveGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "recorder_channel_live", Help: "Channel currently being recorded (1) or not (0)"})
	})
}

// ObservePoll counts one status check under its state name.
func ObservePoll(state string) {
	if PollsTotal != nil {
		PollsTotal.WithLabelValues(state).Inc()
	}
}

// ObserveTokenFetch counts a token fetch as "success" or "failure".
func ObserveTokenFetch(err error) {
	if TokenFetches == nil {
		return
	}
	if err != nil {
		TokenFetches.WithLabelValues("failure").Inc()
		return
	}
	TokenFetches.WithLabelValues("success").Inc()
}

// SetLive records whether a capture is in progress.
func SetLive(live bool) {
	if ChannelLiveGauge == nil {
		return
	}
	if live {
		ChannelLiveGauge.Set(1)
	} else {
		ChannelLiveGauge.Set(0)
	}
}

// TimeFunc measures the duration of fn and records in observer if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	v := ctx.Value(corrKey)
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
