// Package metrics records per-run Prometheus metrics from the event bus and
// writes them in the node exporter textfile format.
package metrics

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/camsnap/internal/events"
	"github.com/smazurov/camsnap/internal/logging"
	"github.com/smazurov/camsnap/internal/version"
)

// Capture result label values.
const (
	ResultSuccess         = "success"
	ResultFailed          = "failed"
	ResultInvocationError = "invocation_error"
)

// Recorder owns a registry with the run metrics.
type Recorder struct {
	registry *prometheus.Registry
	logger   *slog.Logger

	devicesDiscovered   prometheus.Gauge
	selectionRejections *prometheus.CounterVec
	captures            *prometheus.CounterVec
	captureDuration     prometheus.Histogram
	artifactFound       prometheus.Gauge
	lastResultCode      prometheus.Gauge
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	build := version.Get()
	factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "camsnap",
		Name:      "build_info",
		Help:      "Build metadata of the binary that wrote these metrics",
		ConstLabels: prometheus.Labels{
			"version":    build.Version,
			"commit":     build.GitCommit,
			"go_version": build.GoVersion,
		},
	}).Set(1)

	return &Recorder{
		registry: reg,
		logger:   logging.GetLogger("metrics"),

		devicesDiscovered: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camsnap",
			Name:      "devices_discovered",
			Help:      "Camera devices listed by the last enumeration",
		}),
		selectionRejections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camsnap",
			Name:      "selection_rejections_total",
			Help:      "Invalid device selections by reason",
		}, []string{"reason"}),
		captures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "camsnap",
			Name:      "captures_total",
			Help:      "Capture attempts by provider and result",
		}, []string{"provider", "result"}),
		captureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "camsnap",
			Name:      "capture_duration_seconds",
			Help:      "Time from dispatch to artifact check",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		artifactFound: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camsnap",
			Name:      "artifact_found",
			Help:      "Whether the last capture left an image file (1) or not (0)",
		}),
		lastResultCode: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "camsnap",
			Name:      "last_result_code",
			Help:      "Result code reported by the provider for the last capture",
		}),
	}
}

// Registry returns the registry holding the run metrics.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Subscribe wires the recorder to bus and returns an unsubscribe function.
func (r *Recorder) Subscribe(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(events.DeviceDiscoveryEvent) {
			r.devicesDiscovered.Inc()
		}),
		bus.Subscribe(func(e events.SelectionRejectedEvent) {
			r.selectionRejections.WithLabelValues(e.Reason).Inc()
		}),
		bus.Subscribe(r.recordCompleted),
		bus.Subscribe(func(e events.CaptureInvocationFailedEvent) {
			r.captures.WithLabelValues(e.Provider, ResultInvocationError).Inc()
		}),
	}

	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (r *Recorder) recordCompleted(e events.CaptureCompletedEvent) {
	result := ResultFailed
	if e.Succeeded() {
		result = ResultSuccess
	}
	r.captures.WithLabelValues(e.Provider, result).Inc()
	r.captureDuration.Observe(e.Duration.Seconds())
	r.lastResultCode.Set(float64(e.ResultCode))
	if e.ArtifactFound {
		r.artifactFound.Set(1)
	} else {
		r.artifactFound.Set(0)
	}
}

// WriteTextfile writes the registry to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	r.logger.Debug("Metrics written", "path", path)
	return nil
}
