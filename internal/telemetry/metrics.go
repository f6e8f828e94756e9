// Package telemetry exposes render bridge counters as Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so components take one
// unconditionally.
package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

const namespace = "render_bridge"

// Metrics holds the bridge collectors
type Metrics struct {
	framesBuilt      *prometheus.CounterVec
	frameErrors      *prometheus.CounterVec
	contextsAttached *prometheus.CounterVec
	sinksBuilt       *prometheus.CounterVec
	framesDropped    prometheus.Counter
	buildDuration    prometheus.Histogram
}

// New creates the collectors and registers them on reg. A nil reg returns
// unregistered collectors (still usable, e.g. in tests).
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		framesBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_built_total",
				Help:      "Frames built from pulled samples",
			},
			[]string{"buffer"}, // buffer: texture, raw
		),
		frameErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frame_errors_total",
				Help:      "Samples that could not be turned into frames",
			},
			[]string{"kind"},
		),
		contextsAttached: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contexts_attached_total",
				Help:      "GL contexts attached in answer to need-context messages",
			},
			[]string{"context_type"},
		),
		sinksBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sinks_built_total",
				Help:      "Video sinks installed on a pipeline",
			},
			[]string{"path"}, // path: gl, cpu
		),
		framesDropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "frames_dropped_total",
				Help:      "Frames overwritten before the renderer consumed them",
			},
		),
		buildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "frame_build_seconds",
				Help:      "Time spent turning a sample into a frame",
				Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
			},
		),
	}

	if reg == nil {
		return m, nil
	}

	var err error
	if m.framesBuilt, err = register(reg, m.framesBuilt); err != nil {
		return nil, err
	}
	if m.frameErrors, err = register(reg, m.frameErrors); err != nil {
		return nil, err
	}
	if m.contextsAttached, err = register(reg, m.contextsAttached); err != nil {
		return nil, err
	}
	if m.sinksBuilt, err = register(reg, m.sinksBuilt); err != nil {
		return nil, err
	}
	if m.framesDropped, err = register(reg, m.framesDropped); err != nil {
		return nil, err
	}
	if m.buildDuration, err = register(reg, m.buildDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adopts the already registered collector when reg has an identical one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		if existing, ok := already.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, err
}

// FrameBuilt records a frame; texture selects the buffer label.
func (m *Metrics) FrameBuilt(texture bool, took time.Duration) {
	if m == nil {
		return
	}
	label := "raw"
	if texture {
		label = "texture"
	}
	m.framesBuilt.WithLabelValues(label).Inc()
	m.buildDuration.Observe(took.Seconds())
}

// FrameError records a failed sample, labelled by error kind.
func (m *Metrics) FrameError(err error) {
	if m == nil {
		return
	}
	m.frameErrors.WithLabelValues(media.Classify(err).String()).Inc()
}

// ContextAttached records an answered need-context message.
func (m *Metrics) ContextAttached(contextType string) {
	if m == nil {
		return
	}
	m.contextsAttached.WithLabelValues(contextType).Inc()
}

// SinkBuilt records an installed sink.
func (m *Metrics) SinkBuilt(path string) {
	if m == nil {
		return
	}
	m.sinksBuilt.WithLabelValues(path).Inc()
}

// FramesDropped adds n dropped frames.
func (m *Metrics) FramesDropped(n uint64) {
	if m == nil || n == 0 {
		return
	}
	m.framesDropped.Add(float64(n))
}

// Handler serves the metrics of reg on /metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
