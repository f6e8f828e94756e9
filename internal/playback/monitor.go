// Package playback watches a pipeline bus until the stream ends.
package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// PollInterval is the TimedPop timeout; it bounds shutdown latency.
const PollInterval = 50 * time.Millisecond

// ErrEndOfStream is returned by Run on EOS.
var ErrEndOfStream = errors.New("end of stream")

// ErrorCounters count bus errors per category
type ErrorCounters struct {
	Network atomic.Uint64
	Codec   atomic.Uint64
	Context atomic.Uint64
	Auth    atomic.Uint64
	Unknown atomic.Uint64
}

func (c *ErrorCounters) add(cat ErrorCategory) {
	switch cat {
	case CategoryNetwork:
		c.Network.Add(1)
	case CategoryCodec:
		c.Codec.Add(1)
	case CategoryContext:
		c.Context.Add(1)
	case CategoryAuth:
		c.Auth.Add(1)
	default:
		c.Unknown.Add(1)
	}
}

// ErrorStats is a snapshot of ErrorCounters
type ErrorStats struct {
	Network uint64
	Codec   uint64
	Context uint64
	Auth    uint64
	Unknown uint64
}

// Snapshot reads the counters.
func (c *ErrorCounters) Snapshot() ErrorStats {
	return ErrorStats{
		Network: c.Network.Load(),
		Codec:   c.Codec.Load(),
		Context: c.Context.Load(),
		Auth:    c.Auth.Load(),
		Unknown: c.Unknown.Load(),
	}
}

// PipelineError is a classified bus error
type PipelineError struct {
	Category ErrorCategory
	Source   string
	Text     string
	Debug    string
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error [%s] from %s: %s", e.Category, e.Source, e.Text)
}

// Monitor polls a pipeline bus
type Monitor struct {
	bus      media.Bus
	pipeline string
	counters ErrorCounters
	warnings atomic.Uint64
	started  time.Time
}

// NewMonitor watches bus; pipeline is the pipeline's element name, used to
// filter its own state changes.
func NewMonitor(bus media.Bus, pipeline string) *Monitor {
	return &Monitor{bus: bus, pipeline: pipeline}
}

// Run returns ErrEndOfStream on EOS, a *PipelineError on a bus error and nil
// when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	if m.bus == nil {
		return fmt.Errorf("render-bridge: monitor has no bus")
	}
	m.started = time.Now()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("render-bridge: context cancelled, stopping bus monitor")
			return nil
		default:
		}

		msg, ok := m.bus.TimedPop(PollInterval)
		if !ok {
			continue
		}

		switch msg.Kind() {
		case media.MessageEOS:
			slog.Info("render-bridge: end of stream received",
				"pipeline", m.pipeline,
				"uptime", time.Since(m.started),
			)
			return ErrEndOfStream

		case media.MessageError:
			text, debug, _ := msg.ErrorText()
			category := ClassifyError(text, debug)
			m.counters.add(category)

			slog.Error("render-bridge: pipeline error",
				"error", text,
				"debug", debug,
				"category", category.String(),
				"source", msg.SourceName(),
				"uptime", time.Since(m.started),
			)
			return &PipelineError{Category: category, Source: msg.SourceName(), Text: text, Debug: debug}

		case media.MessageWarning:
			text, debug, _ := msg.ErrorText()
			m.warnings.Add(1)
			slog.Warn("render-bridge: pipeline warning",
				"warning", text,
				"debug", debug,
				"source", msg.SourceName(),
			)

		case media.MessageStateChanged:
			if msg.SourceName() == m.pipeline {
				slog.Debug("render-bridge: pipeline state changed", "pipeline", m.pipeline)
			}
		}
	}
}

// Errors returns the error counters.
func (m *Monitor) Errors() ErrorStats { return m.counters.Snapshot() }

// Warnings returns the number of warnings seen.
func (m *Monitor) Warnings() uint64 { return m.warnings.Load() }
