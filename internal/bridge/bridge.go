// Package bridge composes sink building, context negotiation and frame
// extraction into the two render bridge realizations.
//
// Bridge is a closed set: GLBridge (zero-copy GL textures) and DummyBridge
// (CPU copies). The realization is chosen once at startup by Select.
package bridge

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/telemetry"
)

// Bridge is implemented by *GLBridge and *DummyBridge only.
type Bridge interface {
	// IsGL reports whether frames carry GL textures.
	IsGL() bool

	// BuildVideoSink installs the sink segment on pipeline around appsink.
	// Succeeds at most once per bridge; later calls return ErrAlreadyConfigured
	// and change nothing.
	BuildVideoSink(appsink media.AppSink, pipeline media.Pipeline) error

	// BuildFrame turns a pulled sample into a frame.
	BuildFrame(sample media.Sample) (*media.VideoFrame, error)

	// Close releases owned handles. Safe to call more than once.
	Close() error

	sealed()
}

// Options configure both realizations
type Options struct {
	Elements    sink.Elements
	SinkBinName string
	Metrics     *telemetry.Metrics
}

// DefaultOptions returns the default element names and bin name
func DefaultOptions() Options {
	return Options{
		Elements:    sink.DefaultElements(),
		SinkBinName: "render-bridge-sink",
	}
}

func (o Options) validate(path sink.Path) error {
	if err := o.Elements.Validate(path); err != nil {
		return err
	}
	if o.SinkBinName == "" {
		return errors.New("sink bin name is required")
	}
	return nil
}

// Select returns a GL bridge when the host supports it and a dummy bridge
// otherwise. A nil provider or gl selects the dummy bridge. Only invalid
// options fail.
func Select(provider media.GLContextProvider, fw media.Framework, gl media.GL, opts Options) (Bridge, error) {
	if err := opts.validate(sink.PathCPU); err != nil {
		return nil, fmt.Errorf("render-bridge: invalid options: %w", err)
	}

	if provider != nil && gl != nil {
		b, err := NewGL(provider, fw, gl, opts)
		if err == nil {
			return b, nil
		}
		if !errors.Is(err, media.ErrBackendUnavailable) {
			return nil, err
		}
		slog.Info("render-bridge: GL backend unavailable, using dummy bridge", "reason", err)
	}

	return NewDummy(fw, opts), nil
}
