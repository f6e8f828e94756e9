package renderbridge

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/gstreamer"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

// Config configures the bridge and the video output
type Config struct {
	// Elements are the sink factory names
	Elements Elements
	// AppSinkName names the appsink created by NewVideoOutput
	AppSinkName string
	// SinkBinName names the bin installed as the pipeline's video-sink
	SinkBinName string
	// MaxBuffers is the appsink queue length (appsink max-buffers)
	MaxBuffers uint
	// Drop makes the appsink drop old buffers when the queue is full
	Drop bool
	// Sync makes the appsink synchronise on the clock
	Sync bool

	// Framework and GL default to GStreamer when nil
	Framework Framework
	GL        GL
	// Registerer receives the bridge metrics; nil disables registration
	Registerer prometheus.Registerer
}

// DefaultConfig returns a config for the D3D11 + GL element set
func DefaultConfig() Config {
	return Config{
		Elements:    sink.DefaultElements(),
		AppSinkName: "render-bridge-appsink",
		SinkBinName: "render-bridge-sink",
		MaxBuffers:  1,
		Drop:        true,
		Sync:        true,
	}
}

// Validate checks the config (fail-fast)
func (c Config) Validate() error {
	if err := c.Elements.Validate(sink.PathCPU); err != nil {
		return fmt.Errorf("render-bridge: %w", err)
	}
	if c.SinkBinName == "" {
		return fmt.Errorf("render-bridge: sink bin name is required")
	}
	if c.MaxBuffers == 0 {
		return fmt.Errorf("render-bridge: invalid max buffers 0 (must be >= 1)")
	}
	return nil
}

func (c Config) framework() Framework {
	if c.Framework != nil {
		return c.Framework
	}
	return gstreamer.NewFramework()
}

func (c Config) gl() GL {
	if c.GL != nil {
		return c.GL
	}
	if c.Framework != nil {
		// a custom framework without a GL integration cannot share contexts
		return nil
	}
	return gstreamer.NewGL()
}
