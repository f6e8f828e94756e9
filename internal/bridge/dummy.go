package bridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/extract"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

// DummyBridge copies plane 0 of CPU-mapped BGRA samples. It needs no GL.
type DummyBridge struct {
	fw   media.Framework
	opts Options

	mu        sync.Mutex
	installed *sink.Installed
}

// NewDummy returns a dummy bridge building its sink from fw.
func NewDummy(fw media.Framework, opts Options) *DummyBridge {
	return &DummyBridge{fw: fw, opts: opts}
}

func (b *DummyBridge) sealed() {}

// IsGL is always false.
func (b *DummyBridge) IsGL() bool { return false }

// BuildVideoSink installs convert → download → appsink.
func (b *DummyBridge) BuildVideoSink(appsink media.AppSink, pipeline media.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.installed != nil {
		return fmt.Errorf("render-bridge: dummy bridge: %w", media.ErrAlreadyConfigured)
	}

	installed, err := sink.NewBuilder(b.fw, b.opts.Elements, b.opts.SinkBinName).Build(sink.PathCPU, appsink, pipeline)
	if err != nil {
		return fmt.Errorf("render-bridge: %w", err)
	}

	b.installed = installed
	b.opts.Metrics.SinkBuilt(sink.PathCPU.String())
	return nil
}

// BuildFrame copies plane 0 into a raw buffer.
func (b *DummyBridge) BuildFrame(sample media.Sample) (*media.VideoFrame, error) {
	start := time.Now()

	frame, err := extract.Extract(sample, extract.Options{})
	if err != nil {
		b.opts.Metrics.FrameError(err)
		return nil, fmt.Errorf("render-bridge: build frame: %w", err)
	}

	b.opts.Metrics.FrameBuilt(false, time.Since(start))
	return frame, nil
}

// Installed returns the installed sink, nil before BuildVideoSink.
func (b *DummyBridge) Installed() *sink.Installed {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.installed
}

// Close is a no-op.
func (b *DummyBridge) Close() error { return nil }
