package bridge

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/extract"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/negotiate"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/oncecell"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

// GLBridge shares the application's EGL context with the pipeline and hands
// out GL textures.
type GLBridge struct {
	fw   media.Framework
	gl   media.GL
	opts Options

	// Owned for the bridge lifetime, released by Close
	display media.GLDisplay
	appCtx  media.GLContext

	mu         sync.Mutex // serialises BuildVideoSink
	configured bool
	installed  *sink.Installed
	observer   *negotiate.Observer

	upload      oncecell.Cell[sink.Discovery]
	pipelineCtx oncecell.Cell[media.GLContext]

	closed atomic.Bool
}

// NewGL probes the framework and wraps the application's EGL display and
// context. Every failure wraps media.ErrBackendUnavailable; no partially
// built bridge is ever returned.
func NewGL(provider media.GLContextProvider, fw media.Framework, gl media.GL, opts Options) (*GLBridge, error) {
	if err := opts.validate(sink.PathGL); err != nil {
		return nil, fmt.Errorf("render-bridge: invalid options: %v: %w", err, media.ErrBackendUnavailable)
	}

	for _, factory := range []string{opts.Elements.GLSinkBin, opts.Elements.Download, opts.Elements.Upload} {
		if !fw.HasElementFactory(factory) {
			return nil, fmt.Errorf("render-bridge: element %q not available: %w", factory, media.ErrBackendUnavailable)
		}
	}

	nd := provider.NativeDisplay()
	nc := provider.NativeContext()

	// Only EGL is wired; other GL platforms are reported as unavailable
	if nd.Kind != media.DisplayEGL || nc.Kind != media.ContextEGL {
		return nil, fmt.Errorf("render-bridge: display kind %d / context kind %d not supported: %w",
			nd.Kind, nc.Kind, media.ErrBackendUnavailable)
	}
	if nd.Handle == 0 || nc.Handle == 0 {
		return nil, fmt.Errorf("render-bridge: null native handle: %w", media.ErrBackendUnavailable)
	}

	display, err := gl.NewEGLDisplay(nd.Handle)
	if err != nil {
		return nil, fmt.Errorf("render-bridge: wrap EGL display: %v: %w", err, media.ErrBackendUnavailable)
	}

	api := provider.GLAPI()
	appCtx, err := gl.WrapContext(display, nc.Handle, media.GLPlatformEGL, api)
	if err != nil {
		display.Release()
		return nil, fmt.Errorf("render-bridge: wrap application context: %v: %w", err, media.ErrBackendUnavailable)
	}

	// Best-effort: a context that cannot be activated here may still work on
	// the pipeline's GL thread.
	if err := appCtx.Activate(true); err != nil {
		slog.Warn("render-bridge: could not activate application context", "error", err)
	}
	if err := appCtx.FillInfo(); err != nil {
		slog.Warn("render-bridge: could not fill application context info", "error", err)
	}

	slog.Info("render-bridge: GL bridge ready",
		"gl_api", api.String(),
		"display_handle", fmt.Sprintf("%#x", nd.Handle),
		"context_handle", fmt.Sprintf("%#x", nc.Handle),
	)

	return &GLBridge{
		fw:      fw,
		gl:      gl,
		opts:    opts,
		display: display,
		appCtx:  appCtx,
	}, nil
}

func (b *GLBridge) sealed() {}

// IsGL is always true.
func (b *GLBridge) IsGL() bool { return true }

// BuildVideoSink installs download → glsinkbin(sink=appsink), the
// need-context observer, and looks up the upload element inside glsinkbin.
func (b *GLBridge) BuildVideoSink(appsink media.AppSink, pipeline media.Pipeline) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.configured {
		return fmt.Errorf("render-bridge: GL bridge: %w", media.ErrAlreadyConfigured)
	}
	if b.closed.Load() {
		return fmt.Errorf("render-bridge: GL bridge closed: %w", media.ErrBackendUnavailable)
	}
	if pipeline == nil {
		return fmt.Errorf("render-bridge: nil pipeline: %w", media.ErrMissingNativeElement)
	}

	bus, err := pipeline.Bus()
	if err != nil {
		return fmt.Errorf("render-bridge: pipeline %s has no bus: %v: %w", pipeline.Name(), err, media.ErrMissingNativeElement)
	}

	installed, err := sink.NewBuilder(b.fw, b.opts.Elements, b.opts.SinkBinName).Build(sink.PathGL, appsink, pipeline)
	if err != nil {
		return fmt.Errorf("render-bridge: %w", err)
	}

	observer := negotiate.NewObserver(b.gl, b.display, b.appCtx, b.opts.Metrics)
	observer.Install(bus)

	discovery := sink.Discovery{}
	if sinkbin, ok := installed.GLSinkBin.AsBin(); ok {
		discovery = sink.FindElement(sinkbin, b.opts.Elements.Upload)
	}
	if !discovery.Found {
		slog.Warn("render-bridge: upload element not found, frames will carry no pipeline context",
			"factory", b.opts.Elements.Upload,
			"walks", discovery.Walks,
		)
	}
	b.upload.Set(discovery)

	b.installed = installed
	b.observer = observer
	b.configured = true
	b.opts.Metrics.SinkBuilt(sink.PathGL.String())
	return nil
}

// BuildFrame maps sample as GL memory and returns its texture.
func (b *GLBridge) BuildFrame(sample media.Sample) (*media.VideoFrame, error) {
	start := time.Now()

	ctx, _ := b.PipelineContext()
	frame, err := extract.Extract(sample, extract.Options{GL: true, PipelineContext: ctx})
	if err != nil {
		b.opts.Metrics.FrameError(err)
		return nil, fmt.Errorf("render-bridge: build frame: %w", err)
	}

	b.opts.Metrics.FrameBuilt(true, time.Since(start))
	return frame, nil
}

// PipelineContext returns the GL context the pipeline negotiated, looked up
// on the upload element once it has one. Empty until then.
func (b *GLBridge) PipelineContext() (media.GLContext, bool) {
	return b.pipelineCtx.GetOrInit(func() (media.GLContext, bool) {
		d, ok := b.upload.Get()
		if !ok || !d.Found {
			return nil, false
		}
		return b.gl.ElementContext(d.Element)
	})
}

// Upload returns the upload element found inside glsinkbin.
func (b *GLBridge) Upload() (media.Element, bool) {
	d, ok := b.upload.Get()
	if !ok || !d.Found {
		return nil, false
	}
	return d.Element, true
}

// Installed returns the installed sink, nil before BuildVideoSink.
func (b *GLBridge) Installed() *sink.Installed {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.installed
}

// ObserverStats returns the need-context counters.
func (b *GLBridge) ObserverStats() negotiate.Stats {
	b.mu.Lock()
	obs := b.observer
	b.mu.Unlock()
	if obs == nil {
		return negotiate.Stats{}
	}
	return obs.Stats()
}

// Close releases the pipeline context read from the upload element, the
// application context and the display. Frames must be released first.
func (b *GLBridge) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	if ctx, ok := b.pipelineCtx.Get(); ok {
		ctx.Release()
	}
	if err := b.appCtx.Activate(false); err != nil {
		slog.Debug("render-bridge: could not deactivate application context", "error", err)
	}
	b.appCtx.Release()
	b.display.Release()
	slog.Info("render-bridge: GL bridge closed")
	return nil
}
