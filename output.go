package renderbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/delivery"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/telemetry"
)

// Appsink properties set by NewVideoOutput
const (
	propMaxBuffers  = "max-buffers"
	propDrop        = "drop"
	propSync        = "sync"
	propEmitSignals = "emit-signals"
)

// Delivery is one frame handed to the renderer
type Delivery struct {
	// Seq is the monotonic sequence number of built frames
	Seq uint64
	// TraceID identifies the frame in logs
	TraceID string
	// Timestamp is when the frame was built
	Timestamp time.Time
	// Frame is released after Render returns
	Frame *VideoFrame
}

// FrameRenderer draws frames. Render runs on the output's render goroutine,
// never on the streaming thread.
type FrameRenderer interface {
	Render(d Delivery)
}

// RendererFunc adapts a function to FrameRenderer
type RendererFunc func(Delivery)

func (f RendererFunc) Render(d Delivery) { f(d) }

// OutputStats is a snapshot of a VideoOutput's counters
type OutputStats struct {
	// GL reports whether frames carry textures
	GL bool
	// FramesBuilt counts samples turned into frames
	FramesBuilt uint64
	// FramesFailed counts samples skipped because BuildFrame failed
	FramesFailed uint64
	// FailuresByKind breaks FramesFailed down by error kind
	FailuresByKind map[string]uint64
	// FramesDropped counts frames replaced before the renderer got them
	FramesDropped uint64
	// FramesDelivered counts Render calls
	FramesDelivered uint64
}

// VideoOutput owns the appsink of a pipeline and delivers the latest frame
// to a renderer.
//
// The appsink callback builds frames on the streaming thread and publishes
// them into a single-slot mailbox; the render loop always gets the most
// recent frame. Build failures are counted and skipped, the stream keeps
// flowing.
type VideoOutput struct {
	bridge   Bridge
	appsink  AppSink
	renderer FrameRenderer
	mailbox  *delivery.Mailbox[Delivery]
	metrics  *telemetry.Metrics

	seq       atomic.Uint64
	built     atomic.Uint64
	failed    atomic.Uint64
	delivered atomic.Uint64

	failMu     sync.Mutex
	failByKind map[string]uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewVideoOutput creates the appsink, installs the bridge's sink on pipeline
// and registers the sample callback. Nothing flows until the pipeline plays.
//
// Returns ErrAlreadyConfigured when b already built its sink and
// ErrMissingNativeElement when the sink cannot be assembled.
func NewVideoOutput(b Bridge, pipeline Pipeline, renderer FrameRenderer, cfg Config) (*VideoOutput, error) {
	if b == nil {
		return nil, errors.New("render-bridge: bridge is required")
	}
	if pipeline == nil {
		return nil, errors.New("render-bridge: pipeline is required")
	}
	if renderer == nil {
		return nil, errors.New("render-bridge: renderer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics, err := telemetry.New(cfg.Registerer)
	if err != nil {
		return nil, fmt.Errorf("render-bridge: %w", err)
	}

	appsink, err := cfg.framework().NewAppSink(cfg.Elements.AppSink, cfg.AppSinkName)
	if err != nil {
		return nil, fmt.Errorf("render-bridge: failed to create %s: %v: %w", cfg.Elements.AppSink, err, ErrMissingNativeElement)
	}
	props := []struct {
		name  string
		value any
	}{
		{propMaxBuffers, cfg.MaxBuffers},
		{propDrop, cfg.Drop},
		{propSync, cfg.Sync},
		{propEmitSignals, false},
	}
	for _, p := range props {
		if err := appsink.SetProperty(p.name, p.value); err != nil {
			appsink.Release()
			return nil, fmt.Errorf("render-bridge: failed to set appsink %s: %w", p.name, err)
		}
	}

	if err := b.BuildVideoSink(appsink, pipeline); err != nil {
		appsink.Release()
		return nil, err
	}

	o := &VideoOutput{
		bridge:     b,
		appsink:    appsink,
		renderer:   renderer,
		metrics:    metrics,
		failByKind: map[string]uint64{},
	}
	o.mailbox = delivery.NewMailbox(o.discard)
	appsink.OnNewSample(o.onSample)

	slog.Info("render-bridge: video output ready",
		"appsink", appsink.Name(),
		"gl", b.IsGL(),
		"max_buffers", cfg.MaxBuffers,
		"drop", cfg.Drop,
	)
	return o, nil
}

// onSample runs on the streaming thread.
func (o *VideoOutput) onSample(sample media.Sample) media.FlowReturn {
	frame, err := o.bridge.BuildFrame(sample)
	if err != nil {
		o.recordFailure(err)
		return media.FlowOK
	}
	o.built.Add(1)

	// After Stop the mailbox releases the frame
	o.mailbox.Publish(Delivery{
		Seq:       o.seq.Add(1),
		TraceID:   uuid.New().String(),
		Timestamp: time.Now(),
		Frame:     frame,
	})
	return media.FlowOK
}

func (o *VideoOutput) recordFailure(err error) {
	kind := media.Classify(err).String()
	o.failed.Add(1)

	o.failMu.Lock()
	o.failByKind[kind]++
	o.failMu.Unlock()

	slog.Debug("render-bridge: sample skipped",
		"kind", kind,
		"error", err,
	)
}

func (o *VideoOutput) discard(d Delivery) {
	o.metrics.FramesDropped(1)
	d.Frame.Release()
}

// Start launches the render loop. It returns immediately; the loop ends
// when ctx is cancelled or Stop is called.
func (o *VideoOutput) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped.Load() {
		return errors.New("render-bridge: video output stopped")
	}
	if o.cancel != nil {
		return errors.New("render-bridge: video output already started")
	}

	ctx, o.cancel = context.WithCancel(ctx)
	o.wg.Add(1)
	go o.renderLoop(ctx)

	slog.Info("render-bridge: render loop started", "appsink", o.appsink.Name())
	return nil
}

func (o *VideoOutput) renderLoop(ctx context.Context) {
	defer o.wg.Done()
	for {
		d, ok := o.mailbox.Next(ctx)
		if !ok {
			return
		}
		o.render(d)
	}
}

func (o *VideoOutput) render(d Delivery) {
	defer d.Frame.Release()
	o.renderer.Render(d)
	o.delivered.Add(1)
}

// Stop ends the render loop and releases any pending frame. Samples arriving
// afterwards are built and released immediately. Idempotent.
func (o *VideoOutput) Stop() error {
	if !o.stopped.CompareAndSwap(false, true) {
		return nil
	}

	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()

	o.mailbox.Close()
	if cancel != nil {
		cancel()
	}
	o.wg.Wait()

	stats := o.Stats()
	slog.Info("render-bridge: video output stopped",
		"frames_built", stats.FramesBuilt,
		"frames_failed", stats.FramesFailed,
		"frames_dropped", stats.FramesDropped,
		"frames_delivered", stats.FramesDelivered,
	)
	return nil
}

// Stats returns the counters. Safe from any goroutine.
func (o *VideoOutput) Stats() OutputStats {
	o.failMu.Lock()
	byKind := make(map[string]uint64, len(o.failByKind))
	for k, v := range o.failByKind {
		byKind[k] = v
	}
	o.failMu.Unlock()

	return OutputStats{
		GL:              o.bridge.IsGL(),
		FramesBuilt:     o.built.Load(),
		FramesFailed:    o.failed.Load(),
		FailuresByKind:  byKind,
		FramesDropped:   o.mailbox.Stats().Dropped,
		FramesDelivered: o.delivered.Load(),
	}
}
