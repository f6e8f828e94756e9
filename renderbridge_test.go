package renderbridge

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/mediatest"
)

func glConfig() Config {
	cfg := DefaultConfig()
	cfg.Framework = mediatest.NewGLFramework()
	cfg.GL = mediatest.NewGL()
	return cfg
}

func cpuConfig() Config {
	cfg := DefaultConfig()
	cfg.Framework = mediatest.NewFramework("d3d11download", "d3d11convert")
	return cfg
}

func TestNew_Selection(t *testing.T) {
	tests := []struct {
		name     string
		provider GLContextProvider
		cfg      Config
		wantGL   bool
	}{
		{"egl provider with GL elements", mediatest.EGLProvider(), glConfig(), true},
		{"nil provider", nil, glConfig(), false},
		{"no glsinkbin", mediatest.EGLProvider(), func() Config {
			cfg := cpuConfig()
			cfg.GL = mediatest.NewGL()
			return cfg
		}(), false},
		{"custom framework without GL", mediatest.EGLProvider(), cpuConfig(), false},
		{"glx context", &mediatest.Provider{
			Display: media.NativeDisplay{Kind: media.DisplayX11, Handle: 1},
			Context: media.NativeContext{Kind: media.ContextGLX, Handle: 2},
			API:     media.GLAPIOpenGL,
		}, glConfig(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.provider, tt.cfg)
			require.NoError(t, err)
			defer b.Close()
			assert.Equal(t, tt.wantGL, b.IsGL())
		})
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no max buffers", func(c *Config) { c.MaxBuffers = 0 }},
		{"no sink bin name", func(c *Config) { c.SinkBinName = "" }},
		{"no download element", func(c *Config) { c.Elements.Download = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := cpuConfig()
			tt.mutate(&cfg)
			_, err := New(nil, cfg)
			assert.Error(t, err)
		})
	}
}

type output struct {
	out      *VideoOutput
	appsink  *mediatest.AppSink
	pipeline *mediatest.Pipeline
	got      chan Delivery
}

func newOutput(t *testing.T, provider GLContextProvider, cfg Config) *output {
	t.Helper()
	b, err := New(provider, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	got := make(chan Delivery, 16)
	pipeline := mediatest.NewPipeline("player")
	out, err := NewVideoOutput(b, pipeline, RendererFunc(func(d Delivery) { got <- d }), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { out.Stop() })

	return &output{
		out:      out,
		appsink:  out.appsink.(*mediatest.AppSink),
		pipeline: pipeline,
		got:      got,
	}
}

func (o *output) next(t *testing.T) Delivery {
	t.Helper()
	select {
	case d := <-o.got:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
		return Delivery{}
	}
}

func TestVideoOutput_ConfiguresAppsink(t *testing.T) {
	cfg := cpuConfig()
	cfg.MaxBuffers = 2
	cfg.Sync = false
	o := newOutput(t, nil, cfg)

	assert.Equal(t, "render-bridge-appsink", o.appsink.Name())
	assert.Equal(t, uint(2), o.appsink.PropertyValue("max-buffers"))
	assert.Equal(t, true, o.appsink.PropertyValue("drop"))
	assert.Equal(t, false, o.appsink.PropertyValue("sync"))
	assert.True(t, o.appsink.HasCallback())
	assert.True(t, o.pipeline.HasProperty(media.PropertyVideoSink))
}

func TestVideoOutput_DeliversRawFrames(t *testing.T) {
	o := newOutput(t, nil, cpuConfig())
	require.NoError(t, o.out.Start(context.Background()))

	pixels := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	assert.Equal(t, media.FlowOK, o.appsink.Push(mediatest.RawSample(media.FormatBGRA, 2, 1, pixels)))

	d := o.next(t)
	assert.Equal(t, uint64(1), d.Seq)
	_, err := uuid.Parse(d.TraceID)
	assert.NoError(t, err)
	assert.False(t, d.Timestamp.IsZero())
	raw, ok := d.Frame.Buffer().(media.RawBuffer)
	require.True(t, ok)
	assert.Equal(t, pixels, raw.Data)

	require.Eventually(t, func() bool { return o.out.Stats().FramesDelivered == 1 }, time.Second, 5*time.Millisecond)
	stats := o.out.Stats()
	assert.False(t, stats.GL)
	assert.Equal(t, uint64(1), stats.FramesBuilt)
}

func TestVideoOutput_ReleasesTexturesAfterRender(t *testing.T) {
	o := newOutput(t, mediatest.EGLProvider(), glConfig())
	require.NoError(t, o.out.Start(context.Background()))

	sample := mediatest.GLSample(media.FormatRGBA, 64, 64, media.TextureTarget2D, 7)
	o.appsink.Push(sample)

	d := o.next(t)
	tex, ok := d.Frame.Buffer().(media.TextureBuffer)
	require.True(t, ok)
	assert.Equal(t, uint32(7), tex.ID)

	require.Eventually(t, func() bool { return sample.Outstanding() == 0 }, time.Second, 5*time.Millisecond)
	assert.True(t, o.out.Stats().GL)
}

func TestVideoOutput_KeepsOnlyLatestFrame(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := glConfig()
	cfg.Registerer = reg
	o := newOutput(t, mediatest.EGLProvider(), cfg)

	samples := make([]*mediatest.Sample, 3)
	for i := range samples {
		samples[i] = mediatest.GLSample(media.FormatRGBA, 16, 16, media.TextureTarget2D, uint32(i+1))
		o.appsink.Push(samples[i])
	}

	assert.Zero(t, samples[0].Outstanding(), "overwritten frames are released")
	assert.Zero(t, samples[1].Outstanding())
	assert.Equal(t, 1, samples[2].Outstanding())
	assert.Equal(t, uint64(2), o.out.Stats().FramesDropped)
	assert.Equal(t, 2.0, counterValue(t, reg, "render_bridge_frames_dropped_total"))

	require.NoError(t, o.out.Start(context.Background()))
	d := o.next(t)
	assert.Equal(t, uint64(3), d.Seq)
	assert.Equal(t, uint32(3), d.Frame.Buffer().(media.TextureBuffer).ID)
}

func TestVideoOutput_SkipsBadSamples(t *testing.T) {
	o := newOutput(t, mediatest.EGLProvider(), glConfig())

	assert.Equal(t, media.FlowOK, o.appsink.Push(mediatest.NewCapslessSample()))
	assert.Equal(t, media.FlowOK, o.appsink.Push(mediatest.GLSample(media.FormatNV12, 8, 8, "", 1)))
	assert.Equal(t, media.FlowOK, o.appsink.Push(mediatest.GLSample(media.FormatNV12, 8, 8, "", 2)))

	stats := o.out.Stats()
	assert.Equal(t, uint64(3), stats.FramesFailed)
	assert.Zero(t, stats.FramesBuilt)
	assert.Equal(t, map[string]uint64{
		"malformed_sample":   1,
		"unsupported_format": 2,
	}, stats.FailuresByKind)
}

func TestVideoOutput_StopReleasesPendingFrame(t *testing.T) {
	o := newOutput(t, mediatest.EGLProvider(), glConfig())

	pending := mediatest.GLSample(media.FormatRGBA, 16, 16, media.TextureTarget2D, 1)
	o.appsink.Push(pending)
	assert.Equal(t, 1, pending.Outstanding())

	require.NoError(t, o.out.Stop())
	require.NoError(t, o.out.Stop(), "Stop is idempotent")
	assert.Zero(t, pending.Outstanding())

	late := mediatest.GLSample(media.FormatRGBA, 16, 16, media.TextureTarget2D, 2)
	assert.Equal(t, media.FlowOK, o.appsink.Push(late))
	assert.Zero(t, late.Outstanding(), "frames built after Stop are released")

	assert.Error(t, o.out.Start(context.Background()))
}

func TestVideoOutput_StartTwice(t *testing.T) {
	o := newOutput(t, nil, cpuConfig())
	require.NoError(t, o.out.Start(context.Background()))
	assert.Error(t, o.out.Start(context.Background()))
}

func TestVideoOutput_ContextCancelStopsLoop(t *testing.T) {
	o := newOutput(t, mediatest.EGLProvider(), glConfig())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, o.out.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		o.out.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("render loop did not exit")
	}
}

func TestNewVideoOutput_BridgeAlreadyConfigured(t *testing.T) {
	cfg := cpuConfig()
	b, err := New(nil, cfg)
	require.NoError(t, err)

	pipeline := mediatest.NewPipeline("player")
	noop := RendererFunc(func(Delivery) {})
	_, err = NewVideoOutput(b, pipeline, noop, cfg)
	require.NoError(t, err)

	_, err = NewVideoOutput(b, pipeline, noop, cfg)
	assert.ErrorIs(t, err, ErrAlreadyConfigured)
}

func TestNewVideoOutput_MissingElement(t *testing.T) {
	fw := mediatest.NewFramework("d3d11download")
	cfg := DefaultConfig()
	cfg.Framework = fw
	b, err := New(nil, cfg)
	require.NoError(t, err)

	pipeline := mediatest.NewPipeline("player")
	_, err = NewVideoOutput(b, pipeline, RendererFunc(func(Delivery) {}), cfg)
	assert.ErrorIs(t, err, ErrMissingNativeElement)
	assert.False(t, pipeline.HasProperty(media.PropertyVideoSink))

	as := createdAppSink(t, fw)
	assert.True(t, as.Released(), "the abandoned appsink is released")
	assert.False(t, as.HasCallback())
}

func TestNewVideoOutput_RetryAfterInstallFailure(t *testing.T) {
	cfg := cpuConfig()
	b, err := New(nil, cfg)
	require.NoError(t, err)
	noop := RendererFunc(func(Delivery) {})

	pipeline := mediatest.NewPipeline("player")
	pipeline.RejectProperties[media.PropertyVideoSink] = true
	_, err = NewVideoOutput(b, pipeline, noop, cfg)
	require.ErrorIs(t, err, ErrMissingNativeElement)

	delete(pipeline.RejectProperties, media.PropertyVideoSink)
	out, err := NewVideoOutput(b, pipeline, noop, cfg)
	require.NoError(t, err)
	defer out.Stop()
	assert.True(t, pipeline.HasProperty(media.PropertyVideoSink))
}

func TestNewVideoOutput_AppSinkFactory(t *testing.T) {
	t.Run("custom factory", func(t *testing.T) {
		cfg := cpuConfig()
		fw := cfg.Framework.(*mediatest.Framework)
		fw.Factories["nvappsink"] = true
		fw.AppSinkFactories["nvappsink"] = true
		cfg.Elements.AppSink = "nvappsink"

		o := newOutput(t, nil, cfg)
		assert.Equal(t, "nvappsink", o.appsink.FactoryName())
	})

	t.Run("not an appsink", func(t *testing.T) {
		cfg := cpuConfig()
		cfg.Elements.AppSink = "d3d11convert"
		b, err := New(nil, cfg)
		require.NoError(t, err)

		_, err = NewVideoOutput(b, mediatest.NewPipeline("player"), RendererFunc(func(Delivery) {}), cfg)
		assert.ErrorIs(t, err, ErrMissingNativeElement)
	})
}

func createdAppSink(t *testing.T, fw *mediatest.Framework) *mediatest.AppSink {
	t.Helper()
	for _, el := range fw.Created {
		if as, ok := el.(*mediatest.AppSink); ok {
			return as
		}
	}
	t.Fatal("no appsink created")
	return nil
}

func TestNewVideoOutput_RequiresArguments(t *testing.T) {
	cfg := cpuConfig()
	b, err := New(nil, cfg)
	require.NoError(t, err)
	noop := RendererFunc(func(Delivery) {})

	_, err = NewVideoOutput(nil, mediatest.NewPipeline("p"), noop, cfg)
	assert.Error(t, err)
	_, err = NewVideoOutput(b, nil, noop, cfg)
	assert.Error(t, err)
	_, err = NewVideoOutput(b, mediatest.NewPipeline("p"), nil, cfg)
	assert.Error(t, err)
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var sum float64
		for _, m := range f.GetMetric() {
			sum += m.GetCounter().GetValue()
		}
		return sum
	}
	return 0
}
