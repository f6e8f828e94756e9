package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/mediatest"
)

func newFixture(t *testing.T, fw *mediatest.Framework) (*Builder, *mediatest.AppSink, *mediatest.Pipeline) {
	t.Helper()
	as, err := fw.NewAppSink("appsink", "video-appsink")
	require.NoError(t, err)
	p, err := fw.NewPipeline("playbin", "player")
	require.NoError(t, err)
	return NewBuilder(fw, DefaultElements(), "render-bridge-sink"), as.(*mediatest.AppSink), p.(*mediatest.Pipeline)
}

func TestCapsStrings(t *testing.T) {
	assert.Equal(t,
		"video/x-raw(memory:GLMemory), format=(string)RGBA, texture-target=(string){ 2D, external-oes }",
		GLCaps().String())
	assert.Equal(t,
		"video/x-raw, format=(string)BGRA, pixel-aspect-ratio=(fraction)1/1",
		CPUCaps().String())
}

func TestBuild_GLPath(t *testing.T) {
	fw := mediatest.NewGLFramework()
	b, appsink, pipeline := newFixture(t, fw)

	inst, err := b.Build(PathGL, appsink, pipeline)
	require.NoError(t, err)

	assert.Equal(t, PathGL, inst.Path)
	require.Len(t, inst.Chain, 2)
	assert.Equal(t, "d3d11download", inst.Chain[0].FactoryName())
	assert.Equal(t, "glsinkbin", inst.Chain[1].FactoryName())

	assert.Equal(t, GLCaps(), appsink.PropertyValue(media.PropertyCaps))
	sinkbin, ok := mediatest.Unwrap(inst.GLSinkBin)
	require.True(t, ok)
	assert.Same(t, appsink, sinkbin.PropertyValue(media.PropertySink))
	assert.Same(t, inst.Bin, pipeline.PropertyValue(media.PropertyVideoSink))

	download, _ := mediatest.Unwrap(inst.Chain[0])
	assert.Equal(t, []media.Element{inst.Chain[1]}, download.Links)

	bin := inst.Bin.(*mediatest.Bin)
	target, ok := bin.GhostPadTarget("sink")
	require.True(t, ok)
	assert.Same(t, inst.Chain[0], target)
	assert.Same(t, inst.GLSinkBin, appsink.Parent(), "glsinkbin owns the appsink on the GL path")
}

func TestBuild_CPUPath(t *testing.T) {
	fw := mediatest.NewFramework("d3d11download", "d3d11convert")
	b, appsink, pipeline := newFixture(t, fw)

	inst, err := b.Build(PathCPU, appsink, pipeline)
	require.NoError(t, err)

	assert.Nil(t, inst.GLSinkBin)
	require.Len(t, inst.Chain, 3)
	assert.Equal(t, "d3d11convert", inst.Chain[0].FactoryName())
	assert.Equal(t, "d3d11download", inst.Chain[1].FactoryName())
	assert.Same(t, appsink, inst.Chain[2])

	assert.Equal(t, CPUCaps(), appsink.PropertyValue(media.PropertyCaps))
	assert.Same(t, inst.Bin, appsink.Parent())
	assert.Same(t, inst.Bin, pipeline.PropertyValue(media.PropertyVideoSink))

	target, ok := inst.Bin.(*mediatest.Bin).GhostPadTarget("sink")
	require.True(t, ok)
	assert.Same(t, inst.Chain[0], target)
}

func TestBuild_FailuresInstallNothing(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		setup func(fw *mediatest.Framework)
	}{
		{"missing glsinkbin", PathGL, func(fw *mediatest.Framework) { fw.Remove("glsinkbin") }},
		{"missing download", PathGL, func(fw *mediatest.Framework) { fw.Remove("d3d11download") }},
		{"missing convert", PathCPU, func(fw *mediatest.Framework) { fw.Remove("d3d11convert") }},
		{"link fails", PathGL, func(fw *mediatest.Framework) { fw.FailLink["d3d11download->glsinkbin"] = true }},
		{"cpu link fails", PathCPU, func(fw *mediatest.Framework) { fw.FailLink["d3d11download->appsink"] = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := mediatest.NewGLFramework()
			b, appsink, pipeline := newFixture(t, fw)
			tt.setup(fw)

			inst, err := b.Build(tt.path, appsink, pipeline)
			assert.Nil(t, inst)
			require.ErrorIs(t, err, media.ErrMissingNativeElement)
			assert.False(t, pipeline.HasProperty(media.PropertyVideoSink), "nothing must be installed")
		})
	}
}

func TestBuild_MissingFactoryLeavesAppSinkUntouched(t *testing.T) {
	fw := mediatest.NewGLFramework()
	b, appsink, pipeline := newFixture(t, fw)
	fw.Remove("glsinkbin")

	_, err := b.Build(PathGL, appsink, pipeline)
	require.ErrorIs(t, err, media.ErrMissingNativeElement)
	assert.False(t, appsink.HasProperty(media.PropertyCaps))
}

func TestBuild_LateFailureDetachesAppSink(t *testing.T) {
	tests := []struct {
		name  string
		path  Path
		setup func(fw *mediatest.Framework, p *mediatest.Pipeline)
		heal  func(fw *mediatest.Framework, p *mediatest.Pipeline)
	}{
		{
			"gl video-sink rejected", PathGL,
			func(_ *mediatest.Framework, p *mediatest.Pipeline) { p.RejectProperties[media.PropertyVideoSink] = true },
			func(_ *mediatest.Framework, p *mediatest.Pipeline) { delete(p.RejectProperties, media.PropertyVideoSink) },
		},
		{
			"cpu video-sink rejected", PathCPU,
			func(_ *mediatest.Framework, p *mediatest.Pipeline) { p.RejectProperties[media.PropertyVideoSink] = true },
			func(_ *mediatest.Framework, p *mediatest.Pipeline) { delete(p.RejectProperties, media.PropertyVideoSink) },
		},
		{
			"gl link fails", PathGL,
			func(fw *mediatest.Framework, _ *mediatest.Pipeline) { fw.FailLink["d3d11download->glsinkbin"] = true },
			func(fw *mediatest.Framework, _ *mediatest.Pipeline) { delete(fw.FailLink, "d3d11download->glsinkbin") },
		},
		{
			"cpu link fails", PathCPU,
			func(fw *mediatest.Framework, _ *mediatest.Pipeline) { fw.FailLink["d3d11download->appsink"] = true },
			func(fw *mediatest.Framework, _ *mediatest.Pipeline) { delete(fw.FailLink, "d3d11download->appsink") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fw := mediatest.NewGLFramework()
			b, appsink, pipeline := newFixture(t, fw)
			tt.setup(fw, pipeline)

			_, err := b.Build(tt.path, appsink, pipeline)
			require.ErrorIs(t, err, media.ErrMissingNativeElement)
			assert.Nil(t, appsink.Parent(), "appsink must not stay in the discarded segment")
			assert.False(t, appsink.HasProperty(media.PropertyCaps), "caps filter is reset")
			assert.False(t, pipeline.HasProperty(media.PropertyVideoSink))

			tt.heal(fw, pipeline)
			inst, err := b.Build(tt.path, appsink, pipeline)
			require.NoError(t, err)
			assert.Same(t, inst.Bin, pipeline.PropertyValue(media.PropertyVideoSink))
			assert.NotNil(t, appsink.Parent())
			assert.Equal(t, CapsFor(tt.path), appsink.PropertyValue(media.PropertyCaps))
		})
	}
}

func TestBuild_CapsRejectedLeavesAppSinkDetached(t *testing.T) {
	fw := mediatest.NewGLFramework()
	b, appsink, pipeline := newFixture(t, fw)
	appsink.RejectProperties[media.PropertyCaps] = true

	_, err := b.Build(PathGL, appsink, pipeline)
	require.ErrorIs(t, err, media.ErrMissingNativeElement)
	assert.Nil(t, appsink.Parent())
	assert.False(t, pipeline.HasProperty(media.PropertyVideoSink))
}

func TestBuild_PipelineWithoutVideoSinkSlot(t *testing.T) {
	fw := mediatest.NewGLFramework()
	b, appsink, pipeline := newFixture(t, fw)
	pipeline.RejectProperties[media.PropertyVideoSink] = true

	_, err := b.Build(PathGL, appsink, pipeline)
	assert.ErrorIs(t, err, media.ErrMissingNativeElement)
}

func TestElementsValidate(t *testing.T) {
	assert.NoError(t, DefaultElements().Validate(PathGL))
	assert.NoError(t, DefaultElements().Validate(PathCPU))

	e := DefaultElements()
	e.Upload = ""
	assert.Error(t, e.Validate(PathGL))
	assert.NoError(t, e.Validate(PathCPU), "upload is only needed on the GL path")

	e = DefaultElements()
	e.Convert = ""
	assert.Error(t, e.Validate(PathCPU))
}
