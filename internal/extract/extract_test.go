package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/mediatest"
)

func TestExtract_TextureTargets(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   media.TextureTarget
	}{
		{"2D", media.TextureTarget2D, media.TextureNormal},
		{"external-oes", media.TextureTargetExternalOES, media.TextureExternal},
		{"missing target", "", media.TextureNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sample := mediatest.GLSample(media.FormatRGBA, 320, 240, tt.target, 7)

			frame, err := Extract(sample, Options{GL: true})
			require.NoError(t, err)

			assert.Equal(t, 320, frame.Width())
			assert.Equal(t, 240, frame.Height())
			tex, ok := frame.Buffer().(media.TextureBuffer)
			require.True(t, ok, "expected texture buffer, got %T", frame.Buffer())
			assert.Equal(t, uint32(7), tex.ID)
			assert.Equal(t, tt.want, tex.Target)
		})
	}
}

func TestExtract_GLRejectsIneligibleFormats(t *testing.T) {
	formats := []media.VideoFormat{
		media.FormatNV12, media.FormatI420, media.FormatYV12, media.FormatP010,
		media.FormatY444, media.FormatBGRA, media.FormatYUY2, "WEIRD",
	}

	for _, format := range formats {
		t.Run(string(format), func(t *testing.T) {
			sample := mediatest.GLSample(format, 64, 64, media.TextureTarget2D, 3)

			frame, err := Extract(sample, Options{GL: true})
			assert.Nil(t, frame)
			assert.ErrorIs(t, err, media.ErrUnsupportedFormat)
			assert.Zero(t, sample.Outstanding(), "rejected sample must not stay mapped")
		})
	}
}

func TestExtract_TextureFrameHoldsMappingUntilRelease(t *testing.T) {
	sample := mediatest.GLSample(media.FormatRGBA, 64, 64, media.TextureTarget2D, 11)

	frame, err := Extract(sample, Options{GL: true})
	require.NoError(t, err)
	assert.Equal(t, 1, sample.Outstanding())

	require.True(t, frame.Retain())
	frame.Release()
	assert.Equal(t, 1, sample.Outstanding(), "mapping must survive while a reference is held")

	frame.Release()
	assert.Zero(t, sample.Outstanding())

	frame.Release()
	assert.Equal(t, 1, sample.Unmaps(), "extra release must not unmap twice")
}

func TestExtract_PipelineContextMetadata(t *testing.T) {
	ctx := mediatest.NewContext(0xbeef)

	frame, err := Extract(mediatest.GLSample(media.FormatRGBA, 8, 8, "", 1), Options{GL: true, PipelineContext: ctx})
	require.NoError(t, err)
	got, ok := frame.PipelineContext()
	require.True(t, ok)
	assert.Equal(t, uintptr(0xbeef), got.Native())

	frame, err = Extract(mediatest.GLSample(media.FormatRGBA, 8, 8, "", 1), Options{GL: true})
	require.NoError(t, err)
	_, ok = frame.PipelineContext()
	assert.False(t, ok)
}

func TestExtract_RawCopiesPlaneZero(t *testing.T) {
	plane := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	sample := mediatest.RawSample(media.FormatBGRA, 2, 1, plane)
	sample.Planes = append(sample.Planes, []byte{9, 9})

	frame, err := Extract(sample, Options{})
	require.NoError(t, err)

	raw, ok := frame.Buffer().(media.RawBuffer)
	require.True(t, ok)
	assert.Equal(t, plane, raw.Data)
	assert.False(t, frame.IsTexture())
	assert.Zero(t, sample.Outstanding(), "CPU mapping must be released immediately")

	// Owned copy: mutating the source must not leak into the frame
	plane[0] = 42
	assert.Equal(t, byte(1), raw.Data[0])
}

func TestExtract_Malformed(t *testing.T) {
	noFormat := mediatest.NewSample(media.Caps{
		MediaType: media.MediaTypeRawVideo,
		Fields:    map[string]any{media.FieldWidth: 4, media.FieldHeight: 4},
	})
	mapFails := mediatest.RawSample(media.FormatBGRA, 4, 4, make([]byte, 64))
	mapFails.MapErr = mediatest.ErrInjected
	noPlanes := mediatest.RawSample(media.FormatBGRA, 4, 4, nil)
	noPlanes.Planes = nil

	tests := []struct {
		name   string
		sample media.Sample
		gl     bool
	}{
		{"no caps", mediatest.NewCapslessSample(), false},
		{"no format", noFormat, false},
		{"zero width", mediatest.RawSample(media.FormatBGRA, 0, 4, nil), false},
		{"negative height", mediatest.GLSample(media.FormatRGBA, 4, -1, "", 1), true},
		{"map fails", mapFails, false},
		{"no planes", noPlanes, false},
		{"texture id zero", mediatest.GLSample(media.FormatRGBA, 4, 4, "", 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Extract(tt.sample, Options{GL: tt.gl})
			assert.Nil(t, frame)
			assert.ErrorIs(t, err, media.ErrMalformedSample)
			assert.Equal(t, media.KindMalformedSample, media.Classify(err))
		})
	}
}

func TestParseDescriptor(t *testing.T) {
	sample := mediatest.GLSample(media.FormatRGBA, 1920, 1080, media.TextureTargetExternalOES, 5)

	desc, err := ParseDescriptor(sample)
	require.NoError(t, err)

	assert.Equal(t, media.MediaTypeRawVideo, desc.MediaType)
	assert.True(t, desc.GLMemory())
	assert.Equal(t, media.FormatRGBA, desc.Format)
	assert.Equal(t, 1920, desc.Width)
	assert.Equal(t, 1080, desc.Height)
	assert.Equal(t, media.TextureExternal, desc.Target())
}
