// Package extract turns pulled samples into media.VideoFrame values.
//
// Two paths exist and the caller picks one per bridge: the GL path maps the
// buffer as GL memory and hands out the texture of plane 0, the CPU path copies
// plane 0 into an owned slice. The variant is decided from the caps only.
package extract

import (
	"fmt"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Descriptor is the parsed capability descriptor of a sample
type Descriptor struct {
	MediaType string
	Features  []string
	Format    media.VideoFormat
	Width     int
	Height    int
	// TextureTarget is empty when the caps carry no texture-target field.
	TextureTarget string
}

// GLMemory reports whether the caps advertise GL memory.
func (d Descriptor) GLMemory() bool {
	for _, f := range d.Features {
		if f == media.FeatureGLMemory {
			return true
		}
	}
	return false
}

// Target maps texture-target onto the buffer model; anything but
// "external-oes" is a normal 2D texture.
func (d Descriptor) Target() media.TextureTarget {
	if d.TextureTarget == media.TextureTargetExternalOES {
		return media.TextureExternal
	}
	return media.TextureNormal
}

// ParseDescriptor reads structure 0 of the sample caps.
// Returns ErrMalformedSample when caps, format or dimensions are missing or invalid.
func ParseDescriptor(sample media.Sample) (Descriptor, error) {
	caps, ok := sample.Caps()
	if !ok {
		return Descriptor{}, fmt.Errorf("sample has no caps: %w", media.ErrMalformedSample)
	}

	format, ok := caps.GetString(media.FieldFormat)
	if !ok || format == "" {
		return Descriptor{}, fmt.Errorf("caps %q have no format: %w", caps.MediaType, media.ErrMalformedSample)
	}

	width, wok := caps.GetInt(media.FieldWidth)
	height, hok := caps.GetInt(media.FieldHeight)
	if !wok || !hok {
		return Descriptor{}, fmt.Errorf("caps have no dimensions: %w", media.ErrMalformedSample)
	}
	if width <= 0 || height <= 0 {
		return Descriptor{}, fmt.Errorf("invalid dimensions %dx%d: %w", width, height, media.ErrMalformedSample)
	}

	target, _ := caps.GetString(media.FieldTextureTarget)

	return Descriptor{
		MediaType:     caps.MediaType,
		Features:      caps.Features,
		Format:        media.VideoFormat(format),
		Width:         width,
		Height:        height,
		TextureTarget: target,
	}, nil
}

// Options selects the extraction path
type Options struct {
	// GL selects the zero-copy texture path
	GL bool
	// PipelineContext is attached to texture frames when already known
	PipelineContext media.GLContext
}

// Extract builds a frame from sample. The sample itself is not retained; texture
// frames keep only their own GL mapping, released with the frame.
func Extract(sample media.Sample, opts Options) (*media.VideoFrame, error) {
	desc, err := ParseDescriptor(sample)
	if err != nil {
		return nil, err
	}
	if opts.GL {
		return extractTexture(sample, desc, opts.PipelineContext)
	}
	return extractRaw(sample, desc)
}

func extractTexture(sample media.Sample, desc Descriptor, ctx media.GLContext) (*media.VideoFrame, error) {
	if !desc.Format.ZeroCopyEligible() {
		return nil, fmt.Errorf("format %s is not eligible for zero-copy: %w", desc.Format, media.ErrUnsupportedFormat)
	}

	mapping, err := sample.Map(media.MapGL)
	if err != nil {
		return nil, fmt.Errorf("map GL memory: %v: %w", err, media.ErrMalformedSample)
	}

	if n := mapping.NumPlanes(); n != 1 {
		mapping.Unmap()
		return nil, fmt.Errorf("GL mapping has %d planes: %w", n, media.ErrUnsupportedFormat)
	}

	id, err := mapping.TextureID(0)
	if err != nil {
		mapping.Unmap()
		return nil, fmt.Errorf("read texture id: %v: %w", err, media.ErrMalformedSample)
	}
	if id == 0 {
		mapping.Unmap()
		return nil, fmt.Errorf("texture id 0: %w", media.ErrMalformedSample)
	}

	opts := []media.FrameOption{media.WithReleaseHook(mapping.Unmap)}
	if ctx != nil {
		opts = append(opts, media.WithPipelineContext(ctx))
	}

	frame, err := media.NewVideoFrame(desc.Width, desc.Height,
		media.TextureBuffer{ID: id, Target: desc.Target()}, opts...)
	if err != nil {
		mapping.Unmap()
		return nil, err
	}
	return frame, nil
}

func extractRaw(sample media.Sample, desc Descriptor) (*media.VideoFrame, error) {
	mapping, err := sample.Map(media.MapCPU)
	if err != nil {
		return nil, fmt.Errorf("map buffer: %v: %w", err, media.ErrMalformedSample)
	}
	defer mapping.Unmap()

	if mapping.NumPlanes() < 1 {
		return nil, fmt.Errorf("buffer has no planes: %w", media.ErrMalformedSample)
	}
	plane, err := mapping.PlaneData(0)
	if err != nil {
		return nil, fmt.Errorf("read plane 0: %v: %w", err, media.ErrMalformedSample)
	}

	// Copy out: plane memory belongs to the buffer pool and is invalid after Unmap
	data := make([]byte, len(plane))
	copy(data, plane)

	return media.NewVideoFrame(desc.Width, desc.Height, media.RawBuffer{Data: data})
}
