package media

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// TextureTarget distinguishes a normal 2D texture from an external (OES) sampler
type TextureTarget int

const (
	// TextureNormal is a GL_TEXTURE_2D texture
	TextureNormal TextureTarget = iota
	// TextureExternal is a GL_TEXTURE_EXTERNAL_OES texture
	TextureExternal
)

// String returns a human-readable representation of the target
func (t TextureTarget) String() string {
	switch t {
	case TextureNormal:
		return "2D"
	case TextureExternal:
		return "external-oes"
	default:
		return "unknown"
	}
}

// Buffer is the payload of a VideoFrame. It is a closed set: RawBuffer or TextureBuffer.
type Buffer interface {
	isBuffer()
}

// RawBuffer holds pixel bytes copied out of plane 0 of a CPU-mapped sample.
// Data MUST NOT be modified once the frame is published.
type RawBuffer struct {
	Data []byte
}

// TextureBuffer references a GL texture owned by the pipeline's buffer pool.
type TextureBuffer struct {
	ID     uint32
	Target TextureTarget
}

func (RawBuffer) isBuffer()     {}
func (TextureBuffer) isBuffer() {}

// VideoFrame is an immutable decoded frame ready for the renderer.
//
// Frames are shared between the pipeline side and the renderer: every holder
// calls Retain before keeping it and Release when done. The last Release runs
// the frame's release hook (unmapping GL memory for texture frames).
type VideoFrame struct {
	width   int
	height  int
	buffer  Buffer
	context GLContext

	refs        atomic.Int32
	release     func()
	releaseOnce sync.Once
}

// FrameOption customises NewVideoFrame
type FrameOption func(*VideoFrame)

// WithReleaseHook runs fn once when the last reference is released.
func WithReleaseHook(fn func()) FrameOption {
	return func(f *VideoFrame) { f.release = fn }
}

// WithPipelineContext attaches the pipeline GL context the texture lives in.
func WithPipelineContext(ctx GLContext) FrameOption {
	return func(f *VideoFrame) { f.context = ctx }
}

// NewVideoFrame builds a frame holding one reference.
// Returns ErrMalformedSample for non-positive dimensions or a nil buffer.
func NewVideoFrame(width, height int, buffer Buffer, opts ...FrameOption) (*VideoFrame, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d: %w", width, height, ErrMalformedSample)
	}
	if buffer == nil {
		return nil, fmt.Errorf("nil buffer: %w", ErrMalformedSample)
	}

	f := &VideoFrame{width: width, height: height, buffer: buffer}
	for _, opt := range opts {
		opt(f)
	}
	f.refs.Store(1)
	return f, nil
}

// Width in pixels
func (f *VideoFrame) Width() int { return f.width }

// Height in pixels
func (f *VideoFrame) Height() int { return f.height }

// Buffer returns the payload; switch on its concrete type.
func (f *VideoFrame) Buffer() Buffer { return f.buffer }

// IsTexture reports whether the payload is a GL texture.
func (f *VideoFrame) IsTexture() bool {
	_, ok := f.buffer.(TextureBuffer)
	return ok
}

// PipelineContext returns the pipeline's GL context if it was already negotiated
// when the frame was built.
func (f *VideoFrame) PipelineContext() (GLContext, bool) {
	return f.context, f.context != nil
}

// Retain adds a reference. Retaining a fully released frame is a no-op and returns false.
func (f *VideoFrame) Retain() bool {
	for {
		n := f.refs.Load()
		if n <= 0 {
			return false
		}
		if f.refs.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// Release drops a reference. Extra releases are ignored.
func (f *VideoFrame) Release() {
	for {
		n := f.refs.Load()
		if n <= 0 {
			return
		}
		if f.refs.CompareAndSwap(n, n-1) {
			if n == 1 && f.release != nil {
				f.releaseOnce.Do(f.release)
			}
			return
		}
	}
}

// String is used in debug logs
func (f *VideoFrame) String() string {
	switch b := f.buffer.(type) {
	case TextureBuffer:
		return fmt.Sprintf("%dx%d texture(%d, %s)", f.width, f.height, b.ID, b.Target)
	case RawBuffer:
		return fmt.Sprintf("%dx%d raw(%d bytes)", f.width, f.height, len(b.Data))
	default:
		return fmt.Sprintf("%dx%d", f.width, f.height)
	}
}
