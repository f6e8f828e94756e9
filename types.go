package renderbridge

import (
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/bridge"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/sink"
)

// Bridge is a GL or dummy render bridge
type Bridge = bridge.Bridge

// VideoFrame is a refcounted decoded frame
type VideoFrame = media.VideoFrame

// Buffer is either a RawBuffer or a TextureBuffer
type Buffer = media.Buffer

type (
	RawBuffer     = media.RawBuffer
	TextureBuffer = media.TextureBuffer
	TextureTarget = media.TextureTarget
)

const (
	TextureNormal   = media.TextureNormal
	TextureExternal = media.TextureExternal
)

// GLContextProvider is implemented by the application owning the GL context
type GLContextProvider = media.GLContextProvider

type (
	NativeDisplay = media.NativeDisplay
	NativeContext = media.NativeContext
	DisplayKind   = media.DisplayKind
	ContextKind   = media.ContextKind
	GLAPI         = media.GLAPI
)

const (
	DisplayUnknown = media.DisplayUnknown
	DisplayEGL     = media.DisplayEGL
	DisplayX11     = media.DisplayX11
	DisplayWayland = media.DisplayWayland

	ContextUnknown = media.ContextUnknown
	ContextEGL     = media.ContextEGL
	ContextGLX     = media.ContextGLX

	GLAPINone    = media.GLAPINone
	GLAPIOpenGL  = media.GLAPIOpenGL
	GLAPIOpenGL3 = media.GLAPIOpenGL3
	GLAPIGLES1   = media.GLAPIGLES1
	GLAPIGLES2   = media.GLAPIGLES2
)

// Framework port types. The zero Config uses the GStreamer implementation.
type (
	Framework = media.Framework
	GL        = media.GL
	Pipeline  = media.Pipeline
	AppSink   = media.AppSink
	Sample    = media.Sample
)

// Elements are the factory names making up the sink
type Elements = sink.Elements

// DefaultElements returns d3d11download, d3d11convert, glsinkbin, glupload and appsink.
func DefaultElements() Elements { return sink.DefaultElements() }
