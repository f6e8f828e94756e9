// Package media holds the bridge's domain model (frames, buffers, formats, caps,
// errors) and the port to the pipeline framework.
//
// The port is deliberately small: it names only what the bridge touches on the
// framework (factories, properties, bins, ghost pads, the bus sync handler, GL
// context plumbing and frame mapping). internal/gstreamer implements it on top of
// go-gst; internal/mediatest implements it in memory for tests.
package media

import "time"

// Property names and context types that make up the wire contract with GStreamer.
const (
	PropertyCaps      = "caps"
	PropertySink      = "sink"
	PropertyVideoSink = "video-sink"
	PropertyContext   = "context"

	// DisplayContextType is GST_GL_DISPLAY_CONTEXT_TYPE
	DisplayContextType = "gst.gl.GLDisplay"
	// AppContextType is the context type glsinkbin asks for to share the app's GL context
	AppContextType = "gst.gl.app_context"
)

// Element is a pipeline element.
type Element interface {
	Name() string
	// FactoryName is the name of the factory the element was created from ("" if unknown).
	FactoryName() string
	SetProperty(name string, value any) error
	Property(name string) (any, error)
	// Link links this element's src pad to dst's sink pad.
	Link(dst Element) error
	// AsBin returns the element as a bin when it is one.
	AsBin() (Bin, bool)
}

// ElementIterator walks a bin's children. Next returns ErrIteratorDone at the end
// and ErrIteratorResync when the children changed; after Resync the walk starts over.
type ElementIterator interface {
	Next() (Element, error)
	Resync()
	Close()
}

// Bin is an element containing other elements.
type Bin interface {
	Element
	Add(elems ...Element) error
	// Remove unparents elems and unlinks their pads.
	Remove(elems ...Element) error
	// AddGhostSinkPad exposes target's static "sink" pad on the bin under name.
	AddGhostSinkPad(name string, target Element) error
	NumChildren() int
	IterateElements() ElementIterator
}

// FlowReturn is what a new-sample callback reports to the streaming thread
type FlowReturn int

const (
	FlowOK FlowReturn = iota
	FlowEOS
	FlowError
)

// AppSink is the application pull point.
type AppSink interface {
	Element
	// OnNewSample registers fn for every sample; at most one callback is kept.
	OnNewSample(fn func(Sample) FlowReturn)
	// Release sets the appsink to NULL; its callback never runs afterwards.
	// The appsink must not be used again.
	Release()
}

// State mirrors GstState
type State int

const (
	StateNull State = iota
	StateReady
	StatePaused
	StatePlaying
)

// Pipeline is a top-level element with a bus (playbin in practice).
type Pipeline interface {
	Element
	Bus() (Bus, error)
	SetState(State) error
}

// BusSyncReply is the verdict of a sync handler
type BusSyncReply int

const (
	BusPass BusSyncReply = iota
	BusDrop
)

// SyncHandler runs on the posting thread before any asynchronous dispatch.
type SyncHandler func(Message) BusSyncReply

// Bus is a pipeline message bus.
type Bus interface {
	// SetSyncHandler replaces the bus's sync handler.
	SetSyncHandler(SyncHandler)
	// TimedPop waits up to timeout for the next message.
	TimedPop(timeout time.Duration) (Message, bool)
}

// MessageKind is the subset of GstMessageType the bridge distinguishes
type MessageKind int

const (
	MessageOther MessageKind = iota
	MessageEOS
	MessageError
	MessageWarning
	MessageStateChanged
	MessageNeedContext
)

// String returns a human-readable kind
func (k MessageKind) String() string {
	switch k {
	case MessageEOS:
		return "eos"
	case MessageError:
		return "error"
	case MessageWarning:
		return "warning"
	case MessageStateChanged:
		return "state-changed"
	case MessageNeedContext:
		return "need-context"
	default:
		return "other"
	}
}

// Message is a bus message.
type Message interface {
	Kind() MessageKind
	SourceName() string
	// Source is the posting element, false when the source is not an element.
	Source() (Element, bool)
	// ContextType is set for MessageNeedContext.
	ContextType() (string, bool)
	// ErrorText is set for MessageError and MessageWarning.
	ErrorText() (text, debug string, ok bool)
}

// MapMode selects how a sample's buffer is mapped
type MapMode int

const (
	// MapCPU maps system memory readable
	MapCPU MapMode = iota
	// MapGL maps GL memory so plane data holds texture ids
	MapGL
)

// VideoMapping is a mapped video buffer. Unmap releases it; it is safe to call once.
type VideoMapping interface {
	NumPlanes() int
	// PlaneData is valid until Unmap (CPU mappings).
	PlaneData(plane int) ([]byte, error)
	// TextureID is the GL texture backing plane (GL mappings).
	TextureID(plane int) (uint32, error)
	Unmap()
}

// Sample is a pulled sample: caps plus one buffer.
type Sample interface {
	Caps() (Caps, bool)
	// Map maps the buffer using the sample's caps. The mapping holds its own
	// buffer reference, so it may outlive the sample.
	Map(mode MapMode) (VideoMapping, error)
}

// Framework creates elements.
type Framework interface {
	HasElementFactory(name string) bool
	NewElement(factory, name string) (Element, error)
	NewBin(name string) (Bin, error)
	// NewAppSink creates an application pull point from factory, which must
	// produce a GstAppSink.
	NewAppSink(factory, name string) (AppSink, error)
	NewPipeline(factory, name string) (Pipeline, error)
}

// GLDisplay is a wrapped GL display (GstGLDisplay).
type GLDisplay interface {
	Release()
}

// GLContext is a wrapped GL context (GstGLContext).
type GLContext interface {
	// Native returns the platform handle (EGLContext, ...).
	Native() uintptr
	Activate(active bool) error
	FillInfo() error
	Release()
}

// GLPlatform mirrors GstGLPlatform
type GLPlatform int

const (
	GLPlatformNone GLPlatform = iota
	GLPlatformEGL
	GLPlatformGLX
)

// GL is the GL integration of the framework.
type GL interface {
	NewEGLDisplay(handle uintptr) (GLDisplay, error)
	WrapContext(display GLDisplay, handle uintptr, platform GLPlatform, api GLAPI) (GLContext, error)
	// SetDisplayContext attaches a display context of DisplayContextType to el.
	SetDisplayContext(el Element, display GLDisplay) error
	// SetAppContext attaches a context of contextType whose "context" field is ctx.
	SetAppContext(el Element, contextType string, ctx GLContext) error
	// ElementContext reads an element's "context" property as a GL context.
	ElementContext(el Element) (GLContext, bool)
}
