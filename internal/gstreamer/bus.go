package gstreamer

/*
#include <stdint.h>
#include "helpers.h"
*/
import "C"

import (
	"runtime/cgo"
	"time"
	"unsafe"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Bus wraps a *gst.Bus
type Bus struct {
	bus *gst.Bus
}

func (b *Bus) native() *C.GstBus {
	return (*C.GstBus)(unsafe.Pointer(b.bus.Instance()))
}

// SetSyncHandler installs h with gst_bus_set_sync_handler. h runs on the
// posting thread; it must not block. A nil h removes the handler.
func (b *Bus) SetSyncHandler(h media.SyncHandler) {
	if h == nil {
		C.rb_bus_clear_sync_handler(b.native())
		return
	}
	handle := cgo.NewHandle(h)
	C.rb_bus_set_sync_handler(b.native(), C.uintptr_t(handle))
}

func (b *Bus) TimedPop(timeout time.Duration) (media.Message, bool) {
	msg := b.bus.TimedPop(timeout)
	if msg == nil {
		return nil, false
	}
	return newMessage((*C.GstMessage)(unsafe.Pointer(msg.Instance()))), true
}

//export goRenderBridgeBusSync
func goRenderBridgeBusSync(msg *C.GstMessage, handle C.uintptr_t) C.gint {
	h, ok := cgo.Handle(handle).Value().(media.SyncHandler)
	if !ok {
		return C.gint(C.GST_BUS_PASS)
	}
	if h(newMessage(msg)) == media.BusDrop {
		return C.gint(C.GST_BUS_DROP)
	}
	return C.gint(C.GST_BUS_PASS)
}

//export goRenderBridgeBusRelease
func goRenderBridgeBusRelease(handle C.uintptr_t) {
	cgo.Handle(handle).Delete()
}

// message is a snapshot of the fields the bridge reads, taken while the
// GstMessage is valid.
type message struct {
	kind    media.MessageKind
	srcName string
	src     *Element
	ctxType string
	hasCtx  bool
	text    string
	debug   string
	hasText bool
}

func newMessage(msg *C.GstMessage) *message {
	m := &message{kind: toKind(C.rb_message_type(msg))}

	if name := C.rb_message_src_name(msg); name != nil {
		m.srcName = gstring(name)
	}
	if el := C.rb_message_src_element(msg); el != nil {
		m.src = wrap(gst.FromGstElementUnsafeNone(unsafe.Pointer(el)))
	}

	switch m.kind {
	case media.MessageNeedContext:
		if t := C.rb_message_context_type(msg); t != nil {
			m.ctxType, m.hasCtx = gstring(t), true
		}
	case media.MessageError, media.MessageWarning:
		var text, debug *C.gchar
		if C.rb_message_parse_error(msg, &text, &debug) != 0 {
			m.hasText = true
			if text != nil {
				m.text = gstring(text)
				C.g_free(C.gpointer(unsafe.Pointer(text)))
			}
			if debug != nil {
				m.debug = gstring(debug)
				C.g_free(C.gpointer(unsafe.Pointer(debug)))
			}
		}
	}
	return m
}

func toKind(t C.gint) media.MessageKind {
	switch C.GstMessageType(t) {
	case C.GST_MESSAGE_EOS:
		return media.MessageEOS
	case C.GST_MESSAGE_ERROR:
		return media.MessageError
	case C.GST_MESSAGE_WARNING:
		return media.MessageWarning
	case C.GST_MESSAGE_STATE_CHANGED:
		return media.MessageStateChanged
	case C.GST_MESSAGE_NEED_CONTEXT:
		return media.MessageNeedContext
	default:
		return media.MessageOther
	}
}

func (m *message) Kind() media.MessageKind { return m.kind }
func (m *message) SourceName() string      { return m.srcName }

func (m *message) Source() (media.Element, bool) {
	if m.src == nil {
		return nil, false
	}
	return m.src, true
}

func (m *message) ContextType() (string, bool) { return m.ctxType, m.hasCtx }

func (m *message) ErrorText() (string, string, bool) { return m.text, m.debug, m.hasText }
