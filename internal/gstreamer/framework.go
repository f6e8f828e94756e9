// Package gstreamer implements the media port on GStreamer.
//
// Elements, bins, the appsink and the bus go through go-gst. The GL
// integration (GstGLDisplay/GstGLContext, GstContext), iterator resync, ghost
// pads, video frame mapping and the bus sync handler go through small C
// helpers against gstreamer-gl/gstreamer-video, which go-gst does not bind.
package gstreamer

/*
#cgo pkg-config: gstreamer-1.0 gstreamer-video-1.0 gstreamer-gl-1.0 gstreamer-app-1.0
#include <stdlib.h>
#include "helpers.h"
*/
import "C"

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

var initOnce sync.Once

// Init initialises GStreamer. Safe to call multiple times.
func Init() {
	initOnce.Do(func() { gst.Init(nil) })
}

// Framework is the GStreamer media.Framework
type Framework struct{}

// NewFramework initialises GStreamer and returns the framework.
func NewFramework() *Framework {
	Init()
	return &Framework{}
}

func (f *Framework) HasElementFactory(name string) bool {
	return gst.Find(name) != nil
}

func (f *Framework) NewElement(factory, name string) (media.Element, error) {
	var el *gst.Element
	var err error
	if name == "" {
		el, err = gst.NewElement(factory)
	} else {
		el, err = gst.NewElementWithName(factory, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", factory, err)
	}
	return wrap(el), nil
}

func (f *Framework) NewBin(name string) (media.Bin, error) {
	bin := gst.NewBin(name)
	if bin == nil {
		return nil, fmt.Errorf("failed to create bin %q", name)
	}
	return &Bin{Element: &Element{el: bin.Element}}, nil
}

func (f *Framework) NewAppSink(factory, name string) (media.AppSink, error) {
	el, err := f.NewElement(factory, name)
	if err != nil {
		return nil, err
	}
	inner := el.(*Element)
	var sink *app.Sink
	if C.rb_element_is_app_sink(inner.native()) != 0 {
		sink = app.SinkFromElement(inner.el)
	}
	if sink == nil {
		return nil, fmt.Errorf("%s does not create an appsink", factory)
	}
	return &AppSink{Element: inner, sink: sink}, nil
}

// NewPipeline creates a top-level element of factory ("playbin", "pipeline").
func (f *Framework) NewPipeline(factory, name string) (media.Pipeline, error) {
	el, err := f.NewElement(factory, name)
	if err != nil {
		return nil, err
	}
	inner := el.(*Element)
	if !inner.isBin() {
		return nil, fmt.Errorf("%s is not a pipeline", factory)
	}
	return &Pipeline{Bin: &Bin{Element: inner}}, nil
}

// gstring copies a borrowed gchar string.
func gstring(s *C.gchar) string {
	return C.GoString((*C.char)(unsafe.Pointer(s)))
}

// newGString allocates a C copy of s; release it with freeGString.
func newGString(s string) *C.gchar {
	return (*C.gchar)(unsafe.Pointer(C.CString(s)))
}

func freeGString(s *C.gchar) {
	C.free(unsafe.Pointer(s))
}
