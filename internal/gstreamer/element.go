package gstreamer

/*
#include "helpers.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Element wraps a *gst.Element
type Element struct {
	el *gst.Element
}

func wrap(el *gst.Element) *Element { return &Element{el: el} }

// GstElement returns the underlying go-gst element.
func (e *Element) GstElement() *gst.Element { return e.el }

func (e *Element) native() *C.GstElement {
	return (*C.GstElement)(unsafe.Pointer(e.el.Instance()))
}

func (e *Element) isBin() bool {
	return C.rb_element_is_bin(e.native()) != 0
}

func (e *Element) Name() string { return e.el.GetName() }

func (e *Element) FactoryName() string {
	factory := e.el.GetFactory()
	if factory == nil {
		return ""
	}
	return factory.GetName()
}

// SetProperty translates media values: CapsSpec becomes GstCaps, elements are
// set as GObject values and nil resets the property to its default.
func (e *Element) SetProperty(name string, value any) error {
	switch v := value.(type) {
	case nil:
		cname := newGString(name)
		defer freeGString(cname)
		if C.rb_object_reset_property((*C.GObject)(unsafe.Pointer(e.native())), cname) == 0 {
			return fmt.Errorf("%s has no writable property %q", e.Name(), name)
		}
		return nil
	case media.CapsSpec:
		caps := gst.NewCapsFromString(v.String())
		if caps == nil {
			return fmt.Errorf("invalid caps %q", v.String())
		}
		return e.el.SetProperty(name, caps)
	case media.Element:
		other, ok := unwrap(v)
		if !ok {
			return media.ErrForeignObject
		}
		cname := newGString(name)
		defer freeGString(cname)
		if C.rb_object_set_object((*C.GObject)(unsafe.Pointer(e.native())), cname,
			(*C.GObject)(unsafe.Pointer(other.native()))) == 0 {
			return fmt.Errorf("%s has no object property %q", e.Name(), name)
		}
		return nil
	default:
		return e.el.SetProperty(name, value)
	}
}

func (e *Element) Property(name string) (any, error) {
	return e.el.GetProperty(name)
}

func (e *Element) Link(dst media.Element) error {
	other, ok := unwrap(dst)
	if !ok {
		return media.ErrForeignObject
	}
	return e.el.Link(other.el)
}

func (e *Element) AsBin() (media.Bin, bool) {
	if !e.isBin() {
		return nil, false
	}
	return &Bin{Element: e}, true
}

func (e *Element) base() *Element { return e }

type baser interface{ base() *Element }

func unwrap(el media.Element) (*Element, bool) {
	b, ok := el.(baser)
	if !ok {
		return nil, false
	}
	return b.base(), true
}

// Bin wraps a GstBin
type Bin struct {
	*Element
}

func (b *Bin) AsBin() (media.Bin, bool) { return b, true }

func (b *Bin) Add(elems ...media.Element) error {
	for _, el := range elems {
		child, ok := unwrap(el)
		if !ok {
			return media.ErrForeignObject
		}
		if C.rb_bin_add(b.native(), child.native()) == 0 {
			return fmt.Errorf("failed to add %s to %s", child.Name(), b.Name())
		}
	}
	return nil
}

func (b *Bin) Remove(elems ...media.Element) error {
	for _, el := range elems {
		child, ok := unwrap(el)
		if !ok {
			return media.ErrForeignObject
		}
		if C.rb_bin_remove(b.native(), child.native()) == 0 {
			return fmt.Errorf("%s is not a child of %s", child.Name(), b.Name())
		}
	}
	return nil
}

func (b *Bin) AddGhostSinkPad(name string, target media.Element) error {
	t, ok := unwrap(target)
	if !ok {
		return media.ErrForeignObject
	}
	cname := newGString(name)
	defer freeGString(cname)
	if C.rb_bin_add_ghost_sink(b.native(), cname, t.native()) == 0 {
		return fmt.Errorf("failed to ghost %s sink pad on %s", t.Name(), b.Name())
	}
	return nil
}

func (b *Bin) NumChildren() int {
	return int(C.rb_bin_num_children(b.native()))
}

func (b *Bin) IterateElements() media.ElementIterator {
	return &iterator{it: C.rb_bin_iterate_elements(b.native())}
}

type iterator struct {
	it *C.GstIterator
}

var errIterator = errors.New("iterator error")

func (i *iterator) Next() (media.Element, error) {
	if i.it == nil {
		return nil, media.ErrIteratorDone
	}
	var out *C.GstElement
	switch C.rb_iterator_next_element(i.it, &out) {
	case C.GST_ITERATOR_OK:
		return wrap(gst.FromGstElementUnsafeFull(unsafe.Pointer(out))), nil
	case C.GST_ITERATOR_RESYNC:
		return nil, media.ErrIteratorResync
	case C.GST_ITERATOR_DONE:
		return nil, media.ErrIteratorDone
	default:
		return nil, errIterator
	}
}

func (i *iterator) Resync() {
	if i.it != nil {
		C.rb_iterator_resync(i.it)
	}
}

func (i *iterator) Close() {
	if i.it != nil {
		C.rb_iterator_free(i.it)
		i.it = nil
	}
}

// AppSink wraps an app.Sink
type AppSink struct {
	*Element
	sink *app.Sink
}

// OnNewSample registers fn as the new-sample callback. A failed pull is
// skipped (FlowOK) so one bad buffer does not stop the stream.
func (s *AppSink) OnNewSample(fn func(media.Sample) media.FlowReturn) {
	s.sink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			sample := sink.PullSample()
			if sample == nil {
				return gst.FlowOK
			}
			switch fn(&Sample{sample: sample}) {
			case media.FlowEOS:
				return gst.FlowEOS
			case media.FlowError:
				return gst.FlowError
			default:
				return gst.FlowOK
			}
		},
	})
}

// Release stops the appsink. A NULL appsink pulls no samples, so the
// registered callback never runs again.
func (s *AppSink) Release() {
	if err := s.el.SetState(gst.StateNull); err != nil {
		slog.Debug("render-bridge: appsink did not reach NULL", "appsink", s.Name(), "error", err)
	}
}

// Pipeline wraps playbin (or any GstPipeline)
type Pipeline struct {
	*Bin
}

func (p *Pipeline) Bus() (media.Bus, error) {
	bus := p.el.GetBus()
	if bus == nil {
		return nil, fmt.Errorf("%s has no bus", p.Name())
	}
	return &Bus{bus: bus}, nil
}

func (p *Pipeline) SetState(s media.State) error {
	return p.el.SetState(toGstState(s))
}

func toGstState(s media.State) gst.State {
	switch s {
	case media.StateReady:
		return gst.StateReady
	case media.StatePaused:
		return gst.StatePaused
	case media.StatePlaying:
		return gst.StatePlaying
	default:
		return gst.StateNull
	}
}
