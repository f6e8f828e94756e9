package mediatest

import (
	"fmt"
	"sync"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// AttachedContext records a context set on an element
type AttachedContext struct {
	Type    string
	Display media.GLDisplay
	Context media.GLContext
}

// Element is an in-memory media.Element.
type Element struct {
	mu        sync.Mutex
	framework *Framework
	name      string
	factory   string
	props     map[string]any
	parent    *Bin

	// RejectProperties makes SetProperty fail for the listed names.
	RejectProperties map[string]bool
	Links            []media.Element
	Contexts         []AttachedContext
}

func newElement(f *Framework, factory, name string) *Element {
	return &Element{
		framework:        f,
		name:             name,
		factory:          factory,
		props:            map[string]any{},
		RejectProperties: map[string]bool{},
	}
}

// NewElement builds a detached element (no framework).
func NewElement(factory, name string) *Element {
	return newElement(nil, factory, name)
}

func (e *Element) base() *Element { return e }

func (e *Element) Name() string        { return e.name }
func (e *Element) FactoryName() string { return e.factory }

func (e *Element) SetProperty(name string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.RejectProperties[name] {
		return fmt.Errorf("element %s has no property %q", e.name, name)
	}
	if value == nil {
		delete(e.props, name)
		return nil
	}
	e.props[name] = value
	return nil
}

func (e *Element) Property(name string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.props[name]
	if !ok {
		return nil, fmt.Errorf("element %s: property %q not set", e.name, name)
	}
	return v, nil
}

// PropertyValue returns a property without the error (nil if unset).
func (e *Element) PropertyValue(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props[name]
}

// HasProperty reports whether name was ever set.
func (e *Element) HasProperty(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.props[name]
	return ok
}

func (e *Element) Link(dst media.Element) error {
	if e.framework != nil {
		e.framework.mu.Lock()
		fail := e.framework.FailLink[e.factory+"->"+dst.FactoryName()]
		e.framework.mu.Unlock()
		if fail {
			return fmt.Errorf("could not link %s to %s", e.name, dst.Name())
		}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Links = append(e.Links, dst)
	return nil
}

func (e *Element) AsBin() (media.Bin, bool) { return nil, false }

// AttachedContexts returns a copy of the contexts set on the element.
func (e *Element) AttachedContexts() []AttachedContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]AttachedContext(nil), e.Contexts...)
}

// Parent returns the bin the element was added to.
func (e *Element) Parent() *Bin {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.parent
}

func (e *Element) attach(c AttachedContext) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Contexts = append(e.Contexts, c)
}

type baser interface{ base() *Element }

// Unwrap returns the in-memory element behind el.
func Unwrap(el media.Element) (*Element, bool) {
	b, ok := el.(baser)
	if !ok {
		return nil, false
	}
	return b.base(), true
}

// Bin is an in-memory media.Bin. ResyncFaults makes the next walks fail with
// ErrIteratorResync after the first child, once per fault; PersistentResync
// makes every walk fault.
type Bin struct {
	*Element
	children  []media.Element
	ghostPads map[string]media.Element

	ResyncFaults     int
	PersistentResync bool
	// Walks counts how many times a walk started (initial + every resync).
	Walks int
}

func newBin(f *Framework, factory, name string) *Bin {
	return &Bin{Element: newElement(f, factory, name), ghostPads: map[string]media.Element{}}
}

// NewBin builds a detached bin holding children.
func NewBin(name string, children ...media.Element) *Bin {
	b := newBin(nil, "bin", name)
	b.children = append(b.children, children...)
	return b
}

func (b *Bin) AsBin() (media.Bin, bool) { return b, true }

// SetProperty takes a "sink" element as a child, the way glsinkbin does.
func (b *Bin) SetProperty(name string, value any) error {
	el, isSink := value.(media.Element)
	if name != media.PropertySink || !isSink {
		return b.Element.SetProperty(name, value)
	}
	inner, ok := Unwrap(el)
	if !ok {
		return fmt.Errorf("bin %s: foreign element %s", b.name, el.Name())
	}
	if p := inner.Parent(); p != nil {
		return fmt.Errorf("bin %s: element %s already has parent %s", b.name, el.Name(), p.Name())
	}
	if err := b.Element.SetProperty(name, value); err != nil {
		return err
	}
	return b.Add(el)
}

func (b *Bin) Add(elems ...media.Element) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, el := range elems {
		inner, ok := Unwrap(el)
		if !ok {
			return fmt.Errorf("bin %s: foreign element %s", b.name, el.Name())
		}
		if p := inner.Parent(); p != nil {
			return fmt.Errorf("bin %s: element %s already has parent %s", b.name, el.Name(), p.Name())
		}
		inner.mu.Lock()
		inner.parent = b
		inner.mu.Unlock()
		b.children = append(b.children, el)
	}
	return nil
}

func (b *Bin) Remove(elems ...media.Element) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, el := range elems {
		inner, ok := Unwrap(el)
		if !ok {
			return fmt.Errorf("bin %s: foreign element %s", b.name, el.Name())
		}
		idx := -1
		for i, child := range b.children {
			if child == el {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("bin %s: %s is not a child", b.name, el.Name())
		}
		b.children = append(b.children[:idx], b.children[idx+1:]...)
		for pad, target := range b.ghostPads {
			if target == el {
				delete(b.ghostPads, pad)
			}
		}
		inner.mu.Lock()
		inner.parent = nil
		inner.mu.Unlock()
	}
	return nil
}

func (b *Bin) AddGhostSinkPad(name string, target media.Element) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	found := false
	for _, child := range b.children {
		if child == target {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("bin %s: ghost target %s is not a child", b.name, target.Name())
	}
	if _, dup := b.ghostPads[name]; dup {
		return fmt.Errorf("bin %s: pad %q exists", b.name, name)
	}
	b.ghostPads[name] = target
	return nil
}

// GhostPadTarget returns the element a ghost pad points at.
func (b *Bin) GhostPadTarget(name string) (media.Element, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	el, ok := b.ghostPads[name]
	return el, ok
}

// Children returns a copy of the bin's children.
func (b *Bin) Children() []media.Element {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]media.Element(nil), b.children...)
}

func (b *Bin) NumChildren() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.children)
}

func (b *Bin) IterateElements() media.ElementIterator {
	it := &iterator{bin: b}
	it.start()
	return it
}

type iterator struct {
	bin     *Bin
	pos     int
	faulty  bool
	closed  bool
	snapped []media.Element
}

func (it *iterator) start() {
	b := it.bin
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Walks++
	it.pos = 0
	it.snapped = append([]media.Element(nil), b.children...)
	it.faulty = b.PersistentResync
	if !it.faulty && b.ResyncFaults > 0 {
		b.ResyncFaults--
		it.faulty = true
	}
}

func (it *iterator) Next() (media.Element, error) {
	if it.closed {
		return nil, media.ErrIteratorDone
	}
	if it.faulty && it.pos == 1 {
		return nil, media.ErrIteratorResync
	}
	if it.pos >= len(it.snapped) {
		return nil, media.ErrIteratorDone
	}
	el := it.snapped[it.pos]
	it.pos++
	return el, nil
}

func (it *iterator) Resync() { it.start() }
func (it *iterator) Close()  { it.closed = true }

// AppSink is an in-memory media.AppSink.
type AppSink struct {
	*Element
	cbMu     sync.Mutex
	callback func(media.Sample) media.FlowReturn
	released bool
}

func (s *AppSink) Release() {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callback = nil
	s.released = true
}

// Released reports whether Release was called.
func (s *AppSink) Released() bool {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.released
}

func (s *AppSink) OnNewSample(fn func(media.Sample) media.FlowReturn) {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	s.callback = fn
}

// Push delivers a sample the way the streaming thread would.
func (s *AppSink) Push(sample media.Sample) media.FlowReturn {
	s.cbMu.Lock()
	cb := s.callback
	s.cbMu.Unlock()
	if cb == nil {
		return media.FlowOK
	}
	return cb(sample)
}

// HasCallback reports whether a new-sample callback is registered.
func (s *AppSink) HasCallback() bool {
	s.cbMu.Lock()
	defer s.cbMu.Unlock()
	return s.callback != nil
}
