// Package mediatest implements the media port in memory for tests.
package mediatest

import (
	"fmt"
	"sync"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Framework is an in-memory media.Framework.
//
// Only factories listed in Factories can be instantiated. Elements created from
// a factory present in BinChildren are bins pre-populated with children of the
// listed factories (the way glsinkbin builds glupload & co. internally).
type Framework struct {
	mu          sync.Mutex
	Factories   map[string]bool
	BinChildren map[string][]string
	// FailLink makes Link fail for "src->dst" factory pairs.
	FailLink map[string]bool
	// AppSinkFactories lists the factories NewAppSink accepts.
	AppSinkFactories map[string]bool
	Created          []media.Element
	counter          int
}

// NewFramework knows the given factories plus "bin", "appsink" and "playbin".
func NewFramework(factories ...string) *Framework {
	f := &Framework{
		Factories:   map[string]bool{"bin": true, "appsink": true, "playbin": true},
		BinChildren: map[string][]string{},
		FailLink:    map[string]bool{},

		AppSinkFactories: map[string]bool{"appsink": true},
	}
	for _, name := range factories {
		f.Factories[name] = true
	}
	return f
}

// GLPlatformFactories are the factories a GL-capable D3D11 host exposes.
var GLPlatformFactories = []string{"d3d11download", "d3d11convert", "glsinkbin", "glupload"}

// NewGLFramework returns a framework where glsinkbin contains glupload.
func NewGLFramework() *Framework {
	f := NewFramework(GLPlatformFactories...)
	f.BinChildren["glsinkbin"] = []string{"glupload", "glcolorconvert", "glcolorbalance"}
	return f
}

// Remove makes factory unavailable.
func (f *Framework) Remove(factory string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Factories, factory)
}

func (f *Framework) HasElementFactory(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Factories[name]
}

func (f *Framework) nextName(factory, name string) string {
	if name != "" {
		return name
	}
	f.counter++
	return fmt.Sprintf("%s%d", factory, f.counter)
}

func (f *Framework) NewElement(factory, name string) (media.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Factories[factory] {
		return nil, fmt.Errorf("no such element factory %q", factory)
	}
	var el media.Element
	if children, ok := f.BinChildren[factory]; ok {
		bin := newBin(f, factory, f.nextName(factory, name))
		for _, child := range children {
			bin.children = append(bin.children, newElement(f, child, f.nextName(child, "")))
		}
		el = bin
	} else {
		el = newElement(f, factory, f.nextName(factory, name))
	}
	f.Created = append(f.Created, el)
	return el, nil
}

func (f *Framework) NewBin(name string) (media.Bin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bin := newBin(f, "bin", f.nextName("bin", name))
	f.Created = append(f.Created, bin)
	return bin, nil
}

// NewAppSink accepts factory when it is known and listed in AppSinkFactories.
func (f *Framework) NewAppSink(factory, name string) (media.AppSink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Factories[factory] {
		return nil, fmt.Errorf("no such element factory %q", factory)
	}
	if !f.AppSinkFactories[factory] {
		return nil, fmt.Errorf("%s does not create an appsink", factory)
	}
	sink := &AppSink{Element: newElement(f, factory, f.nextName(factory, name))}
	f.Created = append(f.Created, sink)
	return sink, nil
}

func (f *Framework) NewPipeline(factory, name string) (media.Pipeline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.Factories[factory] {
		return nil, fmt.Errorf("no such element factory %q", factory)
	}
	p := NewPipeline(f.nextName(factory, name))
	p.framework = f
	p.factory = factory
	f.Created = append(f.Created, p)
	return p, nil
}

// CreatedFactories lists the factory names of every element created so far.
func (f *Framework) CreatedFactories() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.Created))
	for _, el := range f.Created {
		out = append(out, el.FactoryName())
	}
	return out
}
