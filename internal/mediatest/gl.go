package mediatest

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Display is an in-memory media.GLDisplay.
type Display struct {
	Handle   uintptr
	released atomic.Bool
}

func (d *Display) Release() { d.released.Store(true) }

// Released reports whether Release was called.
func (d *Display) Released() bool { return d.released.Load() }

// Context is an in-memory media.GLContext.
type Context struct {
	Handle   uintptr
	Platform media.GLPlatform
	API      media.GLAPI

	ActivateErr error
	FillErr     error

	mu        sync.Mutex
	active    bool
	filled    bool
	activates int
	released  atomic.Bool
}

// NewContext returns a context with the given native handle.
func NewContext(handle uintptr) *Context { return &Context{Handle: handle} }

func (c *Context) Native() uintptr { return c.Handle }

func (c *Context) Activate(active bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activates++
	if c.ActivateErr != nil {
		return c.ActivateErr
	}
	c.active = active
	return nil
}

func (c *Context) FillInfo() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FillErr != nil {
		return c.FillErr
	}
	c.filled = true
	return nil
}

func (c *Context) Release() { c.released.Store(true) }

// Released reports whether Release was called.
func (c *Context) Released() bool { return c.released.Load() }

// Active reports the last activation state.
func (c *Context) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Filled reports whether FillInfo succeeded.
func (c *Context) Filled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filled
}

// Activations counts Activate calls.
func (c *Context) Activations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activates
}

// GL is an in-memory media.GL. Error fields make the matching call fail;
// ActivateErr and FillErr are copied onto every wrapped context.
type GL struct {
	DisplayErr  error
	WrapErr     error
	ActivateErr error
	FillErr     error
	AttachErr   error

	mu       sync.Mutex
	displays []*Display
	contexts []*Context
}

// NewGL returns a GL integration that succeeds at everything.
func NewGL() *GL { return &GL{} }

func (g *GL) NewEGLDisplay(handle uintptr) (media.GLDisplay, error) {
	if g.DisplayErr != nil {
		return nil, g.DisplayErr
	}
	d := &Display{Handle: handle}
	g.mu.Lock()
	g.displays = append(g.displays, d)
	g.mu.Unlock()
	return d, nil
}

func (g *GL) WrapContext(display media.GLDisplay, handle uintptr, platform media.GLPlatform, api media.GLAPI) (media.GLContext, error) {
	if g.WrapErr != nil {
		return nil, g.WrapErr
	}
	if _, ok := display.(*Display); !ok {
		return nil, media.ErrForeignObject
	}
	c := &Context{
		Handle:      handle,
		Platform:    platform,
		API:         api,
		ActivateErr: g.ActivateErr,
		FillErr:     g.FillErr,
	}
	g.mu.Lock()
	g.contexts = append(g.contexts, c)
	g.mu.Unlock()
	return c, nil
}

func (g *GL) SetDisplayContext(el media.Element, display media.GLDisplay) error {
	if g.AttachErr != nil {
		return g.AttachErr
	}
	inner, ok := Unwrap(el)
	if !ok {
		return media.ErrForeignObject
	}
	inner.attach(AttachedContext{Type: media.DisplayContextType, Display: display})
	return nil
}

func (g *GL) SetAppContext(el media.Element, contextType string, ctx media.GLContext) error {
	if g.AttachErr != nil {
		return g.AttachErr
	}
	inner, ok := Unwrap(el)
	if !ok {
		return media.ErrForeignObject
	}
	inner.attach(AttachedContext{Type: contextType, Context: ctx})
	return nil
}

func (g *GL) ElementContext(el media.Element) (media.GLContext, bool) {
	v, err := el.Property(media.PropertyContext)
	if err != nil || v == nil {
		return nil, false
	}
	ctx, ok := v.(media.GLContext)
	return ctx, ok
}

// Displays returns every wrapped display.
func (g *GL) Displays() []*Display {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Display(nil), g.displays...)
}

// Contexts returns every wrapped context.
func (g *GL) Contexts() []*Context {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*Context(nil), g.contexts...)
}

// Provider is a fixed media.GLContextProvider.
type Provider struct {
	Display media.NativeDisplay
	Context media.NativeContext
	API     media.GLAPI
}

// EGLProvider returns an EGL provider with non-zero handles.
func EGLProvider() *Provider {
	return &Provider{
		Display: media.NativeDisplay{Kind: media.DisplayEGL, Handle: 0x1000},
		Context: media.NativeContext{Kind: media.ContextEGL, Handle: 0x2000},
		API:     media.GLAPIGLES2,
	}
}

func (p *Provider) NativeDisplay() media.NativeDisplay { return p.Display }
func (p *Provider) NativeContext() media.NativeContext { return p.Context }
func (p *Provider) GLAPI() media.GLAPI                 { return p.API }

// ErrInjected is a generic injected failure.
var ErrInjected = errors.New("injected failure")
