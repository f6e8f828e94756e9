package gstreamer

/*
#include "helpers.h"
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// GL is the gstreamer-gl media.GL
type GL struct{}

// NewGL returns the GL integration.
func NewGL() *GL {
	Init()
	return &GL{}
}

type glDisplay struct {
	ptr  *C.GstGLDisplay
	once sync.Once
}

func (d *glDisplay) Release() {
	d.once.Do(func() { C.rb_object_unref(C.gpointer(unsafe.Pointer(d.ptr))) })
}

type glContext struct {
	ptr  *C.GstGLContext
	once sync.Once
}

func (c *glContext) Native() uintptr { return uintptr(C.rb_gl_context_handle(c.ptr)) }

func (c *glContext) Activate(active bool) error {
	a := C.gboolean(0)
	if active {
		a = 1
	}
	if C.rb_gl_context_activate(c.ptr, a) == 0 {
		return fmt.Errorf("gst_gl_context_activate(%t) failed", active)
	}
	return nil
}

func (c *glContext) FillInfo() error {
	var msg *C.gchar
	if C.rb_gl_context_fill_info(c.ptr, &msg) != 0 {
		return nil
	}
	if msg == nil {
		return errors.New("gst_gl_context_fill_info failed")
	}
	defer C.g_free(C.gpointer(unsafe.Pointer(msg)))
	return fmt.Errorf("gst_gl_context_fill_info: %s", gstring(msg))
}

func (c *glContext) Release() {
	c.once.Do(func() { C.rb_object_unref(C.gpointer(unsafe.Pointer(c.ptr))) })
}

func (g *GL) NewEGLDisplay(handle uintptr) (media.GLDisplay, error) {
	ptr := C.rb_gl_display_new_egl(C.uintptr_t(handle))
	if ptr == nil {
		return nil, errors.New("gst_gl_display_egl_new_with_egl_display failed")
	}
	return &glDisplay{ptr: ptr}, nil
}

func (g *GL) WrapContext(d media.GLDisplay, handle uintptr, platform media.GLPlatform, api media.GLAPI) (media.GLContext, error) {
	disp, ok := d.(*glDisplay)
	if !ok {
		return nil, media.ErrForeignObject
	}
	ptr := C.rb_gl_context_new_wrapped(disp.ptr, C.uintptr_t(handle), toGstPlatform(platform), toGstAPI(api))
	if ptr == nil {
		return nil, errors.New("gst_gl_context_new_wrapped failed")
	}
	return &glContext{ptr: ptr}, nil
}

func (g *GL) SetDisplayContext(el media.Element, d media.GLDisplay) error {
	target, ok := unwrap(el)
	if !ok {
		return media.ErrForeignObject
	}
	disp, ok := d.(*glDisplay)
	if !ok {
		return media.ErrForeignObject
	}
	C.rb_element_set_display_context(target.native(), disp.ptr)
	return nil
}

func (g *GL) SetAppContext(el media.Element, contextType string, ctx media.GLContext) error {
	target, ok := unwrap(el)
	if !ok {
		return media.ErrForeignObject
	}
	c, ok := ctx.(*glContext)
	if !ok {
		return media.ErrForeignObject
	}
	ctype := newGString(contextType)
	defer freeGString(ctype)
	C.rb_element_set_app_context(target.native(), ctype, c.ptr)
	return nil
}

// ElementContext reads the "context" property; the returned context holds
// its own reference.
func (g *GL) ElementContext(el media.Element) (media.GLContext, bool) {
	target, ok := unwrap(el)
	if !ok {
		return nil, false
	}
	ptr := C.rb_element_get_gl_context(target.native())
	if ptr == nil {
		return nil, false
	}
	return &glContext{ptr: ptr}, true
}

func toGstPlatform(p media.GLPlatform) C.GstGLPlatform {
	switch p {
	case media.GLPlatformEGL:
		return C.GST_GL_PLATFORM_EGL
	case media.GLPlatformGLX:
		return C.GST_GL_PLATFORM_GLX
	default:
		return C.GST_GL_PLATFORM_NONE
	}
}

func toGstAPI(a media.GLAPI) C.GstGLAPI {
	switch a {
	case media.GLAPIOpenGL:
		return C.GST_GL_API_OPENGL
	case media.GLAPIOpenGL3:
		return C.GST_GL_API_OPENGL3
	case media.GLAPIGLES1:
		return C.GST_GL_API_GLES1
	case media.GLAPIGLES2:
		return C.GST_GL_API_GLES2
	default:
		return C.GST_GL_API_NONE
	}
}
