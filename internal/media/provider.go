package media

// GLAPI is the GL flavour the application renders with
type GLAPI int

const (
	GLAPINone GLAPI = iota
	GLAPIOpenGL
	GLAPIOpenGL3
	GLAPIGLES1
	GLAPIGLES2
)

// String returns the name used in configuration files
func (a GLAPI) String() string {
	switch a {
	case GLAPIOpenGL:
		return "opengl"
	case GLAPIOpenGL3:
		return "opengl3"
	case GLAPIGLES1:
		return "gles1"
	case GLAPIGLES2:
		return "gles2"
	default:
		return "none"
	}
}

// ParseGLAPI is the inverse of GLAPI.String; unknown names map to GLAPINone.
func ParseGLAPI(s string) GLAPI {
	switch s {
	case "opengl", "gl":
		return GLAPIOpenGL
	case "opengl3", "gl3":
		return GLAPIOpenGL3
	case "gles1":
		return GLAPIGLES1
	case "gles2":
		return GLAPIGLES2
	default:
		return GLAPINone
	}
}

// DisplayKind is the native display system
type DisplayKind int

const (
	DisplayUnknown DisplayKind = iota
	DisplayEGL
	DisplayX11
	DisplayWayland
)

// ContextKind is the native context system
type ContextKind int

const (
	ContextUnknown ContextKind = iota
	ContextEGL
	ContextGLX
)

// NativeDisplay is an application display handle (EGLDisplay, Display*, wl_display*)
type NativeDisplay struct {
	Kind   DisplayKind
	Handle uintptr
}

// NativeContext is an application GL context handle (EGLContext, GLXContext)
type NativeContext struct {
	Kind   ContextKind
	Handle uintptr
}

// GLContextProvider is implemented by the hosting application.
type GLContextProvider interface {
	NativeDisplay() NativeDisplay
	NativeContext() NativeContext
	GLAPI() GLAPI
}
