// Package sink assembles the video sink sub-pipeline installed on the playback
// pipeline's video-sink slot.
//
// GL path:
//
//	[ghost sink] → d3d11download → glsinkbin(sink=appsink)
//
// CPU path:
//
//	[ghost sink] → d3d11convert → d3d11download → appsink
//
// Every element is instantiated before anything is mutated, so a missing
// factory leaves the pipeline and the appsink untouched. Later failures detach
// the appsink from the discarded segment.
package sink

import (
	"fmt"
	"log/slog"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Elements are the factory names making up the wire contract
type Elements struct {
	Download  string // device-memory download element
	Convert   string // format-convert element (CPU path)
	GLSinkBin string // GL-upload wrapping bin (GL path)
	Upload    string // GL upload element looked up inside GLSinkBin
	AppSink   string // pull point
}

// DefaultElements returns the D3D11 + GL element names
func DefaultElements() Elements {
	return Elements{
		Download:  "d3d11download",
		Convert:   "d3d11convert",
		GLSinkBin: "glsinkbin",
		Upload:    "glupload",
		AppSink:   "appsink",
	}
}

// Validate checks that every factory name of the given path is set
func (e Elements) Validate(path Path) error {
	required := map[string]string{"download": e.Download, "appsink": e.AppSink}
	if path == PathGL {
		required["glsinkbin"] = e.GLSinkBin
		required["upload"] = e.Upload
	} else {
		required["convert"] = e.Convert
	}
	for role, name := range required {
		if name == "" {
			return fmt.Errorf("%s element name is required", role)
		}
	}
	return nil
}

// Path selects the memory domain the sink delivers
type Path int

const (
	// PathCPU delivers system-memory BGRA
	PathCPU Path = iota
	// PathGL delivers GL-memory RGBA textures
	PathGL
)

// String returns the label used in logs and metrics
func (p Path) String() string {
	if p == PathGL {
		return "gl"
	}
	return "cpu"
}

// GLCaps is the appsink filter on the GL path
func GLCaps() media.CapsSpec {
	return media.CapsSpec{
		MediaType: media.MediaTypeRawVideo,
		Features:  []string{media.FeatureGLMemory},
		Fields: []media.CapsField{
			media.StringField(media.FieldFormat, string(media.ZeroCopyFormat)),
			media.ListField(media.FieldTextureTarget, media.TextureTarget2D, media.TextureTargetExternalOES),
		},
	}
}

// CPUCaps is the appsink filter on the CPU path
func CPUCaps() media.CapsSpec {
	return media.CapsSpec{
		MediaType: media.MediaTypeRawVideo,
		Fields: []media.CapsField{
			media.StringField(media.FieldFormat, string(media.FormatBGRA)),
			media.FractionField(media.FieldPixelAspectRatio, 1, 1),
		},
	}
}

// CapsFor returns the appsink filter of path
func CapsFor(path Path) media.CapsSpec {
	if path == PathGL {
		return GLCaps()
	}
	return CPUCaps()
}

// Installed describes a sink installed on a pipeline
type Installed struct {
	Path Path
	// Bin is the segment set as the pipeline's video-sink
	Bin media.Bin
	// GLSinkBin is the upload wrapping bin (GL path only)
	GLSinkBin media.Element
	// Chain lists the linked elements in data-flow order
	Chain []media.Element
}

// Builder builds sink segments from a framework
type Builder struct {
	fw      media.Framework
	elems   Elements
	binName string
}

// NewBuilder returns a builder creating a bin called binName
func NewBuilder(fw media.Framework, elems Elements, binName string) *Builder {
	return &Builder{fw: fw, elems: elems, binName: binName}
}

// Build assembles the segment for path around appsink and installs it as the
// pipeline's video-sink. Every failure wraps media.ErrMissingNativeElement.
func (b *Builder) Build(path Path, appsink media.AppSink, pipeline media.Pipeline) (*Installed, error) {
	if appsink == nil || pipeline == nil {
		return nil, fmt.Errorf("build %s sink: nil appsink or pipeline: %w", path, media.ErrMissingNativeElement)
	}

	// Phase 1: instantiate. Nothing outside the new elements is touched yet.
	bin, err := b.fw.NewBin(b.binName)
	if err != nil {
		return nil, fmt.Errorf("create bin %q: %v: %w", b.binName, err, media.ErrMissingNativeElement)
	}

	var chain []media.Element
	var glsinkbin media.Element

	switch path {
	case PathGL:
		download, err := b.make(b.elems.Download)
		if err != nil {
			return nil, err
		}
		glsinkbin, err = b.make(b.elems.GLSinkBin)
		if err != nil {
			return nil, err
		}
		chain = []media.Element{download, glsinkbin}
	default:
		convert, err := b.make(b.elems.Convert)
		if err != nil {
			return nil, err
		}
		download, err := b.make(b.elems.Download)
		if err != nil {
			return nil, err
		}
		chain = []media.Element{convert, download, appsink}
	}

	// Phase 2: configure and assemble. From here on a failure detaches the
	// appsink again so the caller can retry with it.
	caps := CapsFor(path)
	if err := appsink.SetProperty(media.PropertyCaps, caps); err != nil {
		return nil, fmt.Errorf("set appsink caps: %v: %w", err, media.ErrMissingNativeElement)
	}
	rb := rollback{appsink: appsink}

	if glsinkbin != nil {
		if err := glsinkbin.SetProperty(media.PropertySink, appsink); err != nil {
			rb.undo()
			return nil, fmt.Errorf("set %s sink: %v: %w", b.elems.GLSinkBin, err, media.ErrMissingNativeElement)
		}
		// glsinkbin adopts its sink as a child
		rb.holder, _ = glsinkbin.AsBin()
	}

	if err := bin.Add(chain...); err != nil {
		rb.undo()
		return nil, fmt.Errorf("add elements to %s: %v: %w", bin.Name(), err, media.ErrMissingNativeElement)
	}
	if glsinkbin == nil {
		rb.holder = bin
	}
	for i := 0; i+1 < len(chain); i++ {
		if err := chain[i].Link(chain[i+1]); err != nil {
			rb.undo()
			return nil, fmt.Errorf("link %s -> %s: %v: %w",
				chain[i].FactoryName(), chain[i+1].FactoryName(), err, media.ErrMissingNativeElement)
		}
	}
	if err := bin.AddGhostSinkPad("sink", chain[0]); err != nil {
		rb.undo()
		return nil, fmt.Errorf("ghost sink pad: %v: %w", err, media.ErrMissingNativeElement)
	}

	// Phase 3: install.
	if err := pipeline.SetProperty(media.PropertyVideoSink, bin); err != nil {
		rb.undo()
		return nil, fmt.Errorf("set %s on %s: %v: %w", media.PropertyVideoSink, pipeline.Name(), err, media.ErrMissingNativeElement)
	}

	slog.Info("render-bridge: video sink installed",
		"path", path.String(),
		"bin", bin.Name(),
		"chain", chainNames(chain),
		"caps", caps.String(),
	)

	return &Installed{Path: path, Bin: bin, GLSinkBin: glsinkbin, Chain: chain}, nil
}

// rollback returns the caller's appsink to its pre-Build state: unparented,
// no caps filter. The rest of the segment is dropped with the bin.
type rollback struct {
	appsink media.AppSink
	holder  media.Bin
}

func (r rollback) undo() {
	if r.holder != nil {
		if err := r.holder.Remove(r.appsink); err != nil {
			slog.Warn("render-bridge: could not detach appsink",
				"appsink", r.appsink.Name(),
				"bin", r.holder.Name(),
				"error", err,
			)
		}
	}
	if err := r.appsink.SetProperty(media.PropertyCaps, nil); err != nil {
		slog.Debug("render-bridge: could not reset appsink caps", "appsink", r.appsink.Name(), "error", err)
	}
}

func (b *Builder) make(factory string) (media.Element, error) {
	el, err := b.fw.NewElement(factory, "")
	if err != nil {
		return nil, fmt.Errorf("create %s: %v: %w", factory, err, media.ErrMissingNativeElement)
	}
	return el, nil
}

func chainNames(chain []media.Element) []string {
	names := make([]string, len(chain))
	for i, el := range chain {
		names[i] = el.FactoryName()
	}
	return names
}
