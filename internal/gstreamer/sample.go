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

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Sample wraps a pulled *gst.Sample
type Sample struct {
	sample *gst.Sample
}

func (s *Sample) native() *C.GstSample {
	return (*C.GstSample)(unsafe.Pointer(s.sample.Instance()))
}

func (s *Sample) nativeCaps() *C.GstCaps {
	caps := s.sample.GetCaps()
	if caps == nil {
		return nil
	}
	return (*C.GstCaps)(unsafe.Pointer(caps.Instance()))
}

// Caps reads the fields the extractor uses from structure 0.
func (s *Sample) Caps() (media.Caps, bool) {
	caps := s.nativeCaps()
	if caps == nil {
		return media.Caps{}, false
	}
	name := C.rb_caps_name(caps)
	if name == nil {
		return media.Caps{}, false
	}

	out := media.Caps{MediaType: gstring(name), Fields: map[string]any{}}

	feature := newGString(media.FeatureGLMemory)
	defer freeGString(feature)
	if C.rb_caps_has_feature(caps, feature) != 0 {
		out.Features = []string{media.FeatureGLMemory}
	}

	for _, field := range []string{media.FieldFormat, media.FieldTextureTarget} {
		cfield := newGString(field)
		if v := C.rb_caps_get_string(caps, cfield); v != nil {
			out.Fields[field] = gstring(v)
		}
		freeGString(cfield)
	}
	for _, field := range []string{media.FieldWidth, media.FieldHeight} {
		cfield := newGString(field)
		var v C.gint
		if C.rb_caps_get_int(caps, cfield, &v) != 0 {
			out.Fields[field] = int(v)
		}
		freeGString(cfield)
	}
	return out, true
}

var errMapFailed = errors.New("gst_video_frame_map failed")

// Map maps the sample's buffer as a video frame. The mapping holds its own
// buffer reference.
func (s *Sample) Map(mode media.MapMode) (media.VideoMapping, error) {
	gl := C.gboolean(0)
	if mode == media.MapGL {
		gl = 1
	}
	frame := C.rb_video_frame_map(s.native(), gl)
	if frame == nil {
		return nil, errMapFailed
	}
	return &mapping{frame: frame, gl: mode == media.MapGL}, nil
}

type mapping struct {
	mu    sync.Mutex
	frame *C.RbVideoFrame
	gl    bool
}

var errUnmapped = errors.New("frame already unmapped")

func (m *mapping) NumPlanes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return 0
	}
	return int(C.rb_video_frame_n_planes(m.frame))
}

func (m *mapping) PlaneData(plane int) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return nil, errUnmapped
	}
	data := C.rb_video_frame_plane_data(m.frame, C.guint(plane))
	size := C.rb_video_frame_plane_size(m.frame, C.guint(plane))
	if data == nil || size == 0 {
		return nil, fmt.Errorf("plane %d not mapped", plane)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), int(size)), nil
}

func (m *mapping) TextureID(plane int) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return 0, errUnmapped
	}
	if !m.gl {
		return 0, errors.New("not a GL mapping")
	}
	if plane >= int(C.rb_video_frame_n_planes(m.frame)) {
		return 0, fmt.Errorf("plane %d out of range", plane)
	}
	return uint32(C.rb_video_frame_texture_id(m.frame, C.guint(plane))), nil
}

func (m *mapping) Unmap() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.frame == nil {
		return
	}
	C.rb_video_frame_unmap(m.frame)
	m.frame = nil
}
