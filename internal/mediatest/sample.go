package mediatest

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/e7canasta/orion-care-sensor/modules/render-bridge/internal/media"
)

// Sample is an in-memory media.Sample. Planes backs CPU mappings and Textures
// backs GL mappings.
type Sample struct {
	caps     media.Caps
	hasCaps  bool
	Planes   [][]byte
	Textures []uint32
	// MapErr makes Map fail.
	MapErr error

	maps   atomic.Int32
	unmaps atomic.Int32
}

// NewSample wraps caps; planes/textures are set by the caller.
func NewSample(caps media.Caps) *Sample {
	return &Sample{caps: caps, hasCaps: true}
}

// NewCapslessSample returns a sample without caps.
func NewCapslessSample() *Sample { return &Sample{} }

// GLSample is a GLMemory sample with a single texture.
func GLSample(format media.VideoFormat, width, height int, target string, texture uint32) *Sample {
	fields := map[string]any{
		media.FieldFormat: string(format),
		media.FieldWidth:  width,
		media.FieldHeight: height,
	}
	if target != "" {
		fields[media.FieldTextureTarget] = target
	}
	s := NewSample(media.Caps{
		MediaType: media.MediaTypeRawVideo,
		Features:  []string{media.FeatureGLMemory},
		Fields:    fields,
	})
	s.Textures = []uint32{texture}
	return s
}

// RawSample is a system-memory sample with one plane of data.
func RawSample(format media.VideoFormat, width, height int, plane0 []byte) *Sample {
	s := NewSample(media.Caps{
		MediaType: media.MediaTypeRawVideo,
		Fields: map[string]any{
			media.FieldFormat: string(format),
			media.FieldWidth:  width,
			media.FieldHeight: height,
		},
	})
	s.Planes = [][]byte{plane0}
	return s
}

func (s *Sample) Caps() (media.Caps, bool) { return s.caps, s.hasCaps }

func (s *Sample) Map(mode media.MapMode) (media.VideoMapping, error) {
	if s.MapErr != nil {
		return nil, s.MapErr
	}
	s.maps.Add(1)
	m := &mapping{sample: s, gl: mode == media.MapGL}
	return m, nil
}

// Maps counts successful Map calls.
func (s *Sample) Maps() int { return int(s.maps.Load()) }

// Unmaps counts Unmap calls that released a mapping.
func (s *Sample) Unmaps() int { return int(s.unmaps.Load()) }

// Outstanding is the number of mappings not yet unmapped.
func (s *Sample) Outstanding() int { return s.Maps() - s.Unmaps() }

var errUnmapped = errors.New("mapping already released")

type mapping struct {
	sample *Sample
	gl     bool
	once   sync.Once
	done   atomic.Bool
}

func (m *mapping) NumPlanes() int {
	if m.gl {
		return len(m.sample.Textures)
	}
	return len(m.sample.Planes)
}

func (m *mapping) PlaneData(plane int) ([]byte, error) {
	if m.done.Load() {
		return nil, errUnmapped
	}
	if plane < 0 || plane >= len(m.sample.Planes) {
		return nil, fmt.Errorf("plane %d out of range", plane)
	}
	return m.sample.Planes[plane], nil
}

func (m *mapping) TextureID(plane int) (uint32, error) {
	if m.done.Load() {
		return 0, errUnmapped
	}
	if !m.gl {
		return 0, errors.New("not a GL mapping")
	}
	if plane < 0 || plane >= len(m.sample.Textures) {
		return 0, fmt.Errorf("plane %d out of range", plane)
	}
	return m.sample.Textures[plane], nil
}

func (m *mapping) Unmap() {
	m.once.Do(func() {
		m.done.Store(true)
		m.sample.unmaps.Add(1)
	})
}
