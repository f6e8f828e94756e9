package media

// VideoFormat is a GStreamer raw video format name as it appears in caps ("RGBA", "NV12", ...)
type VideoFormat string

// Formats referenced by the bridge.
const (
	FormatRGBA VideoFormat = "RGBA"
	FormatBGRA VideoFormat = "BGRA"
	FormatRGBx VideoFormat = "RGBx"
	FormatBGRx VideoFormat = "BGRx"
	FormatARGB VideoFormat = "ARGB"
	FormatABGR VideoFormat = "ABGR"
	FormatRGB  VideoFormat = "RGB"
	FormatBGR  VideoFormat = "BGR"
	FormatI420 VideoFormat = "I420"
	FormatYV12 VideoFormat = "YV12"
	FormatNV12 VideoFormat = "NV12"
	FormatNV21 VideoFormat = "NV21"
	FormatY444 VideoFormat = "Y444"
	FormatYUY2 VideoFormat = "YUY2"
	FormatUYVY VideoFormat = "UYVY"
	FormatP010 VideoFormat = "P010_10LE"
)

// ZeroCopyFormat is the only layout the GL path hands out as a texture.
// The GL appsink caps request exactly this format.
const ZeroCopyFormat = FormatRGBA

// FormatInfo describes the memory layout of a format
type FormatInfo struct {
	Planes     int  // number of memory planes
	Components int  // colour components (including alpha/padding)
	Packed     bool // all components interleaved in one plane
	Subsampled bool // chroma subsampled (YUV 4:2:x)
}

var formatTable = map[VideoFormat]FormatInfo{
	FormatRGBA: {Planes: 1, Components: 4, Packed: true},
	FormatBGRA: {Planes: 1, Components: 4, Packed: true},
	FormatRGBx: {Planes: 1, Components: 4, Packed: true},
	FormatBGRx: {Planes: 1, Components: 4, Packed: true},
	FormatARGB: {Planes: 1, Components: 4, Packed: true},
	FormatABGR: {Planes: 1, Components: 4, Packed: true},
	FormatRGB:  {Planes: 1, Components: 3, Packed: true},
	FormatBGR:  {Planes: 1, Components: 3, Packed: true},
	FormatYUY2: {Planes: 1, Components: 3, Packed: true, Subsampled: true},
	FormatUYVY: {Planes: 1, Components: 3, Packed: true, Subsampled: true},
	FormatI420: {Planes: 3, Components: 3, Subsampled: true},
	FormatYV12: {Planes: 3, Components: 3, Subsampled: true},
	FormatNV12: {Planes: 2, Components: 3, Subsampled: true},
	FormatNV21: {Planes: 2, Components: 3, Subsampled: true},
	FormatP010: {Planes: 2, Components: 3, Subsampled: true},
	FormatY444: {Planes: 3, Components: 3},
}

// Info returns the layout of f, false when the format is not in the table.
func (f VideoFormat) Info() (FormatInfo, bool) {
	info, ok := formatTable[f]
	return info, ok
}

// SinglePlanePacked reports whether all pixel data lives interleaved in plane 0.
func (f VideoFormat) SinglePlanePacked() bool {
	info, ok := f.Info()
	return ok && info.Packed && info.Planes == 1
}

// ZeroCopyEligible reports whether the GL path can expose f as one texture handle.
func (f VideoFormat) ZeroCopyEligible() bool {
	return f == ZeroCopyFormat && f.SinglePlanePacked()
}
