package main

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	renderbridge "github.com/e7canasta/orion-care-sensor/modules/render-bridge"
)

var errTextureFrame = errors.New("texture frames cannot be saved")

// saveFrame writes a raw BGRA frame as PNG.
func saveFrame(dir string, d renderbridge.Delivery) error {
	raw, ok := d.Frame.Buffer().(renderbridge.RawBuffer)
	if !ok {
		return errTextureFrame
	}
	img, err := bgraToRGBA(raw.Data, d.Frame.Width(), d.Frame.Height())
	if err != nil {
		return err
	}

	name := fmt.Sprintf("frame_%06d_%s.png", d.Seq, d.Timestamp.Format("20060102_150405.000"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return nil
}

// bgraToRGBA swaps B and R. Rows may be padded: the stride is derived from
// the buffer length.
func bgraToRGBA(data []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	stride := len(data) / height
	if stride < width*4 {
		return nil, fmt.Errorf("buffer too small: %d bytes for %dx%d BGRA", len(data), width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := data[y*stride : y*stride+width*4]
		dst := img.Pix[y*img.Stride : y*img.Stride+width*4]
		for x := 0; x < width*4; x += 4 {
			dst[x+0] = src[x+2] // R
			dst[x+1] = src[x+1] // G
			dst[x+2] = src[x+0] // B
			dst[x+3] = src[x+3] // A
		}
	}
	return img, nil
}
