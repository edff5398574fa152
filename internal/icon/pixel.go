package icon

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

// PixelBuffer is a flat top-down RGBA image, four bytes per pixel.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []byte
}

// BGRAToRGBA swaps the blue and red byte of every complete 4-byte group in
// place and returns buf. Applying it twice restores the original order.
func BGRAToRGBA(buf []byte) []byte {
	for i := 0; i+3 < len(buf); i += 4 {
		buf[i], buf[i+2] = buf[i+2], buf[i]
	}
	return buf
}

// Image wraps the buffer as an image without copying. Icon alpha is
// straight, not premultiplied.
func (p *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    p.Pix,
		Stride: p.Width * 4,
		Rect:   image.Rect(0, 0, p.Width, p.Height),
	}
}

// EncodePNG writes the icon as PNG
func (p *PixelBuffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, p.Image()); err != nil {
		return fmt.Errorf("failed to encode icon as PNG: %w", err)
	}
	return nil
}

// EncodeBMP writes the icon as a 32-bit BMP
func (p *PixelBuffer) EncodeBMP(w io.Writer) error {
	if err := bmp.Encode(w, p.Image()); err != nil {
		return fmt.Errorf("failed to encode icon as BMP: %w", err)
	}
	return nil
}

// DataURL returns the icon as a base64 PNG data URL, or "" if encoding fails
func (p *PixelBuffer) DataURL() string {
	var buf bytes.Buffer
	if err := p.EncodePNG(&buf); err != nil {
		return ""
	}

	encoded := base64.StdEncoding.EncodeToString(buf.Bytes())
	return fmt.Sprintf("data:image/png;base64,%s", encoded)
}
