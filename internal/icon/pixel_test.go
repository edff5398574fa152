package icon

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/bmp"
)

func TestBGRAToRGBA(t *testing.T) {
	buf := []byte{
		1, 2, 3, 4,
		10, 20, 30, 40,
	}

	got := BGRAToRGBA(buf)

	want := []byte{
		3, 2, 1, 4,
		30, 20, 10, 40,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BGRAToRGBA() = %v, want %v", got, want)
	}
	if &got[0] != &buf[0] {
		t.Error("Expected conversion to happen in place")
	}
}

func TestBGRAToRGBA_SelfInverse(t *testing.T) {
	for _, n := range []int{0, 4, 1024, 4096} {
		original := make([]byte, n)
		for i := range original {
			original[i] = byte(i * 7)
		}

		buf := append([]byte(nil), original...)
		BGRAToRGBA(BGRAToRGBA(buf))

		if !bytes.Equal(buf, original) {
			t.Errorf("len %d: double conversion did not restore the original", n)
		}
	}
}

func TestBGRAToRGBA_KeepsGreenAndAlpha(t *testing.T) {
	buf := make([]byte, 1024)
	for i := range buf {
		buf[i] = byte(i)
	}
	original := append([]byte(nil), buf...)

	BGRAToRGBA(buf)

	for i := 0; i < len(buf); i += 4 {
		if buf[i] != original[i+2] || buf[i+2] != original[i] {
			t.Fatalf("pixel %d: blue and red not swapped", i/4)
		}
		if buf[i+1] != original[i+1] || buf[i+3] != original[i+3] {
			t.Fatalf("pixel %d: green or alpha changed", i/4)
		}
	}
}

func TestBGRAToRGBA_TrailingPartialGroup(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5, 6, 7}
	BGRAToRGBA(buf)

	want := []byte{3, 2, 1, 4, 5, 6, 7}
	if !bytes.Equal(buf, want) {
		t.Errorf("BGRAToRGBA() = %v, want %v", buf, want)
	}
}

func newTestBuffer() *PixelBuffer {
	pix := make([]byte, Small.ByteLen())
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], []byte{0xff, 0x80, 0x00, 0xff})
	}
	return &PixelBuffer{Width: 16, Height: 16, Pix: pix}
}

func TestPixelBuffer_Image(t *testing.T) {
	img := newTestBuffer().Image()

	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 16 {
		t.Fatalf("Bounds() = %v", img.Bounds())
	}
	c := img.NRGBAAt(3, 5)
	if c.R != 0xff || c.G != 0x80 || c.B != 0x00 || c.A != 0xff {
		t.Errorf("NRGBAAt() = %+v", c)
	}
}

func TestPixelBuffer_Encode(t *testing.T) {
	p := newTestBuffer()

	var pngBuf bytes.Buffer
	if err := p.EncodePNG(&pngBuf); err != nil {
		t.Fatalf("EncodePNG() error = %v", err)
	}
	decoded, err := png.Decode(&pngBuf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if decoded.Bounds().Dx() != 16 {
		t.Errorf("decoded PNG width = %d", decoded.Bounds().Dx())
	}

	var bmpBuf bytes.Buffer
	if err := p.EncodeBMP(&bmpBuf); err != nil {
		t.Fatalf("EncodeBMP() error = %v", err)
	}
	cfg, err := bmp.DecodeConfig(&bmpBuf)
	if err != nil {
		t.Fatalf("bmp.DecodeConfig() error = %v", err)
	}
	if cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("decoded BMP is %dx%d", cfg.Width, cfg.Height)
	}
}

func TestPixelBuffer_DataURL(t *testing.T) {
	url := newTestBuffer().DataURL()
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("DataURL() = %q", url)
	}
}
