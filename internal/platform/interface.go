package platform

import "errors"

// Opaque OS handle types. Zero is never a valid handle.
type (
	HWND    uintptr
	HICON   uintptr
	HBITMAP uintptr
	HDC     uintptr
)

// IconSlot selects which of the two shell icon slots ExtractIconEx fills.
type IconSlot int

const (
	SlotSmall IconSlot = iota
	SlotLarge
)

func (s IconSlot) String() string {
	if s == SlotLarge {
		return "large"
	}
	return "small"
}

// Bitmap layout constants used by BitmapDescription.
const (
	CompressionRGB   uint32 = 0 // BI_RGB
	BitsPerPixel32   uint16 = 32
	BytesPerPixel           = 4
	DIBRGBColors            = 0
	bitmapPlanesOnly        = 1
)

var (
	// ErrUnsupported is returned by every call on platforms without a native implementation.
	ErrUnsupported = errors.New("platform: not supported on this operating system")
	// ErrProcessNotFound means the process id did not name a live process.
	ErrProcessNotFound = errors.New("platform: process not found")
	// ErrAccessDenied means the process exists but cannot be inspected.
	ErrAccessDenied = errors.New("platform: access denied")
)

// IconInfo holds the bitmap handles backing an icon. GetIconInfo returns it by
// value even on failure so callers can release whatever the OS populated.
type IconInfo struct {
	IsIcon   bool
	HotspotX uint32
	HotspotY uint32
	Mask     HBITMAP
	Color    HBITMAP
}

// BitmapDescription is the device-independent layout requested from GetDIBits.
type BitmapDescription struct {
	Width       int32
	Height      int32 // negative for top-down rows
	Planes      uint16
	BitCount    uint16
	Compression uint32
	SizeImage   uint32
}

// NewBitmapDescription returns a zeroed description for a top-down 32bpp
// uncompressed surface of the given dimensions.
func NewBitmapDescription(width, height int) BitmapDescription {
	var desc BitmapDescription
	desc.Width = int32(width)
	desc.Height = -int32(height)
	desc.Planes = bitmapPlanesOnly
	desc.BitCount = BitsPerPixel32
	desc.Compression = CompressionRGB
	desc.SizeImage = uint32(width * height * BytesPerPixel)
	return desc
}

// Rows returns the absolute number of scan lines described.
func (d BitmapDescription) Rows() int {
	if d.Height < 0 {
		return int(-d.Height)
	}
	return int(d.Height)
}

// TopDown reports whether row 0 is the top row.
func (d BitmapDescription) TopDown() bool {
	return d.Height < 0
}

// IconAPI is the subset of shell32/user32/gdi32 needed to copy an icon out
// of the shell into a byte buffer. Every acquiring call has a matching
// release call; callers own the release.
type IconAPI interface {
	CreateCompatibleDC() (HDC, error)
	DeleteDC(dc HDC) error
	// ExtractIconEx extracts at most one icon into the given slot and reports
	// how many icons were extracted.
	ExtractIconEx(path string, slot IconSlot) (HICON, uint32, error)
	DestroyIcon(icon HICON) error
	GetIconInfo(icon HICON) (IconInfo, error)
	DeleteObject(bitmap HBITMAP) error
	// GetDIBits copies pixel rows from bitmap into bits using desc and
	// returns the number of rows copied.
	GetDIBits(dc HDC, bitmap HBITMAP, desc BitmapDescription, bits []byte) (int, error)
}

// WindowAPI defines the platform-specific foreground window queries
type WindowAPI interface {
	ForegroundWindow() HWND
	WindowText(hwnd HWND) (string, error)
	WindowProcessID(hwnd HWND) (uint32, error)
	ProcessImagePath(pid uint32) (string, error)
}

// API is the full OS surface used by topdock.
type API interface {
	IconAPI
	WindowAPI
}
