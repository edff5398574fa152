//go:build !windows

package platform

// UnsupportedAPI implements API for platforms without a shell icon facility.
// Icon calls fail with ErrUnsupported and there is never a foreground window,
// so callers degrade to their "no icon" and "Unknown App" results.
type UnsupportedAPI struct{}

// NewAPI creates a new API instance for this platform
func NewAPI() API {
	return &UnsupportedAPI{}
}

func (u *UnsupportedAPI) CreateCompatibleDC() (HDC, error) { return 0, ErrUnsupported }

func (u *UnsupportedAPI) DeleteDC(HDC) error { return ErrUnsupported }

func (u *UnsupportedAPI) ExtractIconEx(string, IconSlot) (HICON, uint32, error) {
	return 0, 0, ErrUnsupported
}

func (u *UnsupportedAPI) DestroyIcon(HICON) error { return ErrUnsupported }

func (u *UnsupportedAPI) GetIconInfo(HICON) (IconInfo, error) { return IconInfo{}, ErrUnsupported }

func (u *UnsupportedAPI) DeleteObject(HBITMAP) error { return ErrUnsupported }

func (u *UnsupportedAPI) GetDIBits(HDC, HBITMAP, BitmapDescription, []byte) (int, error) {
	return 0, ErrUnsupported
}

func (u *UnsupportedAPI) ForegroundWindow() HWND { return 0 }

func (u *UnsupportedAPI) WindowText(HWND) (string, error) { return "", ErrUnsupported }

func (u *UnsupportedAPI) WindowProcessID(HWND) (uint32, error) { return 0, ErrUnsupported }

func (u *UnsupportedAPI) ProcessImagePath(uint32) (string, error) { return "", ErrUnsupported }
