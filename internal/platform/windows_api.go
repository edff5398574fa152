//go:build windows

package platform

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                   = windows.NewLazySystemDLL("user32.dll")
	shell32                  = windows.NewLazySystemDLL("shell32.dll")
	gdi32                    = windows.NewLazySystemDLL("gdi32.dll")
	procGetForegroundWindow  = user32.NewProc("GetForegroundWindow")
	procGetWindowTextLengthW = user32.NewProc("GetWindowTextLengthW")
	procGetWindowTextW       = user32.NewProc("GetWindowTextW")
	procDestroyIcon          = user32.NewProc("DestroyIcon")
	procGetIconInfo          = user32.NewProc("GetIconInfo")
	procExtractIconExW       = shell32.NewProc("ExtractIconExW")
	procCreateCompatibleDC   = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC             = gdi32.NewProc("DeleteDC")
	procDeleteObject         = gdi32.NewProc("DeleteObject")
	procGetDIBits            = gdi32.NewProc("GetDIBits")
)

type iconInfo struct {
	fIcon    int32
	xHotspot uint32
	yHotspot uint32
	hbmMask  uintptr
	hbmColor uintptr
}

type bitmapInfoHeader struct {
	biSize          uint32
	biWidth         int32
	biHeight        int32
	biPlanes        uint16
	biBitCount      uint16
	biCompression   uint32
	biSizeImage     uint32
	biXPelsPerMeter int32
	biYPelsPerMeter int32
	biClrUsed       uint32
	biClrImportant  uint32
}

type bitmapInfo struct {
	header bitmapInfoHeader
	colors [1]uint32
}

// WindowsAPI implements API on top of user32, shell32, gdi32 and kernel32.
type WindowsAPI struct{}

// NewWindowsAPI creates a new Windows API instance
func NewWindowsAPI() *WindowsAPI {
	return &WindowsAPI{}
}

// NewAPI creates the native API for Windows
func NewAPI() API {
	return NewWindowsAPI()
}

// callErr turns the errno of a failed proc call into an error, falling back
// to a descriptive one when the OS left the last error unset.
func callErr(name string, err error) error {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return fmt.Errorf("%s: %w", name, errno)
	}
	return fmt.Errorf("%s failed", name)
}

func (w *WindowsAPI) CreateCompatibleDC() (HDC, error) {
	dc, _, err := procCreateCompatibleDC.Call(0)
	if dc == 0 {
		return 0, callErr("CreateCompatibleDC", err)
	}
	return HDC(dc), nil
}

func (w *WindowsAPI) DeleteDC(dc HDC) error {
	ret, _, err := procDeleteDC.Call(uintptr(dc))
	if ret == 0 {
		return callErr("DeleteDC", err)
	}
	return nil
}

func (w *WindowsAPI) ExtractIconEx(path string, slot IconSlot) (HICON, uint32, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, 0, err
	}

	var hIcon uintptr
	var large, small uintptr
	if slot == SlotLarge {
		large = uintptr(unsafe.Pointer(&hIcon))
	} else {
		small = uintptr(unsafe.Pointer(&hIcon))
	}

	ret, _, callErrno := procExtractIconExW.Call(
		uintptr(unsafe.Pointer(pathPtr)),
		0, // icon index
		large,
		small,
		1, // number of icons to extract
	)
	count := uint32(ret)
	if count != 1 {
		return HICON(hIcon), count, callErr("ExtractIconExW", callErrno)
	}
	return HICON(hIcon), count, nil
}

func (w *WindowsAPI) DestroyIcon(icon HICON) error {
	ret, _, err := procDestroyIcon.Call(uintptr(icon))
	if ret == 0 {
		return callErr("DestroyIcon", err)
	}
	return nil
}

func (w *WindowsAPI) GetIconInfo(icon HICON) (IconInfo, error) {
	var raw iconInfo
	ret, _, err := procGetIconInfo.Call(uintptr(icon), uintptr(unsafe.Pointer(&raw)))

	info := IconInfo{
		IsIcon:   raw.fIcon != 0,
		HotspotX: raw.xHotspot,
		HotspotY: raw.yHotspot,
		Mask:     HBITMAP(raw.hbmMask),
		Color:    HBITMAP(raw.hbmColor),
	}
	if ret == 0 {
		return info, callErr("GetIconInfo", err)
	}
	return info, nil
}

func (w *WindowsAPI) DeleteObject(bitmap HBITMAP) error {
	ret, _, err := procDeleteObject.Call(uintptr(bitmap))
	if ret == 0 {
		return callErr("DeleteObject", err)
	}
	return nil
}

func (w *WindowsAPI) GetDIBits(dc HDC, bitmap HBITMAP, desc BitmapDescription, bits []byte) (int, error) {
	if len(bits) == 0 || uint32(len(bits)) < desc.SizeImage {
		return 0, fmt.Errorf("GetDIBits: buffer of %d bytes is smaller than %d", len(bits), desc.SizeImage)
	}

	var bmi bitmapInfo
	bmi.header.biSize = uint32(unsafe.Sizeof(bmi.header))
	bmi.header.biWidth = desc.Width
	bmi.header.biHeight = desc.Height
	bmi.header.biPlanes = desc.Planes
	bmi.header.biBitCount = desc.BitCount
	bmi.header.biCompression = desc.Compression
	bmi.header.biSizeImage = desc.SizeImage

	ret, _, err := procGetDIBits.Call(
		uintptr(dc),
		uintptr(bitmap),
		0,
		uintptr(desc.Rows()),
		uintptr(unsafe.Pointer(&bits[0])),
		uintptr(unsafe.Pointer(&bmi)),
		DIBRGBColors,
	)
	if int32(ret) <= 0 {
		return 0, callErr("GetDIBits", err)
	}
	return int(ret), nil
}

func (w *WindowsAPI) ForegroundWindow() HWND {
	hwnd, _, _ := procGetForegroundWindow.Call()
	return HWND(hwnd)
}

func (w *WindowsAPI) WindowText(hwnd HWND) (string, error) {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(hwnd))
	if length == 0 {
		return "", nil
	}

	buf := make([]uint16, length+1)
	ret, _, err := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), length+1)
	if ret == 0 {
		var errno syscall.Errno
		if errors.As(err, &errno) && errno != 0 {
			return "", fmt.Errorf("GetWindowTextW: %w", errno)
		}
		return "", nil
	}
	return windows.UTF16ToString(buf[:ret]), nil
}

func (w *WindowsAPI) WindowProcessID(hwnd HWND) (uint32, error) {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(windows.HWND(hwnd), &pid); err != nil {
		return 0, fmt.Errorf("GetWindowThreadProcessId: %w", err)
	}
	if pid == 0 {
		return 0, ErrProcessNotFound
	}
	return pid, nil
}

func (w *WindowsAPI) ProcessImagePath(pid uint32) (string, error) {
	process, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return "", translateProcessErr(pid, err)
	}
	defer windows.CloseHandle(process)

	buf := make([]uint16, windows.MAX_LONG_PATH)
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(process, 0, &buf[0], &size); err != nil {
		return "", translateProcessErr(pid, err)
	}
	return windows.UTF16ToString(buf[:size]), nil
}

// translateProcessErr maps the errnos OpenProcess and QueryFullProcessImageName
// report onto the package sentinels, keeping the errno in the chain.
func translateProcessErr(pid uint32, err error) error {
	switch {
	case errors.Is(err, windows.ERROR_ACCESS_DENIED):
		return fmt.Errorf("process %d: %w: %w", pid, ErrAccessDenied, err)
	case errors.Is(err, windows.ERROR_INVALID_PARAMETER):
		// OpenProcess reports a pid that no longer exists as an invalid parameter.
		return fmt.Errorf("process %d: %w: %w", pid, ErrProcessNotFound, err)
	case errors.Is(err, windows.ERROR_GEN_FAILURE), errors.Is(err, windows.ERROR_PARTIAL_COPY):
		// The process exited between OpenProcess and the image name query.
		return fmt.Errorf("process %d: %w: %w", pid, ErrProcessNotFound, err)
	default:
		return fmt.Errorf("process %d: %w", pid, err)
	}
}
