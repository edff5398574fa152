package platform

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// HandleKind classifies the handles MockAPI hands out.
type HandleKind int

const (
	KindDeviceContext HandleKind = iota
	KindIcon
	KindBitmap
)

// String returns a string representation of the handle kind
func (k HandleKind) String() string {
	switch k {
	case KindDeviceContext:
		return "device_context"
	case KindIcon:
		return "icon"
	case KindBitmap:
		return "bitmap"
	default:
		return "unknown"
	}
}

// MockWindow describes a top-level window known to MockAPI.
type MockWindow struct {
	Title    string
	TitleErr error
	PID      uint32
	PIDErr   error
}

// MockProcess describes a process known to MockAPI.
type MockProcess struct {
	Path string
	Err  error
}

// MockIcon describes the icons the mock shell associates with a path.
type MockIcon struct {
	Small        bool
	Large        bool
	Fill         [4]byte // BGRA value written to every pixel
	NoColorPlane bool    // monochrome icon: GetIconInfo returns only a mask
}

// MockFailures configures which calls MockAPI fails.
type MockFailures struct {
	CreateDC bool
	IconInfo bool
	// PartialColor and PartialMask select the bitmaps GetIconInfo still
	// populates when IconInfo is set.
	PartialColor bool
	PartialMask  bool
	DIBits       bool
	// Release makes release calls report failure; the handle is still freed.
	Release bool
}

// MockExtractCall records one ExtractIconEx invocation.
type MockExtractCall struct {
	Path string
	Slot IconSlot
}

// MockAPI implements API in memory and counts every handle it hands out so
// tests can assert nothing leaks, is released twice or used after release.
type MockAPI struct {
	mu         sync.Mutex
	foreground HWND
	windows    map[HWND]MockWindow
	processes  map[uint32]MockProcess
	icons      map[string]MockIcon
	failures   MockFailures

	next            uintptr
	kinds           map[uintptr]HandleKind
	live            map[uintptr]bool
	releaseCounts   map[uintptr]int
	acquired        map[HandleKind]int
	released        map[HandleKind]int
	iconPaths       map[uintptr]string
	doubleReleases  int
	invalidReleases int
	useAfterRelease int
	lastDescription BitmapDescription
	extractCalls    []MockExtractCall
}

// NewMockAPI creates an empty mock OS layer
func NewMockAPI() *MockAPI {
	return &MockAPI{
		windows:       make(map[HWND]MockWindow),
		processes:     make(map[uint32]MockProcess),
		icons:         make(map[string]MockIcon),
		next:          0x100,
		kinds:         make(map[uintptr]HandleKind),
		live:          make(map[uintptr]bool),
		releaseCounts: make(map[uintptr]int),
		acquired:      make(map[HandleKind]int),
		released:      make(map[HandleKind]int),
		iconPaths:     make(map[uintptr]string),
	}
}

// SetForeground registers window under hwnd and makes it the foreground window.
// A zero hwnd means no window has focus.
func (m *MockAPI) SetForeground(hwnd HWND, window MockWindow) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.foreground = hwnd
	if hwnd != 0 {
		m.windows[hwnd] = window
	}
}

// AddProcess registers a process under pid
func (m *MockAPI) AddProcess(pid uint32, process MockProcess) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processes[pid] = process
}

// AddIcon associates icons with path
func (m *MockAPI) AddIcon(path string, icon MockIcon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.icons[path] = icon
}

// SetFailures configures the mock to simulate failures
func (m *MockAPI) SetFailures(failures MockFailures) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = failures
}

func (m *MockAPI) allocate(kind HandleKind) uintptr {
	h := m.next
	m.next += 4
	m.kinds[h] = kind
	m.live[h] = true
	m.acquired[kind]++
	return h
}

func (m *MockAPI) release(h uintptr, kind HandleKind) error {
	k, known := m.kinds[h]
	if !known || k != kind {
		m.invalidReleases++
		return fmt.Errorf("mock: %#x is not a %s handle", h, kind)
	}
	if !m.live[h] {
		m.doubleReleases++
		m.releaseCounts[h]++
		return fmt.Errorf("mock: %s handle %#x released twice", kind, h)
	}
	m.live[h] = false
	m.releaseCounts[h]++
	m.released[kind]++
	if m.failures.Release {
		return fmt.Errorf("mock: release of %s handle %#x reported failure", kind, h)
	}
	return nil
}

// use reports whether h is a live handle of kind, counting misuse.
func (m *MockAPI) use(h uintptr, kind HandleKind) bool {
	if k, known := m.kinds[h]; !known || k != kind {
		return false
	}
	if !m.live[h] {
		m.useAfterRelease++
		return false
	}
	return true
}

func (m *MockAPI) CreateCompatibleDC() (HDC, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures.CreateDC {
		return 0, errors.New("mock: CreateCompatibleDC failed")
	}
	return HDC(m.allocate(KindDeviceContext)), nil
}

func (m *MockAPI) DeleteDC(dc HDC) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release(uintptr(dc), KindDeviceContext)
}

func (m *MockAPI) ExtractIconEx(path string, slot IconSlot) (HICON, uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extractCalls = append(m.extractCalls, MockExtractCall{Path: path, Slot: slot})

	icon, ok := m.icons[path]
	if !ok || (slot == SlotSmall && !icon.Small) || (slot == SlotLarge && !icon.Large) {
		return 0, 0, fmt.Errorf("mock: no %s icon for %q", slot, path)
	}
	h := m.allocate(KindIcon)
	m.iconPaths[h] = path
	return HICON(h), 1, nil
}

func (m *MockAPI) DestroyIcon(icon HICON) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release(uintptr(icon), KindIcon)
}

func (m *MockAPI) GetIconInfo(icon HICON) (IconInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.use(uintptr(icon), KindIcon) {
		return IconInfo{}, fmt.Errorf("mock: invalid icon handle %#x", uintptr(icon))
	}
	path := m.iconPaths[uintptr(icon)]

	if m.failures.IconInfo {
		var info IconInfo
		if m.failures.PartialColor {
			info.Color = HBITMAP(m.allocate(KindBitmap))
			m.iconPaths[uintptr(info.Color)] = path
		}
		if m.failures.PartialMask {
			info.Mask = HBITMAP(m.allocate(KindBitmap))
		}
		return info, errors.New("mock: GetIconInfo failed")
	}

	info := IconInfo{IsIcon: true}
	info.Mask = HBITMAP(m.allocate(KindBitmap))
	if !m.icons[path].NoColorPlane {
		info.Color = HBITMAP(m.allocate(KindBitmap))
		m.iconPaths[uintptr(info.Color)] = path
	}
	return info, nil
}

func (m *MockAPI) DeleteObject(bitmap HBITMAP) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.release(uintptr(bitmap), KindBitmap)
}

func (m *MockAPI) GetDIBits(dc HDC, bitmap HBITMAP, desc BitmapDescription, bits []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastDescription = desc

	if !m.use(uintptr(dc), KindDeviceContext) || !m.use(uintptr(bitmap), KindBitmap) {
		return 0, errors.New("mock: GetDIBits on invalid handle")
	}
	if m.failures.DIBits {
		return 0, errors.New("mock: GetDIBits failed")
	}
	if desc.BitCount != BitsPerPixel32 || desc.Compression != CompressionRGB || int(desc.SizeImage) != len(bits) {
		return 0, fmt.Errorf("mock: unsupported description %+v for %d bytes", desc, len(bits))
	}

	fill := m.icons[m.iconPaths[uintptr(bitmap)]].Fill
	for i := 0; i+3 < len(bits); i += BytesPerPixel {
		copy(bits[i:i+BytesPerPixel], fill[:])
	}
	return desc.Rows(), nil
}

func (m *MockAPI) ForegroundWindow() HWND {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.foreground
}

func (m *MockAPI) WindowText(hwnd HWND) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[hwnd]
	if !ok {
		return "", fmt.Errorf("mock: invalid window handle %#x", uintptr(hwnd))
	}
	return w.Title, w.TitleErr
}

func (m *MockAPI) WindowProcessID(hwnd HWND) (uint32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.windows[hwnd]
	if !ok || w.PID == 0 {
		if w.PIDErr != nil {
			return 0, w.PIDErr
		}
		return 0, ErrProcessNotFound
	}
	return w.PID, w.PIDErr
}

func (m *MockAPI) ProcessImagePath(pid uint32) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.processes[pid]
	if !ok {
		return "", fmt.Errorf("process %d: %w", pid, ErrProcessNotFound)
	}
	if p.Err != nil {
		return "", p.Err
	}
	return p.Path, nil
}

// Outstanding returns the number of handles acquired but not yet released
func (m *MockAPI) Outstanding() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, alive := range m.live {
		if alive {
			n++
		}
	}
	return n
}

// Acquired returns how many handles of kind were handed out
func (m *MockAPI) Acquired(kind HandleKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired[kind]
}

// Released returns how many handles of kind were released
func (m *MockAPI) Released(kind HandleKind) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[kind]
}

// Handles returns every handle of kind ever handed out, in allocation order
func (m *MockAPI) Handles(kind HandleKind) []uintptr {
	m.mu.Lock()
	defer m.mu.Unlock()
	var handles []uintptr
	for h, k := range m.kinds {
		if k == kind {
			handles = append(handles, h)
		}
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	return handles
}

// ReleaseCount returns how many times h was passed to its release call
func (m *MockAPI) ReleaseCount(h uintptr) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseCounts[h]
}

// DoubleReleases returns the number of release calls on already released handles
func (m *MockAPI) DoubleReleases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doubleReleases
}

// InvalidReleases returns the number of release calls with unknown or mismatched handles
func (m *MockAPI) InvalidReleases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.invalidReleases
}

// UseAfterRelease returns the number of calls that used a released handle
func (m *MockAPI) UseAfterRelease() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.useAfterRelease
}

// LastDescription returns the description passed to the most recent GetDIBits
func (m *MockAPI) LastDescription() BitmapDescription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastDescription
}

// ExtractCalls returns every ExtractIconEx invocation so far
func (m *MockAPI) ExtractCalls() []MockExtractCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockExtractCall(nil), m.extractCalls...)
}
