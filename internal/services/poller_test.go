package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"topdock/internal/foreground"
	"topdock/internal/icon"
	"topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/platform"
	"topdock/internal/testutils"
)

const notepadPath = `C:\Windows\System32\notepad.exe`

type fakeWindows struct {
	mu   sync.Mutex
	info foreground.Info
}

func (f *fakeWindows) set(info foreground.Info) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.info = info
}

func (f *fakeWindows) Resolve() foreground.Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info
}

type fakeIcons struct {
	mu    sync.Mutex
	err   error
	calls []string
	sizes []icon.Size
}

func (f *fakeIcons) Extract(path string, size icon.Size) (*icon.PixelBuffer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	f.sizes = append(f.sizes, size)
	if f.err != nil {
		return nil, f.err
	}
	w, h := size.Dimensions()
	return &icon.PixelBuffer{Width: w, Height: h, Pix: make([]byte, size.ByteLen())}, nil
}

func (f *fakeIcons) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type recordingSink struct {
	mu        sync.Mutex
	snapshots []Snapshot
	notify    chan Snapshot
}

func (r *recordingSink) Publish(s Snapshot) {
	r.mu.Lock()
	r.snapshots = append(r.snapshots, s)
	r.mu.Unlock()
	if r.notify != nil {
		select {
		case r.notify <- s:
		default:
		}
	}
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func notepadInfo() foreground.Info {
	return foreground.Info{Title: "Notepad", ExecutablePath: notepadPath, HasExecutable: true}
}

func newTestPoller(windows *fakeWindows, icons *fakeIcons) (*Poller, *recordingSink) {
	poller := NewPoller(windows, icons, PollerConfig{Interval: 5 * time.Millisecond}, logging.NewNopLogger())
	sink := &recordingSink{}
	poller.AddSink(sink)
	return poller, sink
}

func TestNewPoller_Defaults(t *testing.T) {
	poller := NewPoller(&fakeWindows{}, &fakeIcons{}, PollerConfig{}, nil)

	if poller.config.Interval != DefaultPollInterval {
		t.Errorf("Interval = %v, want %v", poller.config.Interval, DefaultPollInterval)
	}
	if poller.logger == nil {
		t.Error("Expected a default logger")
	}
	if _, ok := poller.Latest(); ok {
		t.Error("Latest() should report no snapshot before the first tick")
	}
}

func TestPoller_TickWithIcon(t *testing.T) {
	windows := &fakeWindows{info: notepadInfo()}
	icons := &fakeIcons{}
	poller, sink := newTestPoller(windows, icons)

	snapshot := poller.Tick()

	if !snapshot.HasIcon() || len(snapshot.Icon.Pix) != 1024 {
		t.Fatalf("Expected a small icon, got %+v", snapshot.Icon)
	}
	if snapshot.Window.Title != "Notepad" || snapshot.Sequence != 1 {
		t.Errorf("snapshot = %+v", snapshot)
	}
	if icons.sizes[0] != icon.Small {
		t.Errorf("Expected the small icon to be requested, got %v", icons.sizes[0])
	}
	if sink.count() != 1 {
		t.Errorf("Expected 1 publish, got %d", sink.count())
	}

	latest, ok := poller.Latest()
	if !ok || latest.Sequence != 1 {
		t.Errorf("Latest() = %+v, %v", latest, ok)
	}
}

func TestPoller_PublishesOnlyOnChange(t *testing.T) {
	windows := &fakeWindows{info: notepadInfo()}
	poller, sink := newTestPoller(windows, &fakeIcons{})

	poller.Tick()
	poller.Tick()
	poller.Tick()
	if sink.count() != 1 {
		t.Fatalf("Expected 1 publish for an unchanged window, got %d", sink.count())
	}

	windows.set(foreground.Info{Title: "Calculator", ExecutablePath: `C:\calc.exe`, HasExecutable: true})
	snapshot := poller.Tick()
	if sink.count() != 2 {
		t.Fatalf("Expected a publish after the window changed, got %d", sink.count())
	}
	if snapshot.Sequence != 2 {
		t.Errorf("Sequence = %d, want 2", snapshot.Sequence)
	}

	unchanged := poller.Tick()
	if unchanged.Sequence != 2 {
		t.Errorf("Sequence of an unchanged tick = %d, want 2", unchanged.Sequence)
	}
}

func TestPoller_AbsentPathSkipsExtraction(t *testing.T) {
	windows := &fakeWindows{info: foreground.Info{Title: "Task Manager"}}
	icons := &fakeIcons{}
	poller, _ := newTestPoller(windows, icons)

	snapshot := poller.Tick()

	if snapshot.HasIcon() || snapshot.IconReason != "" {
		t.Errorf("Expected no icon and no reason, got %+v", snapshot)
	}
	if icons.callCount() != 0 {
		t.Errorf("Expected no extraction, got %d calls", icons.callCount())
	}
}

func TestPoller_ExtractionFailureKeepsTitle(t *testing.T) {
	windows := &fakeWindows{info: notepadInfo()}
	icons := &fakeIcons{err: errors.NewExtractionError("extract", nil, errors.ErrCodeNoIconForPath)}
	poller, sink := newTestPoller(windows, icons)

	snapshot := poller.Tick()

	if snapshot.HasIcon() {
		t.Error("Expected no icon")
	}
	if snapshot.IconReason != "NO_ICON_FOR_PATH" {
		t.Errorf("IconReason = %q", snapshot.IconReason)
	}
	if snapshot.Window.Title != "Notepad" {
		t.Errorf("Title = %q", snapshot.Window.Title)
	}

	// recovery publishes again
	icons.mu.Lock()
	icons.err = nil
	icons.mu.Unlock()
	poller.Tick()
	if sink.count() != 2 {
		t.Errorf("Expected a publish when the icon became available, got %d", sink.count())
	}
}

func TestPoller_StartStop(t *testing.T) {
	windows := &fakeWindows{info: notepadInfo()}
	poller, sink := newTestPoller(windows, &fakeIcons{})
	sink.notify = make(chan Snapshot, 4)

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := poller.Start(context.Background()); err != ErrPollerRunning {
		t.Errorf("second Start() error = %v, want ErrPollerRunning", err)
	}

	select {
	case <-sink.notify:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected a snapshot from the polling loop")
	}

	windows.set(foreground.Info{Title: "Paint"})
	select {
	case s := <-sink.notify:
		if s.Window.Title != "Paint" {
			t.Errorf("Title = %q, want Paint", s.Window.Title)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the change to be published")
	}

	poller.Stop()
	poller.Stop()

	if err := poller.Start(context.Background()); err != nil {
		t.Fatalf("restart error = %v", err)
	}
	poller.Stop()
}

func TestPoller_ContextCancellation(t *testing.T) {
	poller, _ := newTestPoller(&fakeWindows{}, &fakeIcons{})

	ctx, cancel := context.WithCancel(context.Background())
	if err := poller.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	stopped := make(chan struct{})
	go func() {
		poller.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not return after cancellation")
	}
}

func TestPoller_WithMockOS(t *testing.T) {
	api := platform.NewMockAPI()
	api.SetForeground(0x20, platform.MockWindow{Title: "Notepad", PID: 9})
	api.AddProcess(9, platform.MockProcess{Path: notepadPath})
	api.AddIcon(notepadPath, platform.MockIcon{Small: true, Large: true})

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, notepadPath, []byte("MZ"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	logger := logging.NewNopLogger()
	poller := NewPoller(
		foreground.NewResolver(api, fs, logger),
		icon.NewExtractor(api, logger),
		PollerConfig{Interval: time.Millisecond, IconSize: icon.Large},
		logger,
	)

	for i := 0; i < 20; i++ {
		snapshot := poller.Tick()
		if len(snapshot.Icon.Pix) != 4096 {
			t.Fatalf("tick %d: len(Pix) = %d", i, len(snapshot.Icon.Pix))
		}
	}

	testutils.AssertNoLeaks(t, api)
}

func TestLogSink_Publish(t *testing.T) {
	logger := &captureLogger{}
	sink := NewLogSink(logger)

	sink.Publish(Snapshot{
		Sequence:   3,
		Window:     notepadInfo(),
		IconReason: "PIXEL_COPY_FAILED",
	})

	if len(logger.infos) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(logger.infos))
	}
	fields := testutils.FieldsToMap(t, logger.infos[0].fields)
	expected := map[string]interface{}{
		"sequence":        uint64(3),
		"title":           "Notepad",
		"has_icon":        false,
		"executable_path": notepadPath,
		"icon_reason":     "PIXEL_COPY_FAILED",
	}
	for key, want := range expected {
		if fields[key] != want {
			t.Errorf("field %q = %v, want %v", key, fields[key], want)
		}
	}
}

type logCall struct {
	msg    string
	fields []interface{}
}

type captureLogger struct {
	logging.NopLogger
	infos []logCall
}

func (c *captureLogger) Info(msg string, fields ...interface{}) {
	c.infos = append(c.infos, logCall{msg: msg, fields: fields})
}
