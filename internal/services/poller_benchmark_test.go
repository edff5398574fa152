package services

import (
	"testing"
	"time"

	"github.com/spf13/afero"

	"topdock/internal/foreground"
	"topdock/internal/icon"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/platform"
)

func newBenchPoller(b *testing.B, size icon.Size) *Poller {
	b.Helper()

	api := platform.NewMockAPI()
	api.SetForeground(0x10, platform.MockWindow{Title: "Notepad", PID: 1})
	api.AddProcess(1, platform.MockProcess{Path: notepadPath})
	api.AddIcon(notepadPath, platform.MockIcon{Small: true, Large: true})

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, notepadPath, []byte("MZ"), 0o644); err != nil {
		b.Fatalf("WriteFile() error = %v", err)
	}

	logger := logging.NewNopLogger()
	return NewPoller(
		foreground.NewResolver(api, fs, logger),
		icon.NewExtractor(api, logger),
		PollerConfig{Interval: time.Second, IconSize: size},
		logger,
	)
}

// Benchmark tests for performance validation
func BenchmarkPoller_TickSmall(b *testing.B) {
	poller := newBenchPoller(b, icon.Small)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = poller.Tick()
	}
}

func BenchmarkPoller_TickLarge(b *testing.B) {
	poller := newBenchPoller(b, icon.Large)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = poller.Tick()
	}
}

func BenchmarkPoller_ConcurrentLatest(b *testing.B) {
	poller := newBenchPoller(b, icon.Small)
	poller.Tick()

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			_, _ = poller.Latest()
		}
	})
}

func BenchmarkBGRAToRGBA_Large(b *testing.B) {
	buf := make([]byte, icon.Large.ByteLen())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		icon.BGRAToRGBA(buf)
	}
}
