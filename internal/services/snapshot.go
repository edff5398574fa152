package services

import (
	"time"

	"topdock/internal/foreground"
	"topdock/internal/icon"
)

// Snapshot is what one poll tick observed.
type Snapshot struct {
	Sequence   uint64
	CapturedAt time.Time
	Window     foreground.Info
	IconSize   icon.Size
	Icon       *icon.PixelBuffer
	// IconReason is the extraction failure code when an executable was
	// found but its icon could not be copied.
	IconReason string
}

// HasIcon reports whether the snapshot carries pixels
func (s Snapshot) HasIcon() bool {
	return s.Icon != nil
}

// SameAs reports whether s and other would look the same on screen.
// Sequence, capture time and pixel contents are ignored.
func (s Snapshot) SameAs(other Snapshot) bool {
	return s.Window == other.Window &&
		s.HasIcon() == other.HasIcon() &&
		s.IconReason == other.IconReason
}

// Sink receives snapshots whenever the foreground changes.
type Sink interface {
	Publish(snapshot Snapshot)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(Snapshot)

func (f SinkFunc) Publish(snapshot Snapshot) { f(snapshot) }
