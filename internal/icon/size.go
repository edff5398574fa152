package icon

import (
	"fmt"
	"strings"

	"topdock/internal/platform"
)

// Size selects which of the shell's two icon slots is extracted.
type Size int

const (
	Small Size = iota // 16x16
	Large             // 32x32
)

// Dimensions returns the fixed pixel width and height of the size class
func (s Size) Dimensions() (width, height int) {
	switch s {
	case Large:
		return 32, 32
	default:
		return 16, 16
	}
}

// ByteLen returns the length of an RGBA buffer of this size
func (s Size) ByteLen() int {
	w, h := s.Dimensions()
	return w * h * platform.BytesPerPixel
}

func (s Size) String() string {
	switch s {
	case Small:
		return "small"
	case Large:
		return "large"
	default:
		return fmt.Sprintf("Size(%d)", int(s))
	}
}

// Valid reports whether s is one of the declared size classes
func (s Size) Valid() bool {
	return s == Small || s == Large
}

func (s Size) slot() platform.IconSlot {
	if s == Large {
		return platform.SlotLarge
	}
	return platform.SlotSmall
}

// ParseSize parses "small" or "large", case-insensitively
func ParseSize(value string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "small":
		return Small, nil
	case "large":
		return Large, nil
	default:
		return Small, fmt.Errorf("unknown icon size %q (want small or large)", value)
	}
}
