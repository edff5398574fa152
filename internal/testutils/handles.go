package testutils

// HandleCounter is implemented by mock OS layers that track handle lifetimes.
type HandleCounter interface {
	Outstanding() int
	DoubleReleases() int
	InvalidReleases() int
	UseAfterRelease() int
}

// AssertNoLeaks reports every handle still outstanding and every misuse the
// counter recorded. It returns true when the counter is clean.
func AssertNoLeaks(t TestingT, c HandleCounter) bool {
	clean := true

	if n := c.Outstanding(); n != 0 {
		t.Errorf("Expected no outstanding handles, got %d", n)
		clean = false
	}
	if n := c.DoubleReleases(); n != 0 {
		t.Errorf("Expected no double releases, got %d", n)
		clean = false
	}
	if n := c.InvalidReleases(); n != 0 {
		t.Errorf("Expected no invalid releases, got %d", n)
		clean = false
	}
	if n := c.UseAfterRelease(); n != 0 {
		t.Errorf("Expected no use after release, got %d", n)
		clean = false
	}

	return clean
}
