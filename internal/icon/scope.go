package icon

import "topdock/internal/infrastructure/logging"

type release struct {
	name string
	fn   func() error
}

// releaseScope runs registered release calls exactly once, newest first.
// It is used with defer so every exit path of Extract frees its handles.
type releaseScope struct {
	logger   logging.Logger
	releases []release
	closed   bool
}

func newReleaseScope(logger logging.Logger) *releaseScope {
	return &releaseScope{logger: logger}
}

func (s *releaseScope) add(name string, fn func() error) {
	s.releases = append(s.releases, release{name: name, fn: fn})
}

// close releases everything. Failures are logged and do not stop the
// remaining releases.
func (s *releaseScope) close() {
	if s.closed {
		return
	}
	s.closed = true

	for i := len(s.releases) - 1; i >= 0; i-- {
		r := s.releases[i]
		if err := r.fn(); err != nil {
			s.logger.Warn("Failed to release handle", "handle", r.name, "error", err)
		}
	}
	s.releases = nil
}
