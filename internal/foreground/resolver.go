package foreground

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"

	"topdock/internal/infrastructure/errors"
	"topdock/internal/infrastructure/logging"
	"topdock/internal/platform"
)

// UnknownTitle is shown when the foreground window has no usable title.
const UnknownTitle = "Unknown App"

// Info describes the focused window. ExecutablePath is only meaningful when
// HasExecutable is true.
type Info struct {
	Title          string `json:"title"`
	ExecutablePath string `json:"executable_path,omitempty"`
	HasExecutable  bool   `json:"has_executable"`
}

// Path returns the executable path and whether it is present
func (i Info) Path() (string, bool) {
	return i.ExecutablePath, i.HasExecutable
}

func unknownInfo() Info {
	return Info{Title: UnknownTitle}
}

// Resolver finds the foreground window and the executable that owns it.
type Resolver struct {
	api    platform.WindowAPI
	fs     afero.Fs
	logger logging.Logger
}

// NewResolver creates a resolver. A nil fs means the OS filesystem.
func NewResolver(api platform.WindowAPI, fs afero.Fs, logger logging.Logger) *Resolver {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &Resolver{api: api, fs: fs, logger: logger}
}

// Resolve never fails; every failure degrades to UnknownTitle or an absent path.
func (r *Resolver) Resolve() Info {
	info, failure := r.ResolveDetailed()
	if failure != nil {
		r.logger.Debug("Foreground resolution degraded",
			"error_code", failure.Code.String(),
			"title", info.Title,
			"error", failure.Err,
		)
	}
	return info
}

// ResolveDetailed is Resolve plus the failure, if any, that degraded the
// result. The title is still valid when only the path lookup failed.
func (r *Resolver) ResolveDetailed() (Info, *errors.ResolveFailure) {
	hwnd := r.api.ForegroundWindow()
	if hwnd == 0 {
		return unknownInfo(), &errors.ResolveFailure{Code: errors.ErrCodeNoForegroundWindow}
	}

	info := unknownInfo()
	title, err := r.api.WindowText(hwnd)
	if err != nil {
		r.logger.Debug("Failed to read window title", "hwnd", uintptr(hwnd), "error", err)
	} else if t := strings.TrimSpace(title); t != "" {
		info.Title = title
	}

	pid, err := r.api.WindowProcessID(hwnd)
	if err != nil {
		return info, r.failure(err)
	}

	path, err := r.api.ProcessImagePath(pid)
	if err != nil {
		return info, r.failure(err)
	}
	if path == "" {
		return info, r.failure(fmt.Errorf("process %d: empty image path: %w", pid, platform.ErrProcessNotFound))
	}

	if err := r.checkPath(path); err != nil {
		return info, r.failure(err)
	}

	info.ExecutablePath = path
	info.HasExecutable = true
	return info, nil
}

// checkPath confirms path names an existing regular file
func (r *Resolver) checkPath(path string) error {
	stat, err := r.fs.Stat(path)
	if err != nil {
		return err
	}
	if stat.IsDir() {
		return fmt.Errorf("%s is a directory: %w", path, afero.ErrFileNotFound)
	}
	return nil
}

func (r *Resolver) failure(err error) *errors.ResolveFailure {
	failure := errors.NewResolveFailure(err)
	if failure.Code == errors.ErrCodeUnknown {
		r.logger.Warn("Unclassified foreground resolution failure", "error", err)
	}
	return failure
}
