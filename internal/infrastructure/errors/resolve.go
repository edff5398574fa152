package errors

import (
	"errors"
	"io/fs"

	"topdock/internal/platform"
)

// ResolveFailure records why foreground resolution fell back to a sentinel.
// It is never returned as an error from Resolve; callers inspect it to tell
// the degraded cases apart.
type ResolveFailure struct {
	Code ErrorCode
	Err  error
}

func (f *ResolveFailure) Error() string {
	if f == nil {
		return "resolve failure"
	}
	if f.Err != nil {
		return f.Code.String() + ": " + f.Err.Error()
	}
	return f.Code.String()
}

func (f *ResolveFailure) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// NewResolveFailure classifies err and wraps it
func NewResolveFailure(err error) *ResolveFailure {
	return &ResolveFailure{Code: ClassifyProcessError(err), Err: err}
}

// ClassifyProcessError maps process introspection and path checks onto the
// enumerated resolve failures. Anything else is ErrCodeUnknown.
func ClassifyProcessError(err error) ErrorCode {
	switch {
	case err == nil:
		return ErrCodeUnknown
	case errors.Is(err, platform.ErrAccessDenied), errors.Is(err, fs.ErrPermission):
		return ErrCodeAccessDenied
	case errors.Is(err, platform.ErrProcessNotFound):
		return ErrCodeProcessNotFound
	case errors.Is(err, fs.ErrNotExist):
		return ErrCodePathNotFound
	case errors.Is(err, platform.ErrUnsupported):
		return ErrCodeUnsupported
	default:
		return ErrCodeUnknown
	}
}

// IsAccessDenied checks if the owning process could not be inspected
func IsAccessDenied(err error) bool {
	return ClassifyProcessError(err) == ErrCodeAccessDenied
}

// IsProcessNotFound checks if the owning process no longer exists
func IsProcessNotFound(err error) bool {
	return ClassifyProcessError(err) == ErrCodeProcessNotFound
}

// IsPathNotFound checks if the resolved executable is missing on disk
func IsPathNotFound(err error) bool {
	return ClassifyProcessError(err) == ErrCodePathNotFound
}
