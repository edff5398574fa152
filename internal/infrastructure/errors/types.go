package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies icon extraction and foreground resolution failures
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeDeviceContextUnavailable
	ErrCodeNoIconForPath
	ErrCodeIconInfoUnavailable
	ErrCodePixelCopyFailed
	ErrCodeInvalidArgument
	ErrCodeNoForegroundWindow
	ErrCodeProcessNotFound
	ErrCodeAccessDenied
	ErrCodePathNotFound
	ErrCodeUnsupported
)

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	switch e {
	case ErrCodeDeviceContextUnavailable:
		return "DEVICE_CONTEXT_UNAVAILABLE"
	case ErrCodeNoIconForPath:
		return "NO_ICON_FOR_PATH"
	case ErrCodeIconInfoUnavailable:
		return "ICON_INFO_UNAVAILABLE"
	case ErrCodePixelCopyFailed:
		return "PIXEL_COPY_FAILED"
	case ErrCodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case ErrCodeNoForegroundWindow:
		return "NO_FOREGROUND_WINDOW"
	case ErrCodeProcessNotFound:
		return "PROCESS_NOT_FOUND"
	case ErrCodeAccessDenied:
		return "ACCESS_DENIED"
	case ErrCodePathNotFound:
		return "PATH_NOT_FOUND"
	case ErrCodeUnsupported:
		return "UNSUPPORTED"
	default:
		return "UNKNOWN"
	}
}

// ExtractionError reports why an icon could not be copied out of the shell
type ExtractionError struct {
	Op        string            // operation name
	Err       error             // underlying OS error, may be nil
	Reason    ErrorCode         // which step failed
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *ExtractionError) Error() string {
	if e == nil {
		return "extraction error"
	}

	var parts []string

	if e.Op != "" {
		parts = append(parts, fmt.Sprintf("op=%s", e.Op))
	}

	parts = append(parts, fmt.Sprintf("reason=%s", e.Reason.String()))

	// Context keys are sorted so the message is stable
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
		}
	}

	contextStr := fmt.Sprintf(" [%s]", strings.Join(parts, " "))

	if e.Err != nil {
		return e.Err.Error() + contextStr
	}
	return "extraction error" + contextStr
}

func (e *ExtractionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is implements error matching for errors.Is
func (e *ExtractionError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*ExtractionError); ok {
		return e.Reason == t.Reason
	}
	return false
}

// GetCode returns the reason as a string (for logging interface compatibility)
func (e *ExtractionError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Reason.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *ExtractionError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return make(map[string]string)
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *ExtractionError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext adds context information to the error by mutating the receiver.
// It must not be used once the error has been handed to another goroutine.
func (e *ExtractionError) WithContext(key, value string) *ExtractionError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewExtractionError creates a new extraction error with the given parameters
func NewExtractionError(op string, err error, reason ErrorCode) *ExtractionError {
	return &ExtractionError{
		Op:        op,
		Err:       err,
		Reason:    reason,
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewExtractionErrorWithContext creates a new extraction error with additional context
func NewExtractionErrorWithContext(op string, err error, reason ErrorCode, context map[string]string) *ExtractionError {
	extErr := NewExtractionError(op, err, reason)
	for k, v := range context {
		extErr.Context[k] = v
	}
	return extErr
}

// Sentinels for errors.Is matching against a reason.
var (
	ErrDeviceContextUnavailable = &ExtractionError{Reason: ErrCodeDeviceContextUnavailable}
	ErrNoIconForPath            = &ExtractionError{Reason: ErrCodeNoIconForPath}
	ErrIconInfoUnavailable      = &ExtractionError{Reason: ErrCodeIconInfoUnavailable}
	ErrPixelCopyFailed          = &ExtractionError{Reason: ErrCodePixelCopyFailed}
)

// ReasonOf returns the reason carried by err, or ErrCodeUnknown
func ReasonOf(err error) ErrorCode {
	var extErr *ExtractionError
	if errors.As(err, &extErr) {
		return extErr.Reason
	}
	return ErrCodeUnknown
}

// IsDeviceContextUnavailable checks if no device context could be acquired
func IsDeviceContextUnavailable(err error) bool {
	return ReasonOf(err) == ErrCodeDeviceContextUnavailable
}

// IsNoIconForPath checks if the path has no associated icon
func IsNoIconForPath(err error) bool {
	return ReasonOf(err) == ErrCodeNoIconForPath
}

// IsIconInfoUnavailable checks if the icon's bitmaps could not be queried
func IsIconInfoUnavailable(err error) bool {
	return ReasonOf(err) == ErrCodeIconInfoUnavailable
}

// IsPixelCopyFailed checks if no pixel rows could be copied
func IsPixelCopyFailed(err error) bool {
	return ReasonOf(err) == ErrCodePixelCopyFailed
}

// IsInvalidArgument checks if the caller passed an unusable argument
func IsInvalidArgument(err error) bool {
	return ReasonOf(err) == ErrCodeInvalidArgument
}
