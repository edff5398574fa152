package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the structured logger every topdock component takes
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Options configures NewLogger
type Options struct {
	Level  string    // debug, info, warn or error; empty means info
	Pretty bool      // human readable console output instead of JSON
	Output io.Writer // defaults to os.Stderr
}

// DefaultLogger writes structured entries through zerolog
type DefaultLogger struct {
	z zerolog.Logger
}

// NewDefaultLogger creates a JSON logger at info level on stderr
func NewDefaultLogger() Logger {
	return NewLogger(Options{})
}

// NewLogger creates a logger from opts. An unknown level falls back to info.
func NewLogger(opts Options) Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	return &DefaultLogger{
		z: zerolog.New(out).Level(level).With().Timestamp().Logger(),
	}
}

// ParseLevel maps a configured level name onto a zerolog level
func ParseLevel(level string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// fieldsToMap converts the variadic fields slice to a map
// Expected format: key1, value1, key2, value2, ...
func fieldsToMap(fields []interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for i := 0; i < len(fields); i += 2 {
		if i+1 < len(fields) {
			if key, ok := fields[i].(string); ok {
				result[key] = normalizeValue(fields[i+1])
			} else {
				// If key is not a string, use index as key
				result[fmt.Sprintf("field_%d", i/2)] = fields[i]
				result[fmt.Sprintf("field_%d_value", i/2)] = normalizeValue(fields[i+1])
			}
		} else {
			// Odd number of fields, add the last one with an index key
			result[fmt.Sprintf("field_%d", i/2)] = normalizeValue(fields[i])
		}
	}

	return result
}

// normalizeValue renders errors as their message; zerolog would otherwise
// marshal most error types as an empty object.
func normalizeValue(v interface{}) interface{} {
	if err, ok := v.(error); ok && err != nil {
		return err.Error()
	}
	return v
}

func (l *DefaultLogger) Debug(msg string, fields ...interface{}) {
	l.z.Debug().Fields(fieldsToMap(fields)).Msg(msg)
}

func (l *DefaultLogger) Info(msg string, fields ...interface{}) {
	l.z.Info().Fields(fieldsToMap(fields)).Msg(msg)
}

func (l *DefaultLogger) Warn(msg string, fields ...interface{}) {
	l.z.Warn().Fields(fieldsToMap(fields)).Msg(msg)
}

func (l *DefaultLogger) Error(msg string, fields ...interface{}) {
	l.z.Error().Fields(fieldsToMap(fields)).Msg(msg)
}

// NopLogger discards everything
type NopLogger struct{}

// NewNopLogger creates a logger that discards all entries
func NewNopLogger() Logger { return NopLogger{} }

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

// CodedError is implemented by errors that carry a classification code
type CodedError interface {
	Error() string
	GetCode() string
	GetContext() map[string]string
	GetTimestamp() time.Time
}

// LogError logs err with its classification and the given context
func LogError(logger Logger, err error, operation string, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	if coded, ok := err.(CodedError); ok {
		fields := []interface{}{
			"operation", operation,
			"error_code", coded.GetCode(),
			"timestamp", coded.GetTimestamp(),
		}

		for k, v := range coded.GetContext() {
			fields = append(fields, k, v)
		}

		for k, v := range context {
			fields = append(fields, k, v)
		}

		logger.Error(fmt.Sprintf("Operation failed: %s", err.Error()), fields...)
		return
	}

	fields := []interface{}{
		"operation", operation,
		"error_type", fmt.Sprintf("%T", err),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Error(fmt.Sprintf("Unexpected error: %s", err.Error()), fields...)
}

// LogOperation logs a completed operation and how long it took
func LogOperation(logger Logger, operation string, duration time.Duration, context map[string]interface{}) {
	if logger == nil {
		logger = NewDefaultLogger()
	}

	fields := []interface{}{
		"operation", operation,
		"duration_ms", duration.Milliseconds(),
	}

	for k, v := range context {
		fields = append(fields, k, v)
	}

	logger.Info(fmt.Sprintf("Operation completed: %s", operation), fields...)
}
