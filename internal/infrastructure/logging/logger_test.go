package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"topdock/internal/testutils"
)

// Mock CodedError for testing
type mockCodedError struct {
	message   string
	code      string
	context   map[string]string
	timestamp time.Time
}

func (m *mockCodedError) Error() string {
	return m.message
}

func (m *mockCodedError) GetCode() string {
	return m.code
}

func (m *mockCodedError) GetContext() map[string]string {
	return m.context
}

func (m *mockCodedError) GetTimestamp() time.Time {
	return m.timestamp
}

// Mock Logger for testing
type mockLogger struct {
	debugCalls []logCall
	infoCalls  []logCall
	warnCalls  []logCall
	errorCalls []logCall
}

type logCall struct {
	msg    string
	fields []interface{}
}

func (m *mockLogger) Debug(msg string, fields ...interface{}) {
	m.debugCalls = append(m.debugCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Info(msg string, fields ...interface{}) {
	m.infoCalls = append(m.infoCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Warn(msg string, fields ...interface{}) {
	m.warnCalls = append(m.warnCalls, logCall{msg: msg, fields: fields})
}

func (m *mockLogger) Error(msg string, fields ...interface{}) {
	m.errorCalls = append(m.errorCalls, logCall{msg: msg, fields: fields})
}

func decodeEntry(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("Failed to parse JSON log entry: %v, output: %q", err, line)
	}
	return entry
}

func TestNewDefaultLogger(t *testing.T) {
	logger := NewDefaultLogger()
	if logger == nil {
		t.Fatal("NewDefaultLogger() returned nil")
	}

	if _, ok := logger.(*DefaultLogger); !ok {
		t.Errorf("NewDefaultLogger() returned %T, expected *DefaultLogger", logger)
	}
}

func TestDefaultLogger_LogLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "debug", Output: &buf})

	tests := []struct {
		name           string
		logFunc        func(string, ...interface{})
		message        string
		fields         []interface{}
		levelToken     string
		expectedFields map[string]interface{}
	}{
		{
			name:           "Debug",
			logFunc:        logger.Debug,
			message:        "debug message",
			fields:         []interface{}{"key", "value"},
			levelToken:     "debug",
			expectedFields: map[string]interface{}{"key": "value"},
		},
		{
			name:           "Info",
			logFunc:        logger.Info,
			message:        "info message",
			fields:         []interface{}{"count", 42},
			levelToken:     "info",
			expectedFields: map[string]interface{}{"count": float64(42)}, // JSON numbers are float64
		},
		{
			name:           "Warn",
			logFunc:        logger.Warn,
			message:        "warn message",
			fields:         []interface{}{},
			levelToken:     "warn",
			expectedFields: map[string]interface{}{},
		},
		{
			name:           "Error",
			logFunc:        logger.Error,
			message:        "error message",
			fields:         []interface{}{"error", errors.New("test error")},
			levelToken:     "error",
			expectedFields: map[string]interface{}{"error": "test error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.logFunc(tt.message, tt.fields...)

			entry := decodeEntry(t, strings.TrimSpace(buf.String()))

			if entry["time"] == nil {
				t.Error("Expected log entry to have time field")
			}

			if entry["level"] != tt.levelToken {
				t.Errorf("Expected level %q, got %q", tt.levelToken, entry["level"])
			}

			if entry["message"] != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, entry["message"])
			}

			for key, expectedValue := range tt.expectedFields {
				actualValue, exists := entry[key]
				if !exists {
					t.Errorf("Expected field %q to exist", key)
					continue
				}
				if actualValue != expectedValue {
					t.Errorf("Expected field %q to be %v, got %v", key, expectedValue, actualValue)
				}
			}
		})
	}
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Level: "warn", Output: &buf})

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("Expected debug and info to be filtered, got %q", buf.String())
	}

	logger.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected warn entry, got %q", buf.String())
	}
}

func TestDefaultLogger_MalformedFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Options{Output: &buf})

	logger.Info("odd fields", 7, "seven", "dangling")

	entry := decodeEntry(t, strings.TrimSpace(buf.String()))
	if entry["field_0"] != float64(7) || entry["field_0_value"] != "seven" {
		t.Errorf("Expected non-string key to be indexed, got %v", entry)
	}
	if entry["field_1"] != "dangling" {
		t.Errorf("Expected dangling value under field_1, got %v", entry["field_1"])
	}
}

func TestParseLevel(t *testing.T) {
	valid := []string{"debug", "INFO", "", "warn", "warning", "error"}
	for _, level := range valid {
		if _, err := ParseLevel(level); err != nil {
			t.Errorf("ParseLevel(%q) unexpected error = %v", level, err)
		}
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("ParseLevel(verbose) should fail")
	}
}

func TestLogError_WithCodedError(t *testing.T) {
	mockLog := &mockLogger{}

	codedErr := &mockCodedError{
		message:   "GetDIBits failed",
		code:      "PIXEL_COPY_FAILED",
		context:   map[string]string{"path": "app.exe", "size": "small"},
		timestamp: time.Now(),
	}

	LogError(mockLog, codedErr, "extract", map[string]interface{}{"tick": 3})

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Operation failed: GetDIBits failed") {
		t.Errorf("Expected message to contain the failure, got %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)

	expectedFields := map[string]interface{}{
		"operation":  "extract",
		"error_code": "PIXEL_COPY_FAILED",
		"path":       "app.exe",
		"size":       "small",
		"tick":       3,
	}

	for key, expected := range expectedFields {
		if actual, exists := fieldsMap[key]; !exists {
			t.Errorf("Expected field %q not found in log call", key)
		} else if actual != expected {
			t.Errorf("Field %q: expected %v, got %v", key, expected, actual)
		}
	}
}

func TestLogError_WithRegularError(t *testing.T) {
	mockLog := &mockLogger{}

	LogError(mockLog, errors.New("regular error"), "resolve", map[string]interface{}{"context": "value"})

	if len(mockLog.errorCalls) != 1 {
		t.Fatalf("Expected 1 error call, got %d", len(mockLog.errorCalls))
	}

	call := mockLog.errorCalls[0]
	if !strings.Contains(call.msg, "Unexpected error: regular error") {
		t.Errorf("Expected message to contain unexpected error, got %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)
	if fieldsMap["operation"] != "resolve" {
		t.Errorf("Expected operation field to be 'resolve', got %v", fieldsMap["operation"])
	}
	if fieldsMap["error_type"] != "*errors.errorString" {
		t.Errorf("Expected error_type *errors.errorString, got %v", fieldsMap["error_type"])
	}
}

func TestLogOperation(t *testing.T) {
	mockLog := &mockLogger{}

	LogOperation(mockLog, "startup", 150*time.Millisecond, map[string]interface{}{"poll_interval": "500ms"})

	if len(mockLog.infoCalls) != 1 {
		t.Fatalf("Expected 1 info call, got %d", len(mockLog.infoCalls))
	}

	call := mockLog.infoCalls[0]
	if call.msg != "Operation completed: startup" {
		t.Errorf("Unexpected message %q", call.msg)
	}

	fieldsMap := testutils.FieldsToMap(t, call.fields)
	if fieldsMap["duration_ms"] != int64(150) {
		t.Errorf("Expected duration_ms 150, got %v", fieldsMap["duration_ms"])
	}
	if fieldsMap["poll_interval"] != "500ms" {
		t.Errorf("Expected poll_interval field, got %v", fieldsMap["poll_interval"])
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Debug("x", "k", "v")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
}
