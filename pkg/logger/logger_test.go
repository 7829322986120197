/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{TraceLevel, "TRACE"},
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"}, // Invalid level
	}

	for _, test := range tests {
		if result := test.level.String(); result != test.expected {
			t.Errorf("Level.String() = %v, expected %v", result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]Level{
		"trace": TraceLevel,
		"debug": DebugLevel,
		"info":  InfoLevel,
		"warn":  WarnLevel,
		"ERROR": ErrorLevel,
	} {
		got, err := ParseLevel(name)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v; expected %v", name, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("ParseLevel accepted an unknown level")
	}
}

func TestLoggerInitialization(t *testing.T) {
	config := Config{
		Level:     InfoLevel,
		Component: "test",
	}

	err := Initialize(config)
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}

	if defaultLogger == nil {
		t.Fatal("Initialize() did not set defaultLogger")
	}

	if defaultLogger.config.Component != "test" {
		t.Errorf("Initialize() did not set config correctly, got component: %s", defaultLogger.config.Component)
	}
}

func TestLoggerPrettyFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: InfoLevel, Component: "test"}, &buf)

	logger.Log(InfoLevel, "test message", String("key", "value"))

	result := buf.String()
	expectedParts := []string{
		"[INFO]",
		"test:",
		"test message",
		"key",
		"value",
	}
	for _, part := range expectedParts {
		if !strings.Contains(result, part) {
			t.Errorf("pretty output missing expected part: %s\nResult: %s", part, result)
		}
	}
	if strings.Contains(result, "[NO-OP]") {
		t.Errorf("unexpected no-op marker: %s", result)
	}
}

func TestLoggerNoOpMarker(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: InfoLevel, Component: "test", NoOp: true}, &buf)

	logger.Log(InfoLevel, "would write file")

	if !strings.Contains(buf.String(), "[NO-OP] would write file") {
		t.Errorf("no-op marker missing: %s", buf.String())
	}
}

func TestLoggerJSONFormatting(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: InfoLevel, JSON: true, Component: "test"}, &buf)

	logger.Log(InfoLevel, "test message", String("key", "value"), Int("count", 2))

	output := strings.TrimSpace(buf.String())
	if !strings.HasPrefix(output, "{") {
		t.Errorf("Log() with JSON config did not produce JSON output: %s", output)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(output), &parsed); err != nil {
		t.Fatalf("Log() produced invalid JSON: %v\nOutput: %s", err, output)
	}

	if parsed["message"] != "test message" {
		t.Errorf("Parsed JSON message = %v, expected 'test message'", parsed["message"])
	}
	if parsed["level"] != "INFO" {
		t.Errorf("Parsed JSON level = %v, expected 'INFO'", parsed["level"])
	}
	if parsed["component"] != "test" {
		t.Errorf("Parsed JSON component = %v, expected 'test'", parsed["component"])
	}
	if parsed["key"] != "value" || parsed["count"] != float64(2) {
		t.Errorf("Parsed JSON fields wrong: %v", parsed)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: WarnLevel, Component: "test"}, &buf)

	// These should not appear in output
	logger.Log(InfoLevel, "info message")
	logger.Log(DebugLevel, "debug message")
	logger.Log(TraceLevel, "trace message")

	// This should appear
	logger.Log(WarnLevel, "warn message")
	logger.Log(ErrorLevel, "error message")

	output := buf.String()

	for _, hidden := range []string{"info message", "debug message", "trace message"} {
		if strings.Contains(output, hidden) {
			t.Errorf("%q should be filtered out", hidden)
		}
	}
	if !strings.Contains(output, "warn message") {
		t.Error("WARN level message should appear")
	}
	if !strings.Contains(output, "[ERROR]") {
		t.Error("ERROR level message should appear")
	}
}

func TestTraceLevelOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: TraceLevel}, &buf)

	logger.Log(TraceLevel, "trace message")

	if !strings.Contains(buf.String(), "[TRACE]") || !strings.Contains(buf.String(), "trace message") {
		t.Errorf("trace output wrong: %s", buf.String())
	}
}

func TestFieldConstructors(t *testing.T) {
	stringField := String("key", "value")
	if stringField.Key != "key" || stringField.Value != "value" {
		t.Errorf("String() = %+v, expected {Key: 'key', Value: 'value'}", stringField)
	}

	intField := Int("count", 42)
	if intField.Key != "count" || intField.Value != 42 {
		t.Errorf("Int() = %+v, expected {Key: 'count', Value: 42}", intField)
	}

	boolField := Bool("enabled", true)
	if boolField.Key != "enabled" || boolField.Value != true {
		t.Errorf("Bool() = %+v, expected {Key: 'enabled', Value: true}", boolField)
	}
}

func TestErrField(t *testing.T) {
	testErr := &testError{message: "test error"}
	errField := Err(testErr)

	if errField.Key != "error" {
		t.Errorf("Err() key = %v, expected 'error'", errField.Key)
	}

	if errField.Value != "test error" {
		t.Errorf("Err() value = %v, expected 'test error'", errField.Value)
	}
}

func TestConvenienceFunctions(t *testing.T) {
	_ = Initialize(Config{Level: InfoLevel, Component: "test"})

	var buf bytes.Buffer
	SetOutput(&buf)

	Info("test info message")

	output := buf.String()
	if !strings.Contains(output, "test info message") {
		t.Errorf("Info() did not produce expected output: %s", output)
	}

	// filtered, but must not panic
	Debug("test debug message")
	Trace("test trace message")
	Warn("test warn message")
	Error("test error message")
	Sync()

	if strings.Contains(buf.String(), "test debug message") {
		t.Error("Debug() should be filtered at info level")
	}
}

func TestFallbackLogging(t *testing.T) {
	originalLogger := defaultLogger
	defaultLogger = nil
	defer func() { defaultLogger = originalLogger }()

	// This should use fallback logging to stderr
	Info("fallback test message")
	Warn("dropped without a logger")
}

func TestSetOutput(t *testing.T) {
	var buf bytes.Buffer

	_ = Initialize(Config{Level: InfoLevel, Component: "test"})
	SetOutput(&buf)

	Info("output test message")

	output := buf.String()
	if !strings.Contains(output, "output test message") {
		t.Errorf("SetOutput() did not redirect output correctly: %s", output)
	}
}

// testError implements error interface for testing
type testError struct {
	message string
}

func (e *testError) Error() string {
	return e.message
}
