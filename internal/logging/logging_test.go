package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

// captureLogOutput captures log output for testing by temporarily
// redirecting the logger to write to a buffer
func captureLogOutput(f func()) string {
	var buf bytes.Buffer

	oldLogger := defaultLogger
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	defaultLogger = slog.New(handler)

	f()

	defaultLogger = oldLogger
	return buf.String()
}

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name   string
		level  Level
		format Format
	}{
		{name: "Debug level JSON format", level: LevelDebug, format: FormatJSON},
		{name: "Warn level JSON format", level: LevelWarn, format: FormatJSON},
		{name: "Info level Text format", level: LevelInfo, format: FormatText},
		{name: "Default level (invalid value)", level: Level(999), format: FormatJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitLogger(tt.level, tt.format)
			if defaultLogger == nil {
				t.Error("Expected logger to be initialized, got nil")
			}
		})
	}
	InitLogger(LevelInfo, FormatJSON)
}

func TestInitLoggerTo(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelWarn, FormatJSON)
	defer InitLogger(LevelInfo, FormatJSON)

	defaultLogger.Info("filtered")
	defaultLogger.Warn("kept", "key", "value")

	out := buf.String()
	if strings.Contains(out, "filtered") {
		t.Error("info message should be filtered at warn level")
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &entry); err != nil {
		t.Fatalf("output is not a single JSON line: %v\n%s", err, out)
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want value", entry["key"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"verbose", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ParseFormat("Text") != FormatText || ParseFormat("yaml") != FormatJSON {
		t.Error("ParseFormat() returned an unexpected format")
	}
}

func TestGetRunID(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "Context with run ID",
			ctx:      WithRunID(context.Background(), "run-1"),
			expected: "run-1",
		},
		{
			name:     "Context without run ID",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "Context with wrong type value",
			ctx:      context.WithValue(context.Background(), RunIDKey, 12345),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := GetRunID(tt.ctx); result != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result)
			}
		})
	}
}

func TestDebugContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "test-run-id")
	if output := captureLogOutput(func() { DebugContext(ctx, "resolved") }); !strings.Contains(output, "test-run-id") {
		t.Errorf("Expected output to contain run ID, got %q", output)
	}
}

func TestConversion(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc")
	output := captureLogOutput(func() {
		Conversion(ctx, "markdown", "html", 120, 480, 15*time.Millisecond, "diagnostics", 2)
	})

	for _, want := range []string{`"msg":"conversion"`, `"from":"markdown"`, `"to":"html"`,
		`"input_bytes":120`, `"output_bytes":480`, `"duration_ms":15`, `"diagnostics":2`, `"run_id":"abc"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestDiagnostic(t *testing.T) {
	output := captureLogOutput(func() {
		Diagnostic(context.Background(), "csv", "truncated", "body[0].rows[1]", "dropped 1 cells beyond 3 columns")
	})
	for _, want := range []string{`"level":"WARN"`, `"kind":"truncated"`, `"path":"body[0].rows[1]"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestCallbackFailure(t *testing.T) {
	output := captureLogOutput(func() {
		CallbackFailure(context.Background(), "save", "image0.png", errors.New("disk full"))
	})
	for _, want := range []string{`"level":"ERROR"`, `"op":"save"`, `"error":"disk full"`} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %s: %s", want, output)
		}
	}
}

func TestInit(t *testing.T) {
	if defaultLogger == nil {
		t.Error("Expected defaultLogger to be initialized by init()")
	}
}
