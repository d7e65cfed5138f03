package logging

import (
	"bytes"
	"io"
	"strings"
	"testing"

	vaerr "github.com/msto63/vaani/pkg/core/error"
)

func TestNew(t *testing.T) {
	logger := New("pipeline")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.name != "pipeline" {
		t.Errorf("name = %v, want pipeline", logger.name)
	}
}

func testLogger(buf *bytes.Buffer, format string) *Logger {
	return &Logger{
		Logger: NewLogger(LoggerConfig{ServiceName: "t", Level: "debug", Format: format, Output: buf}),
		name:   "t",
	}
}

func TestLogger_WithSession(t *testing.T) {
	var buf bytes.Buffer
	testLogger(&buf, "json").WithSession("sess-1").Info("tagged")

	if !strings.Contains(buf.String(), "sess-1") {
		t.Errorf("output missing session id: %q", buf.String())
	}
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer
	parent := testLogger(&buf, "json")
	parent.With("dir", "/scans").Info("child")
	parent.Info("parent")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[0], `"dir":"/scans"`) {
		t.Errorf("child entry missing field: %q", lines[0])
	}
	if strings.Contains(lines[1], "dir") {
		t.Errorf("parent entry should not carry child field: %q", lines[1])
	}
}

func TestLogger_LogErrorCarriesCode(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantOp    string
	}{
		{
			name:      "capture failure",
			err:       vaerr.Wrap(vaerr.New("capture failed").WithCode(vaerr.CodeCaptureFailed), "ocr").WithOperation("scan"),
			wantLevel: `"level":"warn"`,
			wantOp:    `"error_operation":"scan"`,
		},
		{
			name:      "unreachable service",
			err:       vaerr.New("refused").WithCode(vaerr.CodeServiceUnreachable).WithOperation("translate"),
			wantLevel: `"level":"warn"`,
			wantOp:    `"error_operation":"translate"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			testLogger(&buf, "json").LogError(tt.err)

			out := buf.String()
			if !strings.Contains(out, tt.wantLevel) {
				t.Errorf("output %q missing %s", out, tt.wantLevel)
			}
			if !strings.Contains(out, tt.wantOp) {
				t.Errorf("output %q missing %s", out, tt.wantOp)
			}
		})
	}
}

func TestLogger_KeyValues(t *testing.T) {
	var buf bytes.Buffer
	logger := testLogger(&buf, "text")

	logger.Info("state changed", "from", "READY", "to", "SCANNING", "orphan")

	out := buf.String()
	if !strings.Contains(out, "from=READY") || !strings.Contains(out, "to=SCANNING") {
		t.Errorf("output missing fields: %q", out)
	}
	if strings.Contains(out, "orphan") {
		t.Errorf("trailing key should be dropped: %q", out)
	}
}

func TestNewLogger_AdditionalOutputs(t *testing.T) {
	var primary, extra bytes.Buffer
	logger := NewLogger(LoggerConfig{
		ServiceName:       "t",
		Level:             "info",
		Format:            "json",
		Output:            &primary,
		AdditionalOutputs: []io.Writer{&extra},
	})

	logger.Info("x")

	if primary.Len() == 0 {
		t.Error("primary output should receive the entry")
	}
	if primary.String() != extra.String() {
		t.Errorf("additional output = %q, want %q", extra.String(), primary.String())
	}
}

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer
	before := DefaultLoggerConfig("x")
	defer Configure(before)

	Configure(LoggerConfig{Level: "warn", Format: "json", Output: &buf})

	cfg := DefaultLoggerConfig("svc")
	if cfg.ServiceName != "svc" {
		t.Errorf("ServiceName = %v, want svc", cfg.ServiceName)
	}
	if cfg.Level != "warn" {
		t.Errorf("Level = %v, want warn", cfg.Level)
	}

	New("svc").Warn("configured")
	if !strings.Contains(buf.String(), `"configured"`) {
		t.Errorf("New() should use configured output, got %q", buf.String())
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("non-string key should be skipped, got %v fields", len(fields))
	}
}

func TestParseLevel_DefaultsToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got.String() != "info" {
		t.Errorf("parseLevel() = %v, want info", got)
	}
	if got := parseLevel("debug"); got.String() != "debug" {
		t.Errorf("parseLevel() = %v, want debug", got)
	}
}
