package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
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

func TestInitLoggerTo(t *testing.T) {
	tests := []struct {
		name      string
		level     Level
		format    Format
		logFunc   func()
		wantEmpty bool
		contains  string
	}{
		{"json info", LevelInfo, FormatJSON, func() { GetLogger().Info("hello", "k", "v") }, false, `"msg":"hello"`},
		{"text warn", LevelWarn, FormatText, func() { GetLogger().Warn("careful") }, false, "msg=careful"},
		{"debug filtered at info", LevelInfo, FormatJSON, func() { GetLogger().Debug("hidden") }, true, ""},
		{"error at error level", LevelError, FormatText, func() { GetLogger().Error("broken") }, false, "level=ERROR"},
	}

	defer InitLoggerTo(os.Stderr, LevelInfo, FormatJSON)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			InitLoggerTo(&buf, tt.level, tt.format)
			tt.logFunc()

			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.contains) {
				t.Errorf("output %q does not contain %q", out, tt.contains)
			}
		})
	}
}

func TestInitLogger_TimestampFormat(t *testing.T) {
	var buf bytes.Buffer
	InitLoggerTo(&buf, LevelInfo, FormatJSON)
	defer InitLoggerTo(os.Stderr, LevelInfo, FormatJSON)

	GetLogger().Info("stamp")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	ts, _ := entry["time"].(string)
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Errorf("time %q is not RFC3339: %v", ts, err)
	}
}

func TestParseLevelAndFormat(t *testing.T) {
	for in, want := range map[string]Level{"debug": LevelDebug, "WARN": LevelWarn, "error": LevelError, "other": LevelInfo} {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ParseFormat("TEXT") != FormatText || ParseFormat("json") != FormatJSON {
		t.Error("ParseFormat mismatch")
	}
}

func TestSessionContext(t *testing.T) {
	ctx := WithSessionID(context.Background(), "abc-123")
	if got := GetSessionID(ctx); got != "abc-123" {
		t.Errorf("GetSessionID() = %q", got)
	}
	if got := GetSessionID(context.Background()); got != "" {
		t.Errorf("GetSessionID(empty) = %q", got)
	}

	out := captureLogOutput(func() {
		ErrorContext(ctx, "with session")
		ImportFinished(ctx, 12, 1500*time.Millisecond)
	})
	if strings.Count(out, `"session_id":"abc-123"`) != 2 {
		t.Errorf("session id missing from %q", out)
	}
	if !strings.Contains(out, `"segments":12`) || !strings.Contains(out, `"duration_ms":1500`) {
		t.Errorf("import summary fields missing from %q", out)
	}
}

func TestSourceHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	SourceOpened(logger, "MAT.sfm", "legacy", "main")
	SourceFinished(logger, "MAT.sfm", 42)

	out := buf.String()
	for _, want := range []string{`"msg":"source_opened"`, `"encoding":"legacy"`, `"msg":"source_finished"`, `"lines":42`} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}
