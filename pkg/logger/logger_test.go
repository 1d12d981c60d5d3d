package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  slog.Level
	}{
		{
			name:  "debug",
			level: "debug",
			want:  slog.LevelDebug,
		},
		{
			name:  "info",
			level: "info",
			want:  slog.LevelInfo,
		},
		{
			name:  "warn",
			level: "warn",
			want:  slog.LevelWarn,
		},
		{
			name:  "warning alias",
			level: "warning",
			want:  slog.LevelWarn,
		},
		{
			name:  "error",
			level: "error",
			want:  slog.LevelError,
		},
		{
			name:  "uppercase",
			level: "DEBUG",
			want:  slog.LevelDebug,
		},
		{
			name:  "unknown defaults to info",
			level: "verbose",
			want:  slog.LevelInfo,
		},
		{
			name:  "empty defaults to info",
			level: "",
			want:  slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseLevel(tt.level)
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestGetWriterStandardStreams(t *testing.T) {
	w, err := getWriter("stdout")
	if err != nil {
		t.Fatalf("getWriter(stdout) error = %v", err)
	}
	if w != os.Stdout {
		t.Error("getWriter(stdout) did not return os.Stdout")
	}

	w, err = getWriter("stderr")
	if err != nil {
		t.Fatalf("getWriter(stderr) error = %v", err)
	}
	if w != os.Stderr {
		t.Error("getWriter(stderr) did not return os.Stderr")
	}

	w, err = getWriter("")
	if err != nil {
		t.Fatalf("getWriter(\"\") error = %v", err)
	}
	if w != os.Stderr {
		t.Error("getWriter(\"\") did not default to os.Stderr")
	}
}

func TestGetWriterFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "chatkeep.log")

	w, err := getWriter(path)
	if err != nil {
		t.Fatalf("getWriter(%q) error = %v", path, err)
	}

	if closer, ok := w.(*os.File); ok {
		defer func() {
			if closeErr := closer.Close(); closeErr != nil {
				t.Errorf("Close() error = %v", closeErr)
			}
		}()
	}

	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("log file not created: %v", statErr)
	}
}

func TestNewWritesToFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.log")

	log := New(Config{
		Level:  "debug",
		Output: path,
		Format: "json",
	})

	log.Info("hello", "key", "value")
	log.Debug("detail", "n", 42)

	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "hello") {
		t.Errorf("log output missing info message: %s", out)
	}
	if !strings.Contains(out, "detail") {
		t.Errorf("log output missing debug message: %s", out)
	}
}

func TestWithAddsFields(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.log")

	log := New(Config{
		Level:  "info",
		Output: path,
		Format: "text",
	})

	log.With("session_id", "session-abc").Info("appended message")

	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if !strings.Contains(string(data), "session-abc") {
		t.Errorf("log output missing With field: %s", string(data))
	}
}

func TestNoop(t *testing.T) {
	log := Noop()

	// Must not panic and must accept all levels.
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")
	log.With("k", "v").Info("e")
}
