package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"WARNING", slog.LevelWarn},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"invalid", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseLogLevel(tt.input); got != tt.expected {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Level != "INFO" {
		t.Errorf("Level = %q, want INFO", config.Level)
	}
	if !config.ConsoleEnabled {
		t.Error("ConsoleEnabled should default to true")
	}
	if config.FileEnabled {
		t.Error("FileEnabled should default to false")
	}
	if config.FilePath != "logs/questgen.log" {
		t.Errorf("FilePath = %q, want logs/questgen.log", config.FilePath)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	content := `logging:
  level: DEBUG
  console_format: json
  file_enabled: true
  file_path: /tmp/quests.log
  file_max_size_mb: 50
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Level != "DEBUG" {
		t.Errorf("Level = %q, want DEBUG", config.Level)
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json", config.ConsoleFormat)
	}
	if !config.FileEnabled || config.FilePath != "/tmp/quests.log" {
		t.Errorf("file settings = %v %q", config.FileEnabled, config.FilePath)
	}
	if config.FileMaxSizeMB != 50 {
		t.Errorf("FileMaxSizeMB = %d, want 50", config.FileMaxSizeMB)
	}
	// Unset keys keep their defaults
	if config.FileMaxBackups != 5 {
		t.Errorf("FileMaxBackups = %d, want 5", config.FileMaxBackups)
	}
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logging.yaml")
	if err := os.WriteFile(path, []byte("logging: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestEnvVarOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("LOG_CONSOLE_FORMAT", "json")
	t.Setenv("LOG_FILE_ENABLED", "true")
	t.Setenv("LOG_FILE_PATH", "/var/log/questgen.log")

	config, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if config.Level != "ERROR" {
		t.Errorf("Level = %q, want ERROR", config.Level)
	}
	if config.ConsoleFormat != "json" {
		t.Errorf("ConsoleFormat = %q, want json", config.ConsoleFormat)
	}
	if !config.FileEnabled {
		t.Error("FileEnabled should be true")
	}
	if config.FilePath != "/var/log/questgen.log" {
		t.Errorf("FilePath = %q", config.FilePath)
	}
}

func TestEnvVarOverrideInvalid(t *testing.T) {
	t.Setenv("LOG_FILE_ENABLED", "sometimes")
	if _, err := LoadConfig(""); err == nil {
		t.Error("expected error for invalid boolean")
	}
}

func TestInitializeWithTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "text", slog.LevelInfo))
	defer func() { logger = nil }()

	Info("quest generated", "kind", "hunt")
	Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "quest generated") || !strings.Contains(out, "kind=hunt") {
		t.Errorf("unexpected output: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Error("debug message should be filtered at INFO")
	}
}

func TestInitializeWithJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "json", slog.LevelDebug))
	defer func() { logger = nil }()

	Warning("slow selection", "candidates", 4)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "slow selection" || entry["level"] != "WARN" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["candidates"] != float64(4) {
		t.Errorf("candidates = %v, want 4", entry["candidates"])
	}
}

func TestInitializeFileLogging(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	config := DefaultConfig()
	config.ConsoleEnabled = false
	config.FileEnabled = true
	config.FilePath = path
	if err := Initialize(config); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	defer func() { logger = nil }()

	Error("store unavailable")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "store unavailable") {
		t.Errorf("log file missing message: %q", data)
	}
}

func TestInitializeFileWithoutPath(t *testing.T) {
	config := DefaultConfig()
	config.FileEnabled = true
	config.FilePath = ""
	if err := Initialize(config); err == nil {
		t.Error("expected error for empty file path")
	}
}

func TestFormattedLogging(t *testing.T) {
	var buf bytes.Buffer
	logger = slog.New(newHandler(&buf, "text", slog.LevelDebug))
	defer func() { logger = nil }()

	Debugf("debug %d", 1)
	Infof("info %s", "two")
	Warningf("warning %v", true)
	Errorf("error %q", "four")

	out := buf.String()
	for _, want := range []string{"debug 1", "info two", "warning true", `error \"four\"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestMultiHandler(t *testing.T) {
	var debugBuf, errorBuf bytes.Buffer
	h := newMultiHandler(
		slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&errorBuf, &slog.HandlerOptions{Level: slog.LevelError}),
	)

	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("multi handler should accept debug when any child does")
	}

	l := slog.New(h).With("component", "selector")
	l.Debug("candidate skipped")
	l.Error("template failed")

	if !strings.Contains(debugBuf.String(), "candidate skipped") || !strings.Contains(debugBuf.String(), "template failed") {
		t.Errorf("debug handler output: %q", debugBuf.String())
	}
	if strings.Contains(errorBuf.String(), "candidate skipped") {
		t.Error("error handler should not receive debug records")
	}
	if !strings.Contains(errorBuf.String(), "component=selector") {
		t.Errorf("attrs not propagated: %q", errorBuf.String())
	}
}

func TestNilLogger(t *testing.T) {
	logger = nil
	Debug("nothing")
	Info("nothing")
	Warning("nothing")
	Error("nothing")
	Infof("nothing %d", 1)
}
