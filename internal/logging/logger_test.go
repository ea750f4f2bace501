package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"inlay/internal/config"
	"inlay/internal/logging"
	"inlay/internal/services"
)

func TestConsoleLoggerFormatsSubjectAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = logging.NewComponentLogger(logger, "workflow").With(
		logging.String(logging.FieldRunID, "1a2b3c4d-0000-0000-0000-000000000000"),
		logging.String(logging.FieldStage, "match"),
	)
	logger.Info("stage completed", logging.String(logging.FieldLabel, "market crash"), logging.Int("slots", 2))

	line := buf.String()
	for _, want := range []string{"INFO [workflow] run 1a2b3c4d (match) – stage completed", `label="market crash"`, "slots=2"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
	if strings.Contains(line, ".go:") {
		t.Fatalf("expected no caller information at info level, got %q", line)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("message with caller")
	if !strings.Contains(buf.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", buf.String())
	}
}

func TestJSONLoggerUsesStableKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("probe retry", logging.String(logging.FieldEventType, "probe_retry"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "probe retry" || record["event_type"] != "probe_retry" {
		t.Fatalf("unexpected record: %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key in %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestInvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "console", Level: "invalid", Writer: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	ctx := services.WithRunID(context.Background(), "run-xyz")
	ctx = services.WithStage(ctx, "reconcile")
	ctx = services.WithAsset(ctx, "01_intro.mp4")

	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))
	logging.WithContext(ctx, base).Info("contextual log")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	want := map[string]string{
		logging.FieldRunID:      "run-xyz",
		logging.FieldStage:      "reconcile",
		logging.FieldIdentifier: "01_intro.mp4",
	}
	for key, value := range want {
		if record[key] != value {
			t.Fatalf("field %s = %v, want %q", key, record[key], value)
		}
	}
}

func TestTeeHandlerDuplicatesRecords(t *testing.T) {
	var info, debug bytes.Buffer
	h1 := slog.NewJSONHandler(&info, &slog.HandlerOptions{Level: slog.LevelInfo})
	h2 := slog.NewJSONHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(logging.TeeHandler(nil, h1, h2)).With(logging.String("k", "v"))
	logger.Debug("debug only")
	logger.Info("both")

	if strings.Count(info.String(), "\n") != 1 || strings.Contains(info.String(), "debug only") {
		t.Fatalf("info handler got %q", info.String())
	}
	if strings.Count(debug.String(), "\n") != 2 || !strings.Contains(debug.String(), `"k":"v"`) {
		t.Fatalf("debug handler got %q", debug.String())
	}

	if _, ok := logging.TeeHandler(nil, nil).(logging.NoopHandler); !ok {
		t.Fatal("expected NoopHandler for all nil handlers")
	}
	if logging.TeeHandler(nil, h1) != h1 {
		t.Fatal("expected single handler to be returned unwrapped")
	}
}

func TestNewFromConfigWritesRunLog(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(t.TempDir(), "logs")
	cfg.Logging.Level = "warn"

	var console bytes.Buffer
	logger, logPath, err := logging.NewFromConfig(&cfg, &console)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	if logPath != logging.RunLogPath(cfg.Paths.LogDir, time.Now()) {
		t.Fatalf("unexpected log path %q", logPath)
	}
	logger.Warn("disk nearly full", logging.String(logging.FieldEventType, "disk_low"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"event_type":"disk_low"`) {
		t.Fatalf("expected JSON record in run log, got %q", data)
	}
	if !strings.Contains(console.String(), "disk nearly full") {
		t.Fatalf("expected console copy, got %q", console.String())
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "inlay-20200101.log")
	current := filepath.Join(dir, "inlay-20200102.log")
	fresh := filepath.Join(dir, "inlay-20990101.log")
	other := filepath.Join(dir, "notes.txt")
	for _, path := range []string{old, current, fresh, other} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	stale := time.Now().AddDate(0, 0, -40)
	for _, path := range []string{old, current, other} {
		if err := os.Chtimes(path, stale, stale); err != nil {
			t.Fatalf("chtimes %s: %v", path, err)
		}
	}

	removed := logging.CleanupOldLogs(logging.NewNop(), 30, dir, logging.LogFilePattern, current)
	if removed != 1 {
		t.Fatalf("expected 1 file removed, got %d", removed)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatalf("expected %s removed, stat err=%v", old, err)
	}
	for _, path := range []string{current, fresh, other} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s kept: %v", path, err)
		}
	}
	if logging.CleanupOldLogs(nil, 0, dir, logging.LogFilePattern) != 0 {
		t.Fatal("retention of 0 must disable pruning")
	}
}
