package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"inlay/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("INLAY_FFMPEG", "")
	t.Setenv("INLAY_FFPROBE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "inlay", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "inlay")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Ledger.Path != filepath.Join(wantState, "ledger.db") {
		t.Fatalf("unexpected ledger path: %q", cfg.Ledger.Path)
	}
	if !filepath.IsAbs(cfg.Paths.OutputDir) || filepath.Base(cfg.Paths.OutputDir) != "final_output" {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Matching.Strategy != "slug" || cfg.Matching.MinScore != 0.5 {
		t.Fatalf("unexpected matching defaults: %+v", cfg.Matching)
	}
	if cfg.Epsilon() != 50*time.Millisecond {
		t.Fatalf("unexpected epsilon: %v", cfg.Epsilon())
	}
	if cfg.FFmpegBinary() != "ffmpeg" || cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected binaries: %q %q", cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	if cfg.Executor.AudioCodec != "copy" || cfg.Executor.VideoCodec != "libx264" {
		t.Fatalf("unexpected executor defaults: %+v", cfg.Executor)
	}
	if cfg.Frame.Width != 0 || cfg.Frame.Height != 0 {
		t.Fatalf("expected frame to follow the base video by default, got %+v", cfg.Frame)
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "inlay.toml")

	type payload struct {
		Paths struct {
			OutputDir string `toml:"output_dir"`
		} `toml:"paths"`
		Frame struct {
			Width  int `toml:"width"`
			Height int `toml:"height"`
		} `toml:"frame"`
		Matching struct {
			Strategy string `toml:"strategy"`
		} `toml:"matching"`
		Probe struct {
			Concurrency    int `toml:"concurrency"`
			TimeoutSeconds int `toml:"timeout_seconds"`
			RetryAttempts  int `toml:"retry_attempts"`
		} `toml:"probe"`
	}
	custom := payload{}
	custom.Paths.OutputDir = filepath.Join(tempDir, "renders")
	custom.Frame.Width = 1280
	custom.Frame.Height = 720
	custom.Matching.Strategy = "Positional"
	custom.Probe.Concurrency = 8
	custom.Probe.TimeoutSeconds = 5
	custom.Probe.RetryAttempts = 1
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.OutputDir != filepath.Join(tempDir, "renders") {
		t.Fatalf("unexpected output dir: %q", cfg.Paths.OutputDir)
	}
	if cfg.Frame.Width != 1280 || cfg.Frame.Height != 720 {
		t.Fatalf("unexpected frame: %+v", cfg.Frame)
	}
	if cfg.Matching.Strategy != "positional" {
		t.Fatalf("expected strategy to be normalized, got %q", cfg.Matching.Strategy)
	}
	if cfg.Probe.Concurrency != 8 || cfg.ProbeTimeout() != 5*time.Second {
		t.Fatalf("unexpected probe settings: %+v", cfg.Probe)
	}
	if cfg.Executor.Preset != "medium" {
		t.Fatalf("expected untouched sections to keep defaults, got preset %q", cfg.Executor.Preset)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "inlay.toml")
	if err := os.WriteFile(configPath, []byte("[matching]\nstrategee = \"slug\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvVarOverridesBinaries(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "inlay.toml")
	if err := os.WriteFile(configPath, []byte("[executor]\nffmpeg = \"/opt/ffmpeg/bin/ffmpeg\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("INLAY_FFMPEG", "/usr/local/bin/ffmpeg-git")
	t.Setenv("INLAY_FFPROBE", "/usr/local/bin/ffprobe-git")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFmpegBinary() != "/usr/local/bin/ffmpeg-git" {
		t.Fatalf("expected env to override file, got %q", cfg.FFmpegBinary())
	}
	if cfg.FFprobeBinary() != "/usr/local/bin/ffprobe-git" {
		t.Fatalf("expected env ffprobe, got %q", cfg.FFprobeBinary())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "[matching]") {
		t.Fatalf("sample config missing matching section: %s", contents)
	}

	// The sample must load cleanly with strict decoding.
	t.Setenv("HOME", t.TempDir())
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Matching.Strategy != "slug" {
		t.Fatalf("unexpected sample strategy %q", cfg.Matching.Strategy)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"odd frame":          func(c *config.Config) { c.Frame = config.Frame{Width: 1281, Height: 720} },
		"half frame":         func(c *config.Config) { c.Frame = config.Frame{Width: 1280} },
		"unknown strategy":   func(c *config.Config) { c.Matching.Strategy = "fuzzy" },
		"min score too high": func(c *config.Config) { c.Matching.MinScore = 1.5 },
		"negative epsilon":   func(c *config.Config) { c.Reconcile.EpsilonMS = -1 },
		"zero concurrency":   func(c *config.Config) { c.Probe.Concurrency = 0 },
		"zero probe timeout": func(c *config.Config) { c.Probe.TimeoutSeconds = 0 },
		"zero attempts":      func(c *config.Config) { c.Probe.RetryAttempts = 0 },
		"crf out of range":   func(c *config.Config) { c.Executor.CRF = 60 },
		"bad log format":     func(c *config.Config) { c.Logging.Format = "xml" },
		"bad log level":      func(c *config.Config) { c.Logging.Level = "loud" },
	}
	for name, mutate := range cases {
		cfg := config.Default()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.OutputDir = "/srv/renders"
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := cfg.DefaultOutputPath(now); got != "/srv/renders/final_video_20260304_050607.mp4" {
		t.Fatalf("unexpected default output path %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths.OutputDir = filepath.Join(root, "out")
	cfg.Paths.LogDir = filepath.Join(root, "state", "logs")
	cfg.Paths.StateDir = filepath.Join(root, "state")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.OutputDir, cfg.Paths.LogDir, cfg.Paths.StateDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected %s to exist: %v", dir, err)
		}
	}
}
