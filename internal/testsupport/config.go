package testsupport

import (
	"path/filepath"
	"testing"

	"inlay/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Probing retries are shortened so failure paths stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")
	cfgVal.Probe.RetryAttempts = 1
	cfgVal.Probe.RetryInitialMS = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithFrame fixes the canonical output frame.
func WithFrame(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Frame = config.Frame{Width: width, Height: height}
	}
}

// WithStrategy selects the matching strategy.
func WithStrategy(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.Strategy = name
	}
}

// WithoutLedger disables run history.
func WithoutLedger() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Ledger.Enabled = false
	}
}

// WithStubFFmpeg installs shell scripts as the ffprobe and ffmpeg binaries.
// An empty script leaves the corresponding binary untouched.
func WithStubFFmpeg(ffprobeScript, ffmpegScript string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if ffprobeScript != "" {
			path := filepath.Join(binDir, "ffprobe")
			WriteScript(b.t, path, ffprobeScript)
			b.cfg.Executor.FFprobe = path
		}
		if ffmpegScript != "" {
			path := filepath.Join(binDir, "ffmpeg")
			WriteScript(b.t, path, ffmpegScript)
			b.cfg.Executor.FFmpeg = path
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
