package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"inlay/internal/config"
	"inlay/internal/testsupport"
)

// stubFFprobe reports 1280x720 video for every path and a duration chosen
// by file name: the base runs 60s, 01_a 12s, 02_b 4s and anything else 0.
const stubFFprobe = `for last; do :; done
case "$last" in
  *base.mp4) d=60 ;;
  *01_a.mp4) d=12 ;;
  *02_b.mp4) d=4 ;;
  *) d=0 ;;
esac
printf '{"streams":[{"index":0,"codec_type":"video","width":1280,"height":720}],"format":{"filename":"%s","duration":"%s"}}\n' "$last" "$d"`

// stubFFmpeg writes a few bytes to its final argument, the output path.
const stubFFmpeg = `case "$2" in
  -version) echo "ffmpeg version 7.0-stub"; exit 0 ;;
  -filters) for f in scale pad setsar trim setpts overlay; do echo " ... $f V->V x"; done; exit 0 ;;
esac
for last; do :; done
printf 'rendered' > "$last"`

const twoWindowDocument = `{"a": ["00:00", "00:10"], "b": ["00:20", "00:30"]}`

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	videos     string
	base       string
	windows    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INLAY_FFMPEG", "")
	t.Setenv("INLAY_FFPROBE", "")

	cfg := testsupport.NewConfig(t, testsupport.WithStubFFmpeg(stubFFprobe, stubFFmpeg))
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	videos := filepath.Join(base, "videos")
	testsupport.WriteAssets(t, videos, "01_a.mp4", "02_b.mp4")
	basePath := testsupport.WriteAssets(t, filepath.Join(base, "source"), "base.mp4")[0]

	windows := filepath.Join(base, "windows.json")
	if err := os.WriteFile(windows, []byte(twoWindowDocument), 0o644); err != nil {
		t.Fatalf("write windows: %v", err)
	}
	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		videos:     videos,
		base:       basePath,
		windows:    windows,
	}
}

func (e *cliTestEnv) composeArgs(extra ...string) []string {
	args := []string{"--windows", e.windows, "--assets", e.videos, "--base", e.base}
	return append(args, extra...)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireExitCode(t *testing.T, err error, code int) {
	t.Helper()
	var exit *exitError
	if !errors.As(err, &exit) {
		t.Fatalf("expected exit error with code %d, got %v", code, err)
	}
	if exit.code != code {
		t.Fatalf("expected exit code %d, got %d (%v)", code, exit.code, exit.err)
	}
}
