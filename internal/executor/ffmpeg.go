package executor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"inlay/internal/logging"
	"inlay/internal/plan"
	"inlay/internal/services"
)

const (
	stageName      = "execute"
	stderrLines    = 20
	tempNameMarker = ".inlay-partial"
)

// Result describes a finished render.
type Result struct {
	OutputPath string
	Args       []string
	Elapsed    time.Duration
	SizeBytes  int64
}

// Executor renders a plan into a single new artifact at outputPath.
type Executor interface {
	Execute(ctx context.Context, p *plan.Plan, outputPath string) (Result, error)
}

// CommandRunner runs an external command, streaming its stderr to stderr.
type CommandRunner func(ctx context.Context, stderr io.Writer, name string, args ...string) error

// Settings are the encoder parameters handed to ffmpeg.
type Settings struct {
	Binary       string
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	Timeout      time.Duration
}

// FFmpeg is the ffmpeg-backed Executor.
type FFmpeg struct {
	settings Settings
	logger   *slog.Logger
	run      CommandRunner
}

// Option customizes an FFmpeg executor.
type Option func(*FFmpeg)

// WithCommandRunner replaces the process runner (used in tests).
func WithCommandRunner(r CommandRunner) Option {
	return func(f *FFmpeg) {
		if r != nil {
			f.run = r
		}
	}
}

// NewFFmpeg constructs an ffmpeg executor.
func NewFFmpeg(settings Settings, logger *slog.Logger, opts ...Option) *FFmpeg {
	if strings.TrimSpace(settings.Binary) == "" {
		settings.Binary = "ffmpeg"
	}
	if strings.TrimSpace(settings.VideoCodec) == "" {
		settings.VideoCodec = "libx264"
	}
	if strings.TrimSpace(settings.AudioCodec) == "" {
		settings.AudioCodec = "copy"
	}
	f := &FFmpeg{
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "executor"),
		run:      defaultCommandRunner,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Execute renders p to outputPath.
func (f *FFmpeg) Execute(ctx context.Context, p *plan.Plan, outputPath string) (Result, error) {
	if p == nil {
		return Result{}, services.Errorf(services.KindExecutor, stageName, "validate", "plan is nil")
	}
	target, err := f.checkOutput(p, outputPath)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, services.Wrap(services.KindExecutor, stageName, "prepare output", dir, err)
	}
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(filepath.Base(target), ext)
	tmp, err := os.CreateTemp(dir, "."+stem+tempNameMarker+"-*"+ext)
	if err != nil {
		return Result{}, services.Wrap(services.KindExecutor, stageName, "prepare output", dir, err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	args := f.BuildArgs(p, tmpPath)
	runCtx := ctx
	if f.settings.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, f.settings.Timeout)
		defer cancel()
	}

	f.logger.Debug("executing ffmpeg",
		logging.String("output", target),
		logging.Int("input_count", len(p.Inputs())),
		logging.String("filter_graph", p.FilterGraph()),
	)
	stderr := newLineRing(stderrLines)
	started := time.Now()
	runErr := f.run(runCtx, stderr, f.settings.Binary, args...)
	elapsed := time.Since(started)
	if runErr != nil {
		if parent := ctx.Err(); parent != nil {
			return Result{}, parent
		}
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.KindExecutor, stageName, "ffmpeg",
				"render exceeded "+f.settings.Timeout.String(), errors.Join(services.ErrTimeout, runErr)).
				WithIdentifiers(inputIdentifiers(p)...)
		}
		message := "ffmpeg failed"
		if tail := stderr.String(); tail != "" {
			message += ":\n" + tail
		}
		return Result{}, services.Wrap(services.KindExecutor, stageName, "ffmpeg", message, runErr)
	}

	info, err := os.Stat(tmpPath)
	if err != nil || info.Size() == 0 {
		if err == nil {
			err = errors.New("empty output")
		}
		return Result{}, services.Wrap(services.KindExecutor, stageName, "verify output", "ffmpeg produced no output", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return Result{}, services.Wrap(services.KindExecutor, stageName, "commit output", target, err)
	}
	committed = true

	f.logger.Info("render complete",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.String("output", target),
		logging.Int64("size_bytes", info.Size()),
		logging.Duration("elapsed", elapsed),
	)
	return Result{OutputPath: target, Args: args, Elapsed: elapsed, SizeBytes: info.Size()}, nil
}

// BuildArgs returns the ffmpeg argument list rendering p into output.
func (f *FFmpeg) BuildArgs(p *plan.Plan, output string) []string {
	s := f.settings
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
	for _, input := range p.Inputs() {
		args = append(args, "-i", input.Path)
	}
	args = append(args,
		"-filter_complex", p.FilterGraph(),
		"-map", "["+p.Terminal()+"]",
		"-map", "0:a?",
		"-c:v", s.VideoCodec,
	)
	if strings.TrimSpace(s.Preset) != "" {
		args = append(args, "-preset", s.Preset)
	}
	if s.CRF > 0 {
		args = append(args, "-crf", strconv.Itoa(s.CRF))
	}
	args = append(args, "-pix_fmt", "yuv420p", "-c:a", s.AudioCodec)
	if s.AudioCodec != "copy" && strings.TrimSpace(s.AudioBitrate) != "" {
		args = append(args, "-b:a", s.AudioBitrate)
	}
	switch strings.ToLower(filepath.Ext(output)) {
	case ".mp4", ".mov", ".m4v":
		args = append(args, "-movflags", "+faststart")
	}
	args = append(args, "-shortest", output)
	return args
}

func (f *FFmpeg) checkOutput(p *plan.Plan, outputPath string) (string, error) {
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" {
		return "", services.Errorf(services.KindExecutor, stageName, "validate", "output path is empty")
	}
	target, err := filepath.Abs(outputPath)
	if err != nil {
		return "", services.Wrap(services.KindExecutor, stageName, "validate", outputPath, err)
	}
	if filepath.Ext(target) == "" {
		return "", services.Errorf(services.KindExecutor, stageName, "validate",
			"output path %s needs a container extension", target)
	}
	targetInfo, statErr := os.Stat(target)
	for _, input := range p.Inputs() {
		source, err := filepath.Abs(input.Path)
		if err != nil {
			continue
		}
		same := source == target
		if !same && statErr == nil {
			if info, err := os.Stat(source); err == nil {
				same = os.SameFile(info, targetInfo)
			}
		}
		if same {
			e := services.Errorf(services.KindExecutor, stageName, "validate",
				"output path %s is also an input", target)
			if input.Identifier != "" {
				e = e.WithLabels(input.Label).WithIdentifiers(input.Identifier)
			}
			return "", e
		}
	}
	return target, nil
}

func inputIdentifiers(p *plan.Plan) []string {
	var ids []string
	for _, input := range p.Inputs() {
		if input.Identifier != "" {
			ids = append(ids, input.Identifier)
		}
	}
	return ids
}

func defaultCommandRunner(ctx context.Context, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(name), err)
	}
	return nil
}

// IsPartialOutput reports whether name is a temporary render left behind by
// an interrupted run.
func IsPartialOutput(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".") && strings.Contains(base, tempNameMarker+"-")
}
