package ffprobe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"

	"inlay/internal/logging"
)

const (
	defaultAttempts        = 3
	defaultInitialInterval = 250 * time.Millisecond
)

// Prober reports media durations and frame sizes through ffprobe. Transient
// ffprobe failures are retried with exponential backoff; a missing file or
// an unparseable payload is not.
type Prober struct {
	Binary          string
	Attempts        int
	InitialInterval time.Duration
	Logger          *slog.Logger

	inspect func(ctx context.Context, binary, path string) (Result, error)
}

// NewProber returns a Prober using the given ffprobe binary.
func NewProber(binary string, attempts int, initial time.Duration, logger *slog.Logger) *Prober {
	return &Prober{
		Binary:          binary,
		Attempts:        attempts,
		InitialInterval: initial,
		Logger:          logger,
	}
}

// Probe inspects path, retrying transient failures.
func (p *Prober) Probe(ctx context.Context, path string) (Result, error) {
	if _, err := os.Stat(path); err != nil {
		return Result{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	inspect := p.inspect
	if inspect == nil {
		inspect = Inspect
	}
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = p.InitialInterval
	if policy.InitialInterval <= 0 {
		policy.InitialInterval = defaultInitialInterval
	}

	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	attempt := 0
	return backoff.Retry(ctx, func() (Result, error) {
		attempt++
		result, err := inspect(ctx, p.Binary, path)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, fs.ErrNotExist) || ctx.Err() != nil {
			return Result{}, backoff.Permanent(err)
		}
		logger.Debug("ffprobe attempt failed",
			logging.String("path", path),
			logging.Int("attempt", attempt),
			logging.Error(err),
			logging.String(logging.FieldEventType, "probe_retry"),
		)
		return Result{}, err
	}, backoff.WithBackOff(policy), backoff.WithMaxTries(uint(attempts)))
}

// ProbeDuration returns the native duration of the media at path. A file
// that reports no duration yields zero so the caller can name the asset;
// a file without a video stream fails with ErrNoVideoStream.
func (p *Prober) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	result, err := p.Probe(ctx, path)
	if err != nil {
		return 0, err
	}
	if result.VideoStreamCount() == 0 {
		return 0, fmt.Errorf("ffprobe %s: %w", path, ErrNoVideoStream)
	}
	return result.Duration()
}
