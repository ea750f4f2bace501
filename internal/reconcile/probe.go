package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

// Prober reports the native duration of a media file. Implementations own
// their retry policy; ProbeAll calls each asset exactly once.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (time.Duration, error)
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, path string) (time.Duration, error)

func (f ProberFunc) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	return f(ctx, path)
}

// ProbeOptions bounds the probing fan-out.
type ProbeOptions struct {
	Concurrency int
	Timeout     time.Duration
}

const defaultConcurrency = 4

// ProbeAll probes every distinct asset with bounded concurrency and returns
// durations keyed by identifier. Each call runs under its own timeout; the
// first failure cancels the remaining calls.
func ProbeAll(ctx context.Context, prober Prober, assets []timeline.Asset, opts ProbeOptions) (map[string]time.Duration, error) {
	if prober == nil {
		return nil, services.Errorf(services.KindProbe, stageName, "probe", "no prober configured")
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultConcurrency
	}

	var (
		mu        sync.Mutex
		durations = make(map[string]time.Duration, len(assets))
		seen      = make(map[string]struct{}, len(assets))
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for _, asset := range assets {
		if _, dup := seen[asset.Identifier]; dup {
			continue
		}
		seen[asset.Identifier] = struct{}{}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			callCtx := groupCtx
			if opts.Timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(groupCtx, opts.Timeout)
				defer cancel()
			}
			native, err := prober.ProbeDuration(callCtx, asset.Path)
			if err != nil {
				return probeError(callCtx, asset, opts.Timeout, err)
			}
			mu.Lock()
			durations[asset.Identifier] = native
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if parent := ctx.Err(); parent != nil {
			return nil, parent
		}
		return nil, err
	}
	return durations, nil
}

func probeError(callCtx context.Context, asset timeline.Asset, timeout time.Duration, err error) error {
	if errors.Is(callCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.KindProbe, stageName, "probe",
			"probe exceeded "+timeout.String(), errors.Join(services.ErrTimeout, err)).
			WithIdentifiers(asset.Identifier)
	}
	return services.Wrap(services.KindProbe, stageName, "probe", "probe "+asset.Path, err).
		WithIdentifiers(asset.Identifier)
}
