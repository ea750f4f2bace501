package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"inlay/internal/ledger"
	"inlay/internal/logging"
)

// DefaultHeartbeatInterval spaces progress records during a render.
const DefaultHeartbeatInterval = 30 * time.Second

// heartbeat reports that a long stage is still alive: it logs elapsed time
// and refreshes the run's ledger row on every tick.
type heartbeat struct {
	ledger   *ledger.Store
	logger   *slog.Logger
	interval time.Duration
}

// start runs the heartbeat until the returned stop function is called or ctx
// ends. stop blocks until the loop has exited.
func (h heartbeat) start(ctx context.Context, runID string) (stop func()) {
	if h.interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.loop(ctx, runID)
	}()
	return func() {
		cancel()
		wg.Wait()
	}
}

func (h heartbeat) loop(ctx context.Context, runID string) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.logger.Info("render in progress",
				logging.String(logging.FieldEventType, "render_heartbeat"),
				logging.Duration("elapsed", time.Since(started).Round(time.Second)),
			)
			if h.ledger == nil {
				continue
			}
			if err := h.ledger.Touch(context.WithoutCancel(ctx), runID); err != nil {
				h.logger.Warn("heartbeat update failed", logging.Error(err))
			}
		}
	}
}
