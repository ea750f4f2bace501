package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"inlay/internal/config"
	"inlay/internal/executor"
	"inlay/internal/ledger"
	"inlay/internal/logging"
	"inlay/internal/manifest"
	"inlay/internal/matching"
	"inlay/internal/media/ffprobe"
	"inlay/internal/plan"
	"inlay/internal/reconcile"
	"inlay/internal/services"
	"inlay/internal/timeline"
)

const (
	stageLoad      = "load"
	stageMatch     = "match"
	stageReconcile = "reconcile"
	stagePlan      = "plan"
	stageExecute   = "execute"
)

// Runner executes composition runs. It is safe to reuse across runs but
// not to share between concurrent runs targeting the same output directory;
// the output lock turns that case into an executor error.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	strategy matching.Strategy
	prober   MediaProber
	executor executor.Executor
	ledger   *ledger.Store
	now      func() time.Time
	newID    func() string
	beat     time.Duration
}

// Option customizes a Runner.
type Option func(*Runner)

// WithProber replaces the ffprobe-backed prober.
func WithProber(p MediaProber) Option {
	return func(r *Runner) { r.prober = p }
}

// WithExecutor replaces the ffmpeg executor.
func WithExecutor(e executor.Executor) Option {
	return func(r *Runner) { r.executor = e }
}

// WithStrategy replaces the configured matching strategy.
func WithStrategy(s matching.Strategy) Option {
	return func(r *Runner) { r.strategy = s }
}

// WithLedger records every run in store. The caller owns the store.
func WithLedger(store *ledger.Store) Option {
	return func(r *Runner) { r.ledger = store }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithIDGenerator overrides run ID generation.
func WithIDGenerator(gen func() string) Option {
	return func(r *Runner) { r.newID = gen }
}

// WithHeartbeat sets how often a running render logs progress and refreshes
// its ledger row. Zero disables the heartbeat.
func WithHeartbeat(interval time.Duration) Option {
	return func(r *Runner) { r.beat = interval }
}

// NewRunner wires a Runner from configuration.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("workflow: config is required")
	}
	logger = logging.NewComponentLogger(logger, "workflow")
	r := &Runner{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
		beat:   DefaultHeartbeatInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.strategy == nil {
		strategy, err := matching.New(cfg.Matching.Strategy, cfg.Matching.MinScore)
		if err != nil {
			return nil, fmt.Errorf("workflow: %w", err)
		}
		r.strategy = strategy
	}
	if r.prober == nil {
		r.prober = ffprobe.NewProber(cfg.FFprobeBinary(), cfg.Probe.RetryAttempts, cfg.RetryInitial(),
			logging.NewComponentLogger(logger, "ffprobe"))
	}
	if r.executor == nil {
		r.executor = executor.NewFFmpeg(executor.Settings{
			Binary:       cfg.FFmpegBinary(),
			VideoCodec:   cfg.Executor.VideoCodec,
			Preset:       cfg.Executor.Preset,
			CRF:          cfg.Executor.CRF,
			AudioCodec:   cfg.Executor.AudioCodec,
			AudioBitrate: cfg.Executor.AudioBitrate,
			Timeout:      cfg.ExecutorTimeout(),
		}, logging.NewComponentLogger(logger, "executor"))
	}
	return r, nil
}

// run carries per-run mutable state through the stages.
type run struct {
	req     Request
	report  *Report
	states  *stateMachine
	logger  *slog.Logger
	windows *timeline.WindowSet
	matched []timeline.MatchedSlot
}

// Run executes one composition. The returned report is never nil; its
// Result mirrors the returned error.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	id := r.newID()
	ctx = services.WithRunID(ctx, id)
	report := &Report{
		RunID:        id,
		State:        ledger.StatusLoaded,
		Strategy:     r.strategy.Name(),
		BasePath:     req.BasePath,
		OutputPath:   r.resolveOutput(req),
		ManifestPath: r.resolveManifest(req),
		StartedAt:    r.now(),
	}
	st := &run{
		req:    req,
		report: report,
		states: newStateMachine(),
		logger: logging.WithContext(ctx, r.logger),
	}

	r.beginLedger(ctx, st)
	err := r.execute(ctx, st)

	report.FinishedAt = r.now()
	report.Err = err
	report.Result = services.ResultCodeFor(err)
	if err != nil && !st.states.Current().IsTerminal() {
		_ = r.advance(ctx, st, ledger.StatusFailed)
	}
	report.State = st.states.Current()
	r.finishLedger(ctx, st)

	if err != nil {
		logging.ErrorWithContext(st.logger, "run failed", "run_failed",
			logging.Alert(string(report.Result)),
			logging.String("result", string(report.Result)),
			logging.String("state", string(report.State)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(report.Result)),
		)
		return report, err
	}
	st.logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("state", string(report.State)),
		logging.String("output", report.OutputPath),
		logging.Int("slots", len(report.Slots)),
		logging.Int("trimmed", report.TrimCount()),
		logging.Duration("elapsed", report.Elapsed()),
	)
	return report, nil
}

func (r *Runner) execute(ctx context.Context, st *run) error {
	if err := r.stage(ctx, st, stageLoad, r.load); err != nil {
		return err
	}
	if err := r.stage(ctx, st, stageMatch, r.match); err != nil {
		return err
	}
	if err := r.stage(ctx, st, stageReconcile, r.reconcile); err != nil {
		return err
	}
	if err := r.stage(ctx, st, stagePlan, r.plan); err != nil {
		return err
	}
	if st.req.DryRun {
		if st.req.ManifestPath != "" {
			return r.writeManifest(st)
		}
		return nil
	}
	return r.stage(ctx, st, stageExecute, r.render)
}

// stage wraps one pipeline step with the cancellation check and the
// started/completed records.
func (r *Runner) stage(ctx context.Context, st *run, name string, fn func(context.Context, *run) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := services.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, r.logger)
	started := r.now()
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	prev := st.logger
	st.logger = logger
	err := fn(stageCtx, st)
	st.logger = prev
	if err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", r.now().Sub(started)),
	)
	return nil
}

func (r *Runner) load(ctx context.Context, st *run) error {
	req := st.req
	if req.Windows == nil || req.Windows.Len() == 0 {
		return services.Errorf(services.KindValidation, stageLoad, "windows", "no windows supplied")
	}
	if strings.TrimSpace(req.BasePath) == "" {
		return services.Errorf(services.KindValidation, stageLoad, "base", "base video not specified")
	}

	base := req.BaseDuration
	var probed ffprobe.Result
	needFrame := req.Frame.IsZero() && r.cfg.Frame.Width == 0
	if base <= 0 || needFrame {
		result, err := r.prober.Probe(ctx, req.BasePath)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, fs.ErrNotExist) {
				return services.Wrap(services.KindValidation, stageLoad, "base", "base video not found", err).
					WithIdentifiers(filepath.Base(req.BasePath))
			}
			return services.Wrap(services.KindProbe, stageLoad, "probe base", "inspect base video", err).
				WithIdentifiers(filepath.Base(req.BasePath))
		}
		if result.VideoStreamCount() == 0 {
			return services.Wrap(services.KindProbe, stageLoad, "probe base", "base has no video stream", ffprobe.ErrNoVideoStream).
				WithIdentifiers(filepath.Base(req.BasePath))
		}
		probed = result
	}
	if base <= 0 {
		d, err := probed.Duration()
		if err != nil || d <= 0 {
			return services.Wrap(services.KindProbe, stageLoad, "probe base", "base video reports no duration", err).
				WithIdentifiers(filepath.Base(req.BasePath))
		}
		base = d
	}
	st.report.BaseDuration = base
	st.report.Frame = r.resolveFrame(req.Frame, probed)

	windows, err := timeline.NewWindowSet(req.Windows.Windows(), timeline.WithBaseDuration(base))
	if err != nil {
		return err
	}
	st.windows = windows
	st.logger.Info("inputs loaded",
		logging.Int("windows", windows.Len()),
		logging.Int("assets", len(req.Assets)),
		logging.Duration("base_duration", base),
		logging.String("frame", st.report.Frame.String()),
		logging.Bool("dry_run", st.req.DryRun),
	)
	return nil
}

func (r *Runner) match(ctx context.Context, st *run) error {
	slots, err := matching.Match(ctx, r.strategy, st.windows, st.req.Assets)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		st.logger.Info("asset matched", logging.Args(append(
			logging.DecisionAttrs("asset_match", slot.Asset.Identifier, r.strategy.Name()),
			logging.String(logging.FieldLabel, slot.Window.Label),
		)...)...)
	}
	st.matched = slots
	return r.advance(ctx, st, ledger.StatusMatched)
}

func (r *Runner) reconcile(ctx context.Context, st *run) error {
	assets := make([]timeline.Asset, 0, len(st.matched))
	for _, slot := range st.matched {
		assets = append(assets, slot.Asset)
	}
	durations, err := reconcile.ProbeAll(ctx, r.prober, assets, reconcile.ProbeOptions{
		Concurrency: r.cfg.Probe.Concurrency,
		Timeout:     r.cfg.ProbeTimeout(),
	})
	if err != nil {
		return err
	}
	slots, err := reconcile.All(ctx, st.matched, durations, r.cfg.Epsilon())
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.TrimNeeded {
			st.logger.Info("clip longer than window; trimming", logging.Args(append(
				logging.DecisionAttrs("duration_trim", "trim", "native duration exceeds window"),
				logging.String(logging.FieldLabel, slot.Window.Label),
				logging.String(logging.FieldIdentifier, slot.Asset.Identifier),
				logging.Duration("native", slot.Asset.NativeDuration),
				logging.Duration("window", slot.Window.Duration()),
				logging.Float64("trimmed_seconds", (slot.Asset.NativeDuration-slot.Window.Duration()).Seconds()),
			)...)...)
			continue
		}
		if short := slot.ShortFall(); short > 0 {
			st.logger.Info("clip shorter than window; base shows through", logging.Args(append(
				logging.DecisionAttrs("duration_trim", "short", "native duration below window"),
				logging.String(logging.FieldLabel, slot.Window.Label),
				logging.String(logging.FieldIdentifier, slot.Asset.Identifier),
				logging.Duration("shortfall", short),
			)...)...)
		}
	}
	st.report.Slots = slots
	r.recordSlots(ctx, st)
	return r.advance(ctx, st, ledger.StatusReconciled)
}

func (r *Runner) plan(ctx context.Context, st *run) error {
	p, err := plan.Build(st.report.Slots, plan.Options{
		Frame:        st.report.Frame,
		BaseDuration: st.report.BaseDuration,
		BasePath:     st.req.BasePath,
	})
	if err != nil {
		return err
	}
	st.report.Plan = p
	st.logger.Debug("plan built",
		logging.Int("ops", len(p.Ops())),
		logging.String("terminal", p.Terminal()),
		logging.String("filter_graph", p.FilterGraph()),
	)
	return r.advance(ctx, st, ledger.StatusPlanned)
}

func (r *Runner) render(ctx context.Context, st *run) error {
	lock, err := lockOutputDir(filepath.Dir(st.report.OutputPath))
	if err != nil {
		return err
	}
	defer func() {
		if err := unlockOutputDir(lock); err != nil {
			st.logger.Warn("output lock release failed", logging.Error(err))
		}
	}()

	stop := heartbeat{ledger: r.ledger, logger: st.logger, interval: r.beat}.start(ctx, st.report.RunID)
	result, err := r.executor.Execute(ctx, st.report.Plan, st.report.OutputPath)
	stop()
	if err != nil {
		return err
	}
	st.report.Output = result
	st.report.OutputPath = result.OutputPath
	if err := r.writeManifest(st); err != nil {
		return err
	}
	return r.advance(ctx, st, ledger.StatusExecuted)
}

func (r *Runner) writeManifest(st *run) error {
	path := st.report.ManifestPath
	if path == "" {
		return nil
	}
	doc := manifest.FromPlan(st.report.Plan, manifest.Details{
		RunID:      st.report.RunID,
		CreatedAt:  st.report.StartedAt,
		OutputPath: outputForManifest(st),
		Strategy:   st.report.Strategy,
		DryRun:     st.req.DryRun,
	})
	if err := manifest.Write(path, doc); err != nil {
		return services.Wrap(services.KindExecutor, stageExecute, "manifest", "write manifest "+path, err)
	}
	st.logger.Info("manifest written",
		logging.String("manifest", path),
		logging.String(logging.FieldEventType, "manifest_written"),
	)
	return nil
}

func outputForManifest(st *run) string {
	if st.req.DryRun {
		return ""
	}
	return st.report.OutputPath
}

// advance moves the in-memory state and mirrors it into the ledger. Ledger
// failures are logged; the ledger is an audit trail, not a precondition.
func (r *Runner) advance(ctx context.Context, st *run, next ledger.Status) error {
	if err := st.states.Advance(next); err != nil {
		return err
	}
	st.report.State = next
	if r.ledger == nil {
		return nil
	}
	if err := r.ledger.Advance(context.WithoutCancel(ctx), st.report.RunID, next); err != nil {
		logging.WarnWithContext(st.logger, "ledger transition not recorded", "ledger_write_failed",
			logging.String("state", string(next)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history may be incomplete"),
		)
	}
	return nil
}

func (r *Runner) beginLedger(ctx context.Context, st *run) {
	if r.ledger == nil {
		return
	}
	_, err := r.ledger.Begin(context.WithoutCancel(ctx), ledger.NewRun{
		ID:          st.report.RunID,
		DryRun:      st.req.DryRun,
		Strategy:    st.report.Strategy,
		WindowsPath: st.req.WindowsPath,
		AssetsDir:   st.req.AssetsDir,
		BasePath:    st.req.BasePath,
		OutputPath:  st.report.OutputPath,
	})
	if err != nil {
		logging.WarnWithContext(st.logger, "ledger run not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will be missing from inlay runs"),
		)
	}
}

func (r *Runner) recordSlots(ctx context.Context, st *run) {
	if r.ledger == nil {
		return
	}
	records := make([]ledger.SlotRecord, 0, len(st.report.Slots))
	for i, slot := range st.report.Slots {
		records = append(records, ledger.SlotRecord{
			Position:        i + 1,
			Label:           slot.Window.Label,
			Identifier:      slot.Asset.Identifier,
			WindowSeconds:   slot.Window.Duration().Seconds(),
			NativeSeconds:   slot.Asset.NativeDuration.Seconds(),
			ResolvedSeconds: slot.ResolvedDuration.Seconds(),
			TrimNeeded:      slot.TrimNeeded,
		})
	}
	if err := r.ledger.RecordSlots(context.WithoutCancel(ctx), st.report.RunID, records); err != nil {
		logging.WarnWithContext(st.logger, "ledger slots not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history lacks slot detail"),
		)
	}
}

func (r *Runner) finishLedger(ctx context.Context, st *run) {
	if r.ledger == nil {
		return
	}
	outcome := ledger.Outcome{
		ResultCode: string(st.report.Result),
		ExitCode:   st.report.Result.ExitCode(),
		Err:        st.report.Err,
	}
	if st.report.Err == nil {
		if !st.req.DryRun {
			outcome.OutputPath = st.report.OutputPath
			outcome.ManifestPath = st.report.ManifestPath
		} else if st.req.ManifestPath != "" {
			outcome.ManifestPath = st.report.ManifestPath
		}
	}
	if err := r.ledger.Finish(context.WithoutCancel(ctx), st.report.RunID, outcome); err != nil {
		logging.WarnWithContext(st.logger, "ledger outcome not recorded", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "run will appear unfinished in inlay runs"),
		)
	}
}

func (r *Runner) resolveOutput(req Request) string {
	out := strings.TrimSpace(req.OutputPath)
	if out == "" {
		out = r.cfg.DefaultOutputPath(r.now())
	}
	if abs, err := filepath.Abs(out); err == nil {
		out = abs
	}
	return out
}

func (r *Runner) resolveManifest(req Request) string {
	if path := strings.TrimSpace(req.ManifestPath); path != "" {
		return path
	}
	if req.DryRun {
		return ""
	}
	return manifest.DefaultPath(r.resolveOutput(req))
}

// resolveFrame picks the canonical frame: the request, then configuration,
// then the base video's own size rounded down to even, then 1920x1080.
func (r *Runner) resolveFrame(requested plan.Frame, base ffprobe.Result) plan.Frame {
	if !requested.IsZero() {
		return requested
	}
	if r.cfg.Frame.Width > 0 && r.cfg.Frame.Height > 0 {
		return plan.Frame{Width: r.cfg.Frame.Width, Height: r.cfg.Frame.Height}
	}
	if w, h, ok := base.FrameSize(); ok {
		frame := plan.Frame{Width: w &^ 1, Height: h &^ 1}
		if frame.Valid() {
			return frame
		}
	}
	return plan.DefaultFrame
}

func hintFor(code services.ResultCode) string {
	switch code {
	case services.ResultPartialInputError:
		return "fix the named windows or asset files and rerun"
	case services.ResultMatchFailure:
		return "rename the named assets so each window has exactly one clip"
	case services.ResultReconciliationFailure:
		return "check the named assets play and report a duration with ffprobe"
	case services.ResultPlanFailure:
		return "inspect the window timestamps against the base video length"
	case services.ResultExecutorFailure:
		return "inspect the ffmpeg stderr tail in the error message"
	case services.ResultCanceled:
		return "run was interrupted; rerun to produce output"
	default:
		return "check logs for details"
	}
}
