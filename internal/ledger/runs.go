package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `id, status, result_code, exit_code, dry_run, strategy, windows_path, assets_dir,
    base_path, output_path, manifest_path, log_path, slot_count, error_message,
    created_at, updated_at, finished_at`

// NewRun describes a run as it enters the ledger in the loaded state.
type NewRun struct {
	ID          string
	DryRun      bool
	Strategy    string
	WindowsPath string
	AssetsDir   string
	BasePath    string
	OutputPath  string
	LogPath     string
}

// Begin inserts a run in StatusLoaded.
func (s *Store) Begin(ctx context.Context, in NewRun) (*Run, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, errors.New("run id is required")
	}
	if strings.TrimSpace(in.BasePath) == "" {
		return nil, errors.New("base path is required")
	}
	now := formatTime(time.Now())
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (
            id, status, dry_run, strategy, windows_path, assets_dir, base_path,
            output_path, log_path, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID,
		StatusLoaded,
		boolToInt(in.DryRun),
		nullableString(in.Strategy),
		nullableString(in.WindowsPath),
		nullableString(in.AssetsDir),
		in.BasePath,
		nullableString(in.OutputPath),
		nullableString(in.LogPath),
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.Get(ctx, in.ID)
}

// Advance moves a run from its current state to next. Transitions are
// one-way: a run never returns to an earlier stage and never leaves
// executed or failed.
func (s *Store) Advance(ctx context.Context, id string, next Status) error {
	from := predecessors(next)
	if len(from) == 0 {
		return fmt.Errorf("%w: nothing may move to %q", ErrInvalidTransition, next)
	}
	args := []any{next, formatTime(time.Now()), id}
	for _, status := range from {
		args = append(args, status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+makePlaceholders(len(from))+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("advance run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("advance run rows: %w", err)
	}
	if affected == 1 {
		return nil
	}
	run, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s -> %s for run %s", ErrInvalidTransition, run.Status, next, id)
}

// Touch refreshes a running run's updated_at so history can tell a live
// render from an abandoned one. Finished runs are left alone.
func (s *Store) Touch(ctx context.Context, id string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET updated_at = ? WHERE id = ? AND finished_at IS NULL`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return fmt.Errorf("touch run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// RecordSlots replaces the slot rows of a run.
func (s *Store) RecordSlots(ctx context.Context, id string, slots []SlotRecord) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin slots tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, `DELETE FROM run_slots WHERE run_id = ?`, id); err != nil {
			return fmt.Errorf("clear slots: %w", err)
		}
		for _, slot := range slots {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO run_slots (
                    run_id, position, label, identifier, window_seconds,
                    native_seconds, resolved_seconds, trim_needed
                ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				id, slot.Position, slot.Label, slot.Identifier, slot.WindowSeconds,
				slot.NativeSeconds, slot.ResolvedSeconds, boolToInt(slot.TrimNeeded),
			)
			if err != nil {
				return fmt.Errorf("insert slot %s: %w", slot.Label, err)
			}
		}
		res, err := tx.ExecContext(ctx, `UPDATE runs SET slot_count = ?, updated_at = ? WHERE id = ?`,
			len(slots), formatTime(time.Now()), id)
		if err != nil {
			return fmt.Errorf("update slot count: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return tx.Commit()
	})
}

// Slots returns the recorded slots of a run in position order.
func (s *Store) Slots(ctx context.Context, id string) ([]SlotRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, label, identifier, window_seconds, native_seconds, resolved_seconds, trim_needed
        FROM run_slots WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("query slots: %w", err)
	}
	defer rows.Close()

	var out []SlotRecord
	for rows.Next() {
		var (
			slot SlotRecord
			trim int
		)
		if err := rows.Scan(&slot.Position, &slot.Label, &slot.Identifier, &slot.WindowSeconds,
			&slot.NativeSeconds, &slot.ResolvedSeconds, &trim); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slot.TrimNeeded = trim != 0
		out = append(out, slot)
	}
	return out, rows.Err()
}

// Finish records the outcome of a run. A failing outcome also moves the run
// to StatusFailed; a successful one leaves the status where the run stopped
// (planned for dry runs, executed otherwise).
func (s *Store) Finish(ctx context.Context, id string, outcome Outcome) error {
	if outcome.Err != nil {
		run, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if !run.Status.IsTerminal() {
			if err := s.Advance(ctx, id, StatusFailed); err != nil {
				return err
			}
		}
	}
	var message string
	if outcome.Err != nil {
		message = outcome.Err.Error()
	}
	now := formatTime(time.Now())
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET result_code = ?, exit_code = ?, output_path = COALESCE(?, output_path),
            manifest_path = ?, error_message = ?, updated_at = ?, finished_at = ?
        WHERE id = ? AND finished_at IS NULL`,
		outcome.ResultCode,
		outcome.ExitCode,
		nullableString(outcome.OutputPath),
		nullableString(outcome.ManifestPath),
		nullableString(message),
		now,
		now,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("run %s already finished", id)
	}
	return nil
}

// Get fetches a run by ID.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// List returns the most recent runs first, optionally filtered by status.
// A limit of 0 returns every run.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats counts runs per status.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return Summary{}, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	summary := Summary{ByStatus: make(map[Status]int)}
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, fmt.Errorf("scan stats: %w", err)
		}
		summary.ByStatus[Status(status)] = count
		summary.Total += count
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}
	summary.Failed = summary.ByStatus[StatusFailed]
	summary.Succeeded = summary.ByStatus[StatusExecuted]
	return summary, nil
}

// Prune deletes finished runs created before cutoff and returns how many
// were removed. Slot rows cascade.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE finished_at IS NOT NULL AND created_at < ?`, formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run                                       Run
		status                                    string
		resultCode, strategy, windowsPath, assets sql.NullString
		outputPath, manifestPath, logPath, errMsg sql.NullString
		exitCode                                  sql.NullInt64
		dryRun                                    int
		createdAt, updatedAt                      string
		finishedAt                                sql.NullString
	)
	if err := scanner.Scan(
		&run.ID, &status, &resultCode, &exitCode, &dryRun, &strategy, &windowsPath, &assets,
		&run.BasePath, &outputPath, &manifestPath, &logPath, &run.SlotCount, &errMsg,
		&createdAt, &updatedAt, &finishedAt,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.ResultCode = resultCode.String
	run.ExitCode = int(exitCode.Int64)
	run.DryRun = dryRun != 0
	run.Strategy = strategy.String
	run.WindowsPath = windowsPath.String
	run.AssetsDir = assets.String
	run.OutputPath = outputPath.String
	run.ManifestPath = manifestPath.String
	run.LogPath = logPath.String
	run.ErrorMessage = errMsg.String

	var err error
	if run.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, err
	}
	if run.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, err
	}
	if finishedAt.Valid && finishedAt.String != "" {
		ts, err := parseTimeString(finishedAt.String)
		if err != nil {
			return nil, err
		}
		run.FinishedAt = &ts
	}
	return &run, nil
}
