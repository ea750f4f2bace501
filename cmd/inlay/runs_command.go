package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inlay/internal/ledger"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFilters []string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent composition runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatusFilters(statusFilters)
			if err != nil {
				return err
			}
			store, err := ctx.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errNoLedger
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			summary, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("run stats: %w", err)
			}

			if ctx.JSONMode() {
				views := make([]runView, 0, len(runs))
				for _, run := range runs {
					views = append(views, newRunView(run))
				}
				return writeJSON(cmd, map[string]any{
					"runs":      views,
					"total":     summary.Total,
					"succeeded": summary.Succeeded,
					"failed":    summary.Failed,
				})
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			colorize := shouldColorize(out)
			now := time.Now()
			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				result := run.ResultCode
				if result == "" {
					result = "-"
				}
				mode := "render"
				if run.DryRun {
					mode = "dry run"
				}
				rows = append(rows, []string{
					shortID(run.ID),
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					colorizeCell(string(run.Status), runStatusKind(run), colorize),
					result,
					mode,
					fmt.Sprintf("%d", run.SlotCount),
					run.Elapsed(now).Round(time.Second).String(),
					displayOutput(run),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "State", "Result", "Mode", "Slots", "Elapsed", "Output"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d runs recorded: %d succeeded, %d failed\n", summary.Total, summary.Succeeded, summary.Failed)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Only show runs in these states")
	cmd.AddCommand(newRunsShowCommand(ctx))
	return cmd
}

func newRunsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its slots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger(cmd.Context())
			if err != nil {
				return err
			}
			if store == nil {
				return errNoLedger
			}
			defer store.Close()

			run, err := findRun(cmd, store, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			slots, err := store.Slots(cmd.Context(), run.ID)
			if err != nil {
				return fmt.Errorf("load slots: %w", err)
			}
			view := newRunView(run)
			view.Slots = slots
			if ctx.JSONMode() {
				return writeJSON(cmd, view)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Run "+run.ID, colorize) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintln(out, renderStatusLine("State", runStatusKind(run), string(run.Status), colorize))
			fmt.Fprintln(out, renderStatusLine("Result", statusInfo, fmt.Sprintf("%s (exit %d)", view.ResultCode, run.ExitCode), colorize))
			fmt.Fprintln(out, renderStatusLine("Dry run", statusInfo, yesNo(run.DryRun), colorize))
			fmt.Fprintln(out, renderStatusLine("Base", statusInfo, run.BasePath, colorize))
			fmt.Fprintln(out, renderStatusLine("Output", statusInfo, displayOutput(run), colorize))
			if run.ManifestPath != "" {
				fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, run.ManifestPath, colorize))
			}
			if run.ErrorMessage != "" {
				fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
			}
			if len(slots) == 0 {
				return nil
			}
			rows := make([][]string, 0, len(slots))
			for _, slot := range slots {
				rows = append(rows, []string{
					fmt.Sprintf("%d", slot.Position),
					slot.Label,
					slot.Identifier,
					formatSeconds(slot.WindowSeconds),
					formatSeconds(slot.NativeSeconds),
					formatSeconds(slot.ResolvedSeconds),
					yesNo(slot.TrimNeeded),
				})
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Label", "Asset", "Length", "Clip", "Shown", "Trimmed"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}

// findRun resolves a full run ID or a unique prefix of one.
func findRun(cmd *cobra.Command, store *ledger.Store, id string) (*ledger.Run, error) {
	if run, err := store.Get(cmd.Context(), id); err == nil {
		return run, nil
	}
	runs, err := store.List(cmd.Context(), 0)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	var match *ledger.Run
	for _, run := range runs {
		if !strings.HasPrefix(run.ID, id) {
			continue
		}
		if match != nil {
			return nil, fmt.Errorf("run prefix %q is ambiguous", id)
		}
		match = run
	}
	if match == nil {
		return nil, fmt.Errorf("run %q not found", id)
	}
	return match, nil
}

type runView struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	ResultCode   string              `json:"result_code,omitempty"`
	ExitCode     int                 `json:"exit_code"`
	DryRun       bool                `json:"dry_run"`
	Strategy     string              `json:"strategy,omitempty"`
	BasePath     string              `json:"base_path,omitempty"`
	OutputPath   string              `json:"output_path,omitempty"`
	ManifestPath string              `json:"manifest_path,omitempty"`
	SlotCount    int                 `json:"slot_count"`
	Error        string              `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	Slots        []ledger.SlotRecord `json:"slots,omitempty"`
}

func newRunView(run *ledger.Run) runView {
	return runView{
		ID:           run.ID,
		Status:       string(run.Status),
		ResultCode:   run.ResultCode,
		ExitCode:     run.ExitCode,
		DryRun:       run.DryRun,
		Strategy:     run.Strategy,
		BasePath:     run.BasePath,
		OutputPath:   run.OutputPath,
		ManifestPath: run.ManifestPath,
		SlotCount:    run.SlotCount,
		Error:        run.ErrorMessage,
		CreatedAt:    run.CreatedAt,
		FinishedAt:   run.FinishedAt,
	}
}

func parseStatusFilters(values []string) ([]ledger.Status, error) {
	statuses := make([]ledger.Status, 0, len(values))
	for _, value := range values {
		status, ok := ledger.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q (want one of %s)", value, joinStatuses(ledger.AllStatuses()))
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func joinStatuses(statuses []ledger.Status) string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

func shortID(id string) string {
	if head, _, ok := strings.Cut(id, "-"); ok && len(head) >= 8 {
		return head
	}
	return id
}

func displayOutput(run *ledger.Run) string {
	switch {
	case run.DryRun:
		return "(dry run)"
	case run.OutputPath == "":
		return "-"
	default:
		return run.OutputPath
	}
}
