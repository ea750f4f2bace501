package main

import (
	"fmt"
	"io"
	"time"

	"inlay/internal/services"
	"inlay/internal/timeline"
	"inlay/internal/workflow"
)

// reportView is the printable and JSON form of a workflow report.
type reportView struct {
	RunID        string     `json:"run_id"`
	State        string     `json:"state"`
	Result       string     `json:"result"`
	ExitCode     int        `json:"exit_code"`
	Strategy     string     `json:"strategy"`
	BasePath     string     `json:"base_path"`
	BaseSeconds  float64    `json:"base_duration_seconds"`
	Frame        string     `json:"frame,omitempty"`
	OutputPath   string     `json:"output_path,omitempty"`
	ManifestPath string     `json:"manifest_path,omitempty"`
	LogPath      string     `json:"log_path,omitempty"`
	ElapsedMS    int64      `json:"elapsed_ms"`
	Slots        []slotView `json:"slots"`
	Error        string     `json:"error,omitempty"`
	ErrorLabels  []string   `json:"error_labels,omitempty"`
	ErrorAssets  []string   `json:"error_identifiers,omitempty"`
	FilterGraph  string     `json:"filter_graph,omitempty"`
	OutputBytes  int64      `json:"output_bytes,omitempty"`
	TrimmedSlots int        `json:"trimmed_slots"`
}

type slotView struct {
	Label           string  `json:"label"`
	Identifier      string  `json:"identifier"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	WindowSeconds   float64 `json:"window_seconds"`
	NativeSeconds   float64 `json:"native_seconds"`
	ResolvedSeconds float64 `json:"resolved_seconds"`
	TrimNeeded      bool    `json:"trim_needed"`
}

func newReportView(report *workflow.Report, logPath string) reportView {
	view := reportView{
		RunID:        report.RunID,
		State:        string(report.State),
		Result:       string(report.Result),
		ExitCode:     report.Result.ExitCode(),
		Strategy:     report.Strategy,
		BasePath:     report.BasePath,
		BaseSeconds:  report.BaseDuration.Seconds(),
		LogPath:      logPath,
		ElapsedMS:    report.Elapsed().Milliseconds(),
		Slots:        make([]slotView, 0, len(report.Slots)),
		TrimmedSlots: report.TrimCount(),
	}
	if !report.Frame.IsZero() {
		view.Frame = report.Frame.String()
	}
	if report.Plan != nil {
		view.FilterGraph = report.Plan.FilterGraph()
	}
	if report.Err == nil {
		view.OutputPath = report.Output.OutputPath
		view.OutputBytes = report.Output.SizeBytes
		view.ManifestPath = report.ManifestPath
	}
	for _, slot := range report.Slots {
		view.Slots = append(view.Slots, newSlotView(slot))
	}
	if report.Err != nil {
		view.Error = report.Err.Error()
		if e, ok := services.AsError(report.Err); ok {
			view.ErrorLabels = e.Labels
			view.ErrorAssets = e.Identifiers
		}
	}
	return view
}

func newSlotView(slot timeline.ReconciledSlot) slotView {
	return slotView{
		Label:           slot.Window.Label,
		Identifier:      slot.Asset.Identifier,
		Start:           timeline.FormatTimestamp(slot.Window.Start),
		End:             timeline.FormatTimestamp(slot.Window.End),
		WindowSeconds:   slot.Window.Duration().Seconds(),
		NativeSeconds:   slot.Asset.NativeDuration.Seconds(),
		ResolvedSeconds: slot.ResolvedDuration.Seconds(),
		TrimNeeded:      slot.TrimNeeded,
	}
}

func printReport(out io.Writer, view reportView, colorize bool) {
	for _, line := range renderSectionHeader("Run "+view.RunID, colorize) {
		fmt.Fprintln(out, line)
	}
	kind := statusOK
	if view.Error != "" {
		kind = statusError
	}
	fmt.Fprintln(out, renderStatusLine("Result", kind, fmt.Sprintf("%s (state %s)", view.Result, view.State), colorize))
	fmt.Fprintln(out, renderStatusLine("Base", statusInfo, fmt.Sprintf("%s (%s, %s)", view.BasePath, formatSeconds(view.BaseSeconds), view.Frame), colorize))
	if view.OutputPath != "" {
		fmt.Fprintln(out, renderStatusLine("Output", statusInfo, view.OutputPath, colorize))
	}
	if view.ManifestPath != "" {
		fmt.Fprintln(out, renderStatusLine("Manifest", statusInfo, view.ManifestPath, colorize))
	}
	if view.LogPath != "" {
		fmt.Fprintln(out, renderStatusLine("Log", statusInfo, view.LogPath, colorize))
	}
	if view.Error != "" {
		fmt.Fprintln(out, renderStatusLine("Error", statusError, view.Error, colorize))
	}
	if len(view.Slots) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, slotTable(view.Slots))
	if view.TrimmedSlots > 0 {
		fmt.Fprintf(out, "%d of %d clips trimmed to their window\n", view.TrimmedSlots, len(view.Slots))
	}
}

func slotTable(slots []slotView) string {
	rows := make([][]string, 0, len(slots))
	for i, slot := range slots {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			slot.Label,
			slot.Identifier,
			slot.Start + " - " + slot.End,
			formatSeconds(slot.WindowSeconds),
			formatSeconds(slot.NativeSeconds),
			formatSeconds(slot.ResolvedSeconds),
			adjustment(slot),
		})
	}
	return renderTable(
		[]string{"#", "Label", "Asset", "Window", "Length", "Clip", "Shown", "Adjustment"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func adjustment(slot slotView) string {
	switch {
	case slot.TrimNeeded:
		return "trimmed " + formatSeconds(slot.NativeSeconds-slot.ResolvedSeconds)
	case slot.ResolvedSeconds < slot.WindowSeconds:
		return "base shows " + formatSeconds(slot.WindowSeconds-slot.ResolvedSeconds)
	default:
		return "-"
	}
}

func formatSeconds(seconds float64) string {
	return time.Duration(seconds * float64(time.Second)).Round(time.Millisecond).String()
}
