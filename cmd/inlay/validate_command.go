package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

func newValidateCommand(ctx *commandContext) *cobra.Command {
	var windowsPath string
	var baseDuration string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a window document without touching any media",
		RunE: func(cmd *cobra.Command, args []string) error {
			bound, err := parseDurationFlag(baseDuration)
			if err != nil {
				return withExitCode(services.Wrap(services.KindValidation, "load", "base duration", baseDuration, err), false)
			}
			windows, err := loadWindows(windowsPath)
			if err == nil && bound > 0 {
				windows, err = timeline.NewWindowSet(windows.Windows(), timeline.WithBaseDuration(bound))
			}

			if ctx.JSONMode() {
				doc := map[string]any{"valid": err == nil}
				if err != nil {
					doc["error"] = err.Error()
					if e, ok := services.AsError(err); ok {
						doc["labels"] = e.Labels
					}
				} else {
					doc["windows"] = windowRows(windows)
				}
				if werr := writeJSON(cmd, doc); werr != nil {
					return werr
				}
				return withExitCode(err, true)
			}
			if err != nil {
				return withExitCode(err, false)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, windows.Len())
			for i, w := range windows.All() {
				rows = append(rows, []string{
					fmt.Sprintf("%d", i+1),
					w.Label,
					timeline.FormatTimestamp(w.Start),
					timeline.FormatTimestamp(w.End),
					w.Duration().String(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Label", "Start", "End", "Length"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight},
			))
			start, end := windows.Span()
			fmt.Fprintf(out, "%d windows valid, spanning %s to %s\n", windows.Len(),
				timeline.FormatTimestamp(start), timeline.FormatTimestamp(end))
			return nil
		},
	}
	cmd.Flags().StringVarP(&windowsPath, "windows", "w", "", "Window document (JSON or YAML)")
	cmd.Flags().StringVar(&baseDuration, "base-duration", "", "Reject windows ending after this point (HH:MM:SS or Go duration)")
	_ = cmd.MarkFlagRequired("windows")
	return cmd
}

type windowRow struct {
	Label string  `json:"label"`
	Start string  `json:"start"`
	End   string  `json:"end"`
	Secs  float64 `json:"duration_seconds"`
}

func windowRows(windows *timeline.WindowSet) []windowRow {
	rows := make([]windowRow, 0, windows.Len())
	for _, w := range windows.All() {
		rows = append(rows, windowRow{
			Label: w.Label,
			Start: timeline.FormatTimestamp(w.Start),
			End:   timeline.FormatTimestamp(w.End),
			Secs:  w.Duration().Seconds(),
		})
	}
	return rows
}
