package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inlay/internal/logging"
	"inlay/internal/workflow"
)

func newComposeCommand(ctx *commandContext) *cobra.Command {
	var inputs runInputs
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Insert clips into the base video at their windows and render the result",
		Long: `Compose matches every window to one clip, measures each clip, trims clips
longer than their window and renders the base video with the clips overlaid.
The base audio track plays through unchanged.

Exit codes: 0 success, 2 invalid input, 3 match failure, 4 duration
failure, 5 plan failure, 6 ffmpeg failure, 130 interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComposition(cmd, ctx, &inputs, dryRun, false)
		},
	}
	inputs.bind(cmd)
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Stop after planning; nothing is rendered")
	return cmd
}

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var inputs runInputs
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the slot table and ffmpeg filter graph without rendering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComposition(cmd, ctx, &inputs, true, true)
		},
	}
	inputs.bind(cmd)
	return cmd
}

// runComposition drives one run and prints the report. showGraph adds the
// filter graph to table output.
func runComposition(cmd *cobra.Command, ctx *commandContext, inputs *runInputs, dryRun, showGraph bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	logger, logPath, err := ctx.logger(cmd)
	if err != nil {
		return err
	}
	req, err := inputs.request(cmd.Context(), dryRun)
	if err != nil {
		return withExitCode(err, false)
	}

	opts := []workflow.Option{}
	store, err := ctx.openLedger(cmd.Context())
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "ledger_open_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in inlay runs"),
		)
	} else if store != nil {
		defer store.Close()
		opts = append(opts, workflow.WithLedger(store))
	}
	runner, err := workflow.NewRunner(cfg, logger, opts...)
	if err != nil {
		return err
	}

	report, runErr := runner.Run(cmd.Context(), req)
	view := newReportView(report, logPath)
	if ctx.JSONMode() {
		if err := writeJSON(cmd, view); err != nil {
			return err
		}
		return withExitCode(runErr, true)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	printReport(out, view, colorize)
	if showGraph && report.Plan != nil {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Filter Graph", colorize) {
			fmt.Fprintln(out, line)
		}
		fmt.Fprintln(out, report.Plan.FilterGraph())
	}
	return withExitCode(runErr, false)
}
