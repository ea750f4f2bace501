package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"inlay/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var basePath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify ffmpeg, ffprobe and the configured directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			if basePath != "" {
				results = append(results, preflight.CheckReadableFile("Base video", basePath))
			}
			failed := preflight.Failed(results)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"ok":     len(failed) == 0,
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Environment", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
			}
			if len(failed) > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d check(s) failed", len(failed)), silent: ctx.JSONMode()}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&basePath, "base", "b", "", "Also check that this base video is readable")
	return cmd
}
