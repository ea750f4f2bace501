package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inlay/internal/staging"
)

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var keepRuns bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale partial renders, orphaned manifests and old run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, _, err := ctx.logger(cmd)
			if err != nil {
				return err
			}

			partials := staging.CleanPartials(cmd.Context(), cfg.Paths.OutputDir, maxAge, logger)
			manifests := staging.CleanOrphanedManifests(cmd.Context(), cfg.Paths.OutputDir, logger)

			var pruned int64
			if !keepRuns {
				store, err := ctx.openLedger(cmd.Context())
				if err != nil {
					return err
				}
				if store != nil {
					defer store.Close()
					pruned, err = store.Prune(cmd.Context(), time.Now().Add(-maxAge))
					if err != nil {
						return fmt.Errorf("prune runs: %w", err)
					}
				}
			}

			failures := len(partials.Errors) + len(manifests.Errors)
			if ctx.JSONMode() {
				if err := writeJSON(cmd, map[string]any{
					"partials_removed":  nonNil(partials.Removed),
					"manifests_removed": nonNil(manifests.Removed),
					"runs_pruned":       pruned,
					"errors":            failures,
				}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Removed %d partial render(s) and %d orphaned manifest(s) from %s\n",
					len(partials.Removed), len(manifests.Removed), cfg.Paths.OutputDir)
				if !keepRuns {
					fmt.Fprintf(out, "Pruned %d run(s) older than %s\n", pruned, maxAge)
				}
				for _, e := range append(partials.Errors, manifests.Errors...) {
					fmt.Fprintf(out, "  failed: %s: %v\n", e.Path, e.Error)
				}
			}
			if failures > 0 {
				return &exitError{code: 1, err: fmt.Errorf("%d file(s) could not be removed", failures), silent: ctx.JSONMode()}
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "Only remove partials and runs older than this")
	cmd.Flags().BoolVar(&keepRuns, "keep-runs", false, "Leave run history untouched")
	return cmd
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
