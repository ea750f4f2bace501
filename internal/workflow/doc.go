// Package workflow runs one composition from loaded windows to a rendered
// output.
//
// A Runner owns the per-run state machine
// Loaded -> Matched -> Reconciled -> Planned -> Executed, with Failed
// reachable from every non-terminal state. Each stage checks for
// cancellation before it starts, logs "stage started" and "stage completed"
// records tagged with the run ID, and advances the state exactly once.
// Transitions are one-way; the ledger enforces the same rule on disk.
//
// The runner probes the base video for its duration and frame, rebinds the
// window set to that duration, matches assets, probes and reconciles
// durations, builds the plan, and (unless the request is a dry run) hands the
// plan to the executor while holding an exclusive lock on the output
// directory. The audit manifest is written only after the render succeeds.
// Input assets are never modified.
package workflow
