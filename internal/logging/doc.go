// Package logging assembles the structured slog loggers used across inlay.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with run IDs, stages, and asset identifiers. Runs started from the
// CLI tee every record into a dated JSON file under the configured log
// directory; CleanupOldLogs prunes those files once they age past the
// retention window.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same keys.
package logging
