// Package services defines the shared failure taxonomy and context helpers
// used by every composition stage.
//
// Key responsibilities:
//   - Structured errors (Validation, Match, Probe, Plan, Executor) that carry
//     the offending window labels and asset identifiers.
//   - Result codes derived from those errors so callers can branch on cause.
//   - Context helpers that stamp run IDs, stage names, and asset identifiers
//     for logging.
//
// Stages return *Error values built with Wrap; the workflow runner and CLI
// only ever inspect them through errors.Is and ResultCodeFor.
package services
