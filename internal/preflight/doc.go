// Package preflight provides readiness checks for the binaries and
// filesystem paths inlay depends on.
//
// These checks run in two contexts:
//   - The compose command calls RunAll before loading inputs, so a missing
//     ffmpeg or unwritable output directory fails in milliseconds rather than
//     after every asset has been probed.
//   - The "inlay check" command prints every result as a table.
//
// The ledger directory is only checked when the ledger is enabled.
package preflight
