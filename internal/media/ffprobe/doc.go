// Package ffprobe provides a typed wrapper around ffprobe JSON output and
// the duration prober used while reconciling clip lengths.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Prober: retrying duration and frame-size probe backed by ffprobe
//
// Inspect runs ffprobe once; Prober.Probe wraps it with bounded exponential
// backoff so the rest of the pipeline can treat probing as a single call.
package ffprobe
