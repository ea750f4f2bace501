// Package plan turns reconciled slots into a linear compositing plan.
//
// A plan is a totally ordered list of operations with one terminal video
// stream. The base video is normalized to the canonical frame, then every
// slot contributes a Normalize op (trim to the resolved duration, shift onto
// the window start, scale with preserved aspect ratio, pad centered) and an
// Overlay op that consumes the previous overlay's output. A final
// AudioPassthrough op routes the base audio unchanged; clip audio is never
// mapped. Building a plan performs no I/O.
//
// FilterGraph renders the video chain as an ffmpeg filter_complex string and
// Request renders the executor contract.
package plan
