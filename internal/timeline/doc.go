// Package timeline holds the value types shared by every composition stage:
// timestamps, windows, assets, and the matched and reconciled slots derived
// from them.
//
// WindowSet is the entry point. It is built once per run from the analysis
// collaborator's (label, start, end) triples, validates them as a whole, and
// afterwards only hands out copies so downstream stages cannot disturb its
// ordering guarantees: windows sorted by start never overlap and, when a base
// duration is known, never run past the end of the base track.
package timeline
