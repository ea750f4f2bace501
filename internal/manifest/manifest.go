// Package manifest records what a composition run did, for audit and for
// downstream tooling. A manifest is written only after a run succeeds.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"inlay/internal/plan"
	"inlay/internal/timeline"
)

// Version is bumped whenever a field changes meaning.
const Version = 1

// Manifest is the audit document for one run.
type Manifest struct {
	Version             int        `json:"version"`
	RunID               string     `json:"run_id"`
	CreatedAt           time.Time  `json:"created_at"`
	DryRun              bool       `json:"dry_run"`
	BasePath            string     `json:"base_path"`
	BaseDurationSeconds float64    `json:"base_duration_seconds"`
	OutputPath          string     `json:"output_path,omitempty"`
	Frame               plan.Frame `json:"frame"`
	Strategy            string     `json:"matching_strategy,omitempty"`
	FilterGraph         string     `json:"filter_graph"`
	Slots               []Slot     `json:"slots"`
}

// Slot describes one window and the clip composited into it.
type Slot struct {
	Label           string  `json:"label"`
	Identifier      string  `json:"identifier"`
	AssetPath       string  `json:"asset_path"`
	Start           string  `json:"start"`
	End             string  `json:"end"`
	WindowSeconds   float64 `json:"window_seconds"`
	NativeSeconds   float64 `json:"native_seconds"`
	ResolvedSeconds float64 `json:"resolved_seconds"`
	OverlayEnd      string  `json:"overlay_end"`
	TrimNeeded      bool    `json:"trim_needed"`
}

// Details carries the run metadata that is not part of the plan.
type Details struct {
	RunID      string
	CreatedAt  time.Time
	OutputPath string
	Strategy   string
	DryRun     bool
}

// FromPlan builds the manifest for p.
func FromPlan(p *plan.Plan, d Details) Manifest {
	m := Manifest{
		Version:             Version,
		RunID:               d.RunID,
		CreatedAt:           d.CreatedAt.UTC(),
		DryRun:              d.DryRun,
		BasePath:            p.BasePath(),
		BaseDurationSeconds: p.BaseDuration().Seconds(),
		OutputPath:          d.OutputPath,
		Frame:               p.Frame(),
		Strategy:            d.Strategy,
		FilterGraph:         p.FilterGraph(),
	}
	for _, slot := range p.Slots() {
		m.Slots = append(m.Slots, Slot{
			Label:           slot.Window.Label,
			Identifier:      slot.Asset.Identifier,
			AssetPath:       slot.Asset.Path,
			Start:           timeline.FormatTimestamp(slot.Window.Start),
			End:             timeline.FormatTimestamp(slot.Window.End),
			WindowSeconds:   slot.Window.Duration().Seconds(),
			NativeSeconds:   slot.Asset.NativeDuration.Seconds(),
			ResolvedSeconds: slot.ResolvedDuration.Seconds(),
			OverlayEnd:      timeline.FormatTimestamp(slot.End()),
			TrimNeeded:      slot.TrimNeeded,
		})
	}
	return m
}

// Suffix ends every manifest written next to its output.
const Suffix = ".manifest.json"

// DefaultPath places the manifest beside the output: final.mp4 becomes
// final.manifest.json.
func DefaultPath(outputPath string) string {
	ext := filepath.Ext(outputPath)
	return strings.TrimSuffix(outputPath, ext) + Suffix
}

// Write stores m at path atomically and durably.
func Write(path string, m Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	data = append(data, '\n')

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending manifest: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()
	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}

// Read loads a manifest written by Write.
func Read(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	if m.Version != Version {
		return Manifest{}, fmt.Errorf("manifest %s has version %d, want %d", path, m.Version, Version)
	}
	return m, nil
}
