package deps

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

const filterListing = `Filters:
  T.. = Timeline support
  .S. = Slice threading
  ..C = Command support
  A = Audio input/output
 ... anull             A->A       Pass the source unchanged to the output.
 TSC overlay           VV->V      Overlay a video source on top of the input.
 ..C scale             V->V       Scale the input video size and/or convert the image format.
 ... setpts            V->V       Set PTS for the output video frame.
 ... setsar            V->V       Set the pixel sample aspect ratio.
 ... trim              V->V       Pick one continuous section from the input, drop the rest.
`

func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func TestCheckBinaries(t *testing.T) {
	present := writeStub(t, t.TempDir(), "present", "exit 0\n")
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Path != present || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	missing := Missing(results)
	if len(missing) != 1 || missing[0].Name != "Missing" {
		t.Fatalf("optional entries must not count as missing: %#v", missing)
	}
}

func TestInspectReportsVersions(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeStub(t, dir, "ffmpeg", `case "$2" in
  -version) echo "ffmpeg version 6.1.1-3ubuntu5 Copyright (c) 2000-2023 the FFmpeg developers";;
  -filters) cat <<'LIST'
`+filterListing+`LIST
;;
esac
`)
	ffprobe := writeStub(t, dir, "ffprobe", `echo "ffprobe version 6.1.1 Copyright (c) 2007-2023"`+"\n")

	statuses := Inspect(context.Background(), ffmpeg, ffprobe)
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	for _, s := range statuses {
		if !s.Available {
			t.Fatalf("%s unavailable: %s", s.Name, s.Detail)
		}
	}
	if statuses[0].Version != "6.1.1-3ubuntu5" || statuses[1].Version != "6.1.1" {
		t.Fatalf("unexpected versions: %q %q", statuses[0].Version, statuses[1].Version)
	}
}

func TestInspectFlagsMissingFilters(t *testing.T) {
	dir := t.TempDir()
	ffmpeg := writeStub(t, dir, "ffmpeg", `case "$2" in
  -version) echo "ffmpeg version n7.0";;
  -filters) echo " ... scale V->V Scale"; echo " ... pad V->V Pad";;
esac
`)
	statuses := Inspect(context.Background(), ffmpeg, "clearly-not-present-ffprobe")
	if statuses[0].Available {
		t.Fatal("expected ffmpeg without overlay to be unavailable")
	}
	if statuses[0].Detail != "missing filters: setsar, trim, setpts, overlay" {
		t.Fatalf("unexpected detail %q", statuses[0].Detail)
	}
	if statuses[1].Available {
		t.Fatal("expected missing ffprobe to be unavailable")
	}
}

func TestParseFiltersSkipsLegend(t *testing.T) {
	got := parseFilters([]byte(filterListing))
	var names []string
	for name := range got {
		names = append(names, name)
	}
	slices.Sort(names)
	want := []string{"anull", "overlay", "scale", "setpts", "setsar", "trim"}
	if !slices.Equal(names, want) {
		t.Fatalf("parseFilters = %v, want %v", names, want)
	}
}

func TestParseVersionFallsBackToFirstLine(t *testing.T) {
	if got := parseVersion([]byte("custom build\nmore")); got != "custom build" {
		t.Fatalf("unexpected fallback %q", got)
	}
}
