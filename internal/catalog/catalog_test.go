package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"inlay/internal/catalog"
	"inlay/internal/services"
)

func TestParseIdentifier(t *testing.T) {
	asset, err := catalog.ParseIdentifier("/tmp/clips/03_Market_Crash.MP4")
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if asset.Identifier != "03_Market_Crash.MP4" || asset.Ordinal != 3 || asset.Slug != "Market_Crash" || asset.Ext != "mp4" {
		t.Fatalf("unexpected asset: %+v", asset)
	}
}

func TestParseIdentifierRejectsMalformed(t *testing.T) {
	for _, name := range []string{"intro.mp4", "1_intro.mp4", "00_intro.mp4", "01_.mp4", "01___.mp4", "01_intro"} {
		_, err := catalog.ParseIdentifier(name)
		if !errors.Is(err, services.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
		verr, _ := services.AsError(err)
		if len(verr.Identifiers) != 1 {
			t.Fatalf("%s: expected identifier on error, got %v", name, verr.Identifiers)
		}
	}
}

func TestIdentifierRoundTrip(t *testing.T) {
	id := catalog.Identifier(2, "AI/ML trends", ".mp4")
	if id != "02_AI_ML_trends.mp4" {
		t.Fatalf("unexpected identifier %q", id)
	}
	asset, err := catalog.ParseIdentifier(id)
	if err != nil {
		t.Fatalf("ParseIdentifier: %v", err)
	}
	if asset.Ordinal != 2 || asset.Slug != catalog.Slugify("AI/ML trends") {
		t.Fatalf("unexpected asset: %+v", asset)
	}
}

func TestScanFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"02_outro.mov",
		"01_intro.mp4",
		".03_hidden.mp4",
		"04_partial.mp4.part",
		"notes.txt",
	} {
		writeFile(t, filepath.Join(dir, name))
	}
	if err := os.Mkdir(filepath.Join(dir, "05_dir.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	assets, err := catalog.Scan(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var ids []string
	for _, asset := range assets {
		ids = append(ids, asset.Identifier)
		if asset.Path != filepath.Join(dir, asset.Identifier) {
			t.Fatalf("unexpected path %q", asset.Path)
		}
	}
	if !slices.Equal(ids, []string{"01_intro.mp4", "02_outro.mov"}) {
		t.Fatalf("unexpected identifiers: %v", ids)
	}
}

func TestScanReportsEveryMalformedName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "01_ok.mp4"))
	writeFile(t, filepath.Join(dir, "clip.mp4"))
	writeFile(t, filepath.Join(dir, "x_intro.mkv"))

	_, err := catalog.Scan(context.Background(), dir, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	verr, _ := services.AsError(err)
	if !slices.Equal(verr.Identifiers, []string{"clip.mp4", "x_intro.mkv"}) {
		t.Fatalf("unexpected identifiers: %v", verr.Identifiers)
	}
}

func TestScanMissingDirectory(t *testing.T) {
	_, err := catalog.Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScanAttachesDownloadHints(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "01_AI_ML.mp4"))
	manifest := `{"total_videos": 1, "videos": [{"filename": "01_AI_ML.mp4", "original_name": "AI/ML", "timestamps": ["00:00", "00:10"]}]}`
	if err := os.WriteFile(filepath.Join(dir, catalog.DownloadManifestName), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	assets, err := catalog.Scan(context.Background(), dir, []string{"mp4"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(assets) != 1 || assets[0].Hint != "AI/ML" {
		t.Fatalf("unexpected assets: %+v", assets)
	}
}

func TestScanRejectsCorruptDownloadManifest(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, catalog.DownloadManifestName), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := catalog.Scan(context.Background(), dir, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestScanHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := catalog.Scan(ctx, t.TempDir(), nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
