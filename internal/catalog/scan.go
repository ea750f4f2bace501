package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"inlay/internal/services"
	"inlay/internal/timeline"
)

// DefaultExtensions lists the container formats considered when no explicit
// extension filter is given.
var DefaultExtensions = []string{".mp4", ".mov", ".mkv", ".webm", ".m4v"}

var tempSuffixes = []string{".tmp", ".part", ".partial", ".crdownload", "~"}

// Scan lists candidate assets in dir. Hidden and temporary files are skipped,
// as are files whose extension is not in exts. Every remaining file must carry
// a well-formed identifier; malformed names fail the scan together.
func Scan(ctx context.Context, dir string, exts []string) ([]timeline.Asset, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, services.Errorf(services.KindValidation, "catalog", "scan", "asset directory not specified")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.KindValidation, "catalog", "scan", "asset directory "+dir+" does not exist", err)
		}
		return nil, services.Wrap(services.KindValidation, "catalog", "scan", "read asset directory "+dir, err)
	}

	allowed := normalizeExtensions(exts)
	hints, err := LoadDownloadManifest(dir)
	if err != nil {
		return nil, err
	}

	var (
		assets    []timeline.Asset
		malformed []string
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || skipName(name) {
			continue
		}
		if !slices.Contains(allowed, strings.ToLower(filepath.Ext(name))) {
			continue
		}
		asset, err := ParseIdentifier(name)
		if err != nil {
			malformed = append(malformed, name)
			continue
		}
		asset.Path = filepath.Join(dir, name)
		asset.Hint = hints[name]
		assets = append(assets, asset)
	}

	if len(malformed) > 0 {
		slices.Sort(malformed)
		return nil, services.Errorf(services.KindValidation, "catalog", "scan",
			"%d file(s) in %s do not follow {ordinal}_{slug}.{ext}", len(malformed), dir).WithIdentifiers(malformed...)
	}
	slices.SortFunc(assets, func(a, b timeline.Asset) int {
		return strings.Compare(a.Identifier, b.Identifier)
	})
	return assets, nil
}

func normalizeExtensions(exts []string) []string {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

func skipName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
