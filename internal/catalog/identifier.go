package catalog

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"inlay/internal/services"
	"inlay/internal/textutil"
	"inlay/internal/timeline"
)

var identifierPattern = regexp.MustCompile(`^(\d{2,})_(.+)\.([A-Za-z0-9]+)$`)

// Slugify renders a window label the way the download collaborator embeds it
// in file names.
func Slugify(label string) string {
	return textutil.Slugify(label)
}

// Identifier builds the canonical identifier for a window at the given
// 1-based position.
func Identifier(ordinal int, label, ext string) string {
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	if ext == "" {
		ext = "mp4"
	}
	return fmt.Sprintf("%02d_%s.%s", ordinal, Slugify(label), ext)
}

// ParseIdentifier splits a catalog file name into its ordinal, slug and
// extension. Only the base name is considered.
func ParseIdentifier(name string) (timeline.Asset, error) {
	base := filepath.Base(strings.TrimSpace(name))
	m := identifierPattern.FindStringSubmatch(base)
	if m == nil {
		return timeline.Asset{}, services.Errorf(services.KindValidation, "catalog", "parse identifier",
			"%q does not follow {ordinal}_{slug}.{ext}", base).WithIdentifiers(base)
	}
	ordinal, err := strconv.Atoi(m[1])
	if err != nil || ordinal < 1 {
		return timeline.Asset{}, services.Errorf(services.KindValidation, "catalog", "parse identifier",
			"%q has ordinal %q; ordinals start at 01", base, m[1]).WithIdentifiers(base)
	}
	slug := strings.Trim(m[2], "_")
	if slug == "" {
		return timeline.Asset{}, services.Errorf(services.KindValidation, "catalog", "parse identifier",
			"%q has an empty slug", base).WithIdentifiers(base)
	}
	return timeline.Asset{
		Identifier: base,
		Ordinal:    ordinal,
		Slug:       m[2],
		Ext:        strings.ToLower(m[3]),
	}, nil
}
