package catalog

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"inlay/internal/services"
)

// DownloadManifestName is the file the download collaborator leaves next to
// the clips it fetched.
const DownloadManifestName = "download_manifest.json"

// DownloadManifest mirrors the collaborator's manifest. Only the fields used
// for matching hints are decoded.
type DownloadManifest struct {
	TotalVideos int             `json:"total_videos"`
	Videos      []DownloadEntry `json:"videos"`
}

// DownloadEntry describes one fetched clip.
type DownloadEntry struct {
	Filename     string   `json:"filename"`
	OriginalName string   `json:"original_name"`
	Query        string   `json:"query,omitempty"`
	Timestamps   []string `json:"timestamps,omitempty"`
}

// LoadDownloadManifest reads dir's download manifest and returns the original
// label of each clip keyed by file name. A missing manifest yields an empty
// map; a present but unreadable one is a validation error.
func LoadDownloadManifest(dir string) (map[string]string, error) {
	path := filepath.Join(dir, DownloadManifestName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, services.Wrap(services.KindValidation, "catalog", "read download manifest", path, err)
	}
	var manifest DownloadManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, services.Wrap(services.KindValidation, "catalog", "decode download manifest", path, err)
	}
	hints := make(map[string]string, len(manifest.Videos))
	for _, entry := range manifest.Videos {
		name := filepath.Base(strings.TrimSpace(entry.Filename))
		original := strings.TrimSpace(entry.OriginalName)
		if name == "" || name == "." || original == "" {
			continue
		}
		hints[name] = original
	}
	return hints, nil
}
