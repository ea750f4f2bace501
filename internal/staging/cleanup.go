package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inlay/internal/executor"
	"inlay/internal/logging"
	"inlay/internal/manifest"
)

// CleanResult contains the outcome of a cleanup pass over an output directory.
type CleanResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanPartials removes temporary renders older than maxAge that an
// interrupted run left in outputDir. Younger partials may belong to a render
// still in progress and are kept.
func CleanPartials(ctx context.Context, outputDir string, maxAge time.Duration, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	entries, ok := readDir(outputDir, &result)
	if !ok {
		return result
	}
	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if entry.IsDir() || !executor.IsPartialOutput(entry.Name()) {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		remove(&result, path, logger, "removed stale partial render",
			logging.Duration("age", time.Since(info.ModTime())),
			logging.Int64("size_bytes", info.Size()),
		)
	}
	return result
}

// CleanOrphanedManifests removes manifests in outputDir whose recorded
// output no longer exists. Dry-run manifests have no output and are kept,
// as are files that do not parse as manifests.
func CleanOrphanedManifests(ctx context.Context, outputDir string, logger *slog.Logger) CleanResult {
	result := CleanResult{}
	entries, ok := readDir(outputDir, &result)
	if !ok {
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), manifest.Suffix) {
			continue
		}
		path := filepath.Join(outputDir, entry.Name())
		doc, err := manifest.Read(path)
		if err != nil || doc.OutputPath == "" {
			continue
		}
		if _, err := os.Stat(doc.OutputPath); !os.IsNotExist(err) {
			continue
		}
		remove(&result, path, logger, "removed orphaned manifest",
			logging.String("output", doc.OutputPath),
			logging.String(logging.FieldRunID, doc.RunID),
		)
	}
	return result
}

// ListRenders returns the finished renders and leftover partials in
// outputDir with their metadata.
func ListRenders(outputDir string) ([]FileInfo, error) {
	outputDir = strings.TrimSpace(outputDir)
	if outputDir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var files []FileInfo
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, manifest.Suffix) {
			continue
		}
		partial := executor.IsPartialOutput(name)
		if strings.HasPrefix(name, ".") && !partial {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:    name,
			Path:    filepath.Join(outputDir, name),
			ModTime: info.ModTime(),
			Size:    info.Size(),
			Partial: partial,
		})
	}
	return files, nil
}

// FileInfo contains metadata about a file in the output directory.
type FileInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
	Partial bool
}

func readDir(dir string, result *CleanResult) ([]os.DirEntry, bool) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		}
		return nil, false
	}
	return entries, true
}

func remove(result *CleanResult, path string, logger *slog.Logger, msg string, attrs ...logging.Attr) {
	if err := os.Remove(path); err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
		if logger != nil {
			logger.Warn("output cleanup failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "output_cleanup_failed"),
				logging.String(logging.FieldErrorHint, "check output_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
		return
	}
	result.Removed = append(result.Removed, path)
	if logger != nil {
		logger.Info(msg, logging.Args(append([]logging.Attr{
			logging.String("path", path),
			logging.String(logging.FieldEventType, "output_cleanup"),
		}, attrs...)...)...)
	}
}
