package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// RequiredFilters lists the libavfilter filters compositing plans use.
var RequiredFilters = []string{"scale", "pad", "setsar", "trim", "setpts", "overlay"}

const probeTimeout = 5 * time.Second

// Requirements returns the ffmpeg and ffprobe requirements for the
// configured binaries.
func Requirements(ffmpegBinary, ffprobeBinary string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpegBinary, Description: "Required to render compositions"},
		{Name: "FFprobe", Command: ffprobeBinary, Description: "Required to measure base and asset durations"},
	}
}

// Inspect checks the binaries and, for those found, records the version line
// each reports. For ffmpeg it also verifies the filters plans depend on.
func Inspect(ctx context.Context, ffmpegBinary, ffprobeBinary string) []Status {
	statuses := CheckBinaries(Requirements(ffmpegBinary, ffprobeBinary))
	for i := range statuses {
		s := &statuses[i]
		if !s.Available {
			continue
		}
		version, err := Version(ctx, s.Path)
		if err != nil {
			s.Available = false
			s.Detail = fmt.Sprintf("version check failed: %v", err)
			continue
		}
		s.Version = version
		if s.Name != "FFmpeg" {
			continue
		}
		missing, err := MissingFilters(ctx, s.Path, RequiredFilters)
		if err != nil {
			s.Detail = fmt.Sprintf("filter listing failed: %v", err)
			continue
		}
		if len(missing) > 0 {
			s.Available = false
			s.Detail = "missing filters: " + strings.Join(missing, ", ")
		}
	}
	return statuses
}

// Version runs "<binary> -version" and returns the version token from the
// first line, e.g. "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func Version(ctx context.Context, binary string) (string, error) {
	out, err := run(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		return "", err
	}
	return parseVersion(out), nil
}

func parseVersion(out []byte) string {
	line, _, _ := bytes.Cut(out, []byte("\n"))
	fields := strings.Fields(string(line))
	for i, field := range fields {
		if field == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(string(line))
}

// MissingFilters returns the entries of want that "<binary> -filters" does
// not list.
func MissingFilters(ctx context.Context, binary string, want []string) ([]string, error) {
	out, err := run(ctx, binary, "-hide_banner", "-filters")
	if err != nil {
		return nil, err
	}
	have := parseFilters(out)
	var missing []string
	for _, name := range want {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// parseFilters reads the "-filters" table. Data rows carry a flag column,
// the filter name and its pad signature; header rows are skipped because
// their second column is not followed by an "->" signature.
func parseFilters(out []byte) map[string]struct{} {
	filters := make(map[string]struct{})
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 || !strings.Contains(fields[2], "->") {
			continue
		}
		filters[fields[1]] = struct{}{}
	}
	return filters
}

func run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, binary, args...)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", binary, strings.Join(args, " "), err)
	}
	return out, nil
}
