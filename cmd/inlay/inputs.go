package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inlay/internal/catalog"
	"inlay/internal/config"
	"inlay/internal/plan"
	"inlay/internal/services"
	"inlay/internal/timeline"
	"inlay/internal/windowsrc"
	"inlay/internal/workflow"
)

// runInputs are the flags shared by compose and plan.
type runInputs struct {
	windowsPath  string
	assetsDir    string
	basePath     string
	baseDuration string
	outputPath   string
	manifestPath string
	width        int
	height       int
	extensions   []string
}

func (in *runInputs) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&in.windowsPath, "windows", "w", "", "Window document (JSON or YAML) mapping label to [start, end]")
	flags.StringVarP(&in.assetsDir, "assets", "a", "", "Directory holding the {ordinal}_{slug}.{ext} clips")
	flags.StringVarP(&in.basePath, "base", "b", "", "Base video")
	flags.StringVar(&in.baseDuration, "base-duration", "", "Base duration (HH:MM:SS or Go duration); probed when omitted")
	flags.StringVarP(&in.outputPath, "output", "o", "", "Output path (default output_dir/final_video_<timestamp>.mp4)")
	flags.StringVar(&in.manifestPath, "manifest", "", "Manifest path (default next to the output)")
	flags.IntVar(&in.width, "width", 0, "Canonical frame width (overrides config)")
	flags.IntVar(&in.height, "height", 0, "Canonical frame height (overrides config)")
	flags.StringSliceVar(&in.extensions, "ext", nil, "Asset extensions to consider (default "+strings.Join(catalog.DefaultExtensions, ",")+")")
	_ = cmd.MarkFlagRequired("windows")
	_ = cmd.MarkFlagRequired("assets")
	_ = cmd.MarkFlagRequired("base")
}

// request loads the window document and scans the asset directory.
func (in *runInputs) request(ctx context.Context, dryRun bool) (workflow.Request, error) {
	windows, err := loadWindows(in.windowsPath)
	if err != nil {
		return workflow.Request{}, err
	}
	if (in.width == 0) != (in.height == 0) {
		return workflow.Request{}, services.Errorf(services.KindValidation, "load", "frame", "--width and --height must be given together")
	}
	baseDuration, err := parseDurationFlag(in.baseDuration)
	if err != nil {
		return workflow.Request{}, services.Wrap(services.KindValidation, "load", "base duration", in.baseDuration, err)
	}
	assetsDir, err := config.ExpandPath(in.assetsDir)
	if err != nil {
		return workflow.Request{}, services.Wrap(services.KindValidation, "load", "assets", in.assetsDir, err)
	}
	basePath, err := config.ExpandPath(in.basePath)
	if err != nil {
		return workflow.Request{}, services.Wrap(services.KindValidation, "load", "base", in.basePath, err)
	}
	assets, err := catalog.Scan(ctx, assetsDir, in.extensions)
	if err != nil {
		return workflow.Request{}, err
	}
	return workflow.Request{
		Windows:      windows,
		Assets:       assets,
		BasePath:     basePath,
		BaseDuration: baseDuration,
		Frame:        plan.Frame{Width: in.width, Height: in.height},
		OutputPath:   strings.TrimSpace(in.outputPath),
		ManifestPath: strings.TrimSpace(in.manifestPath),
		DryRun:       dryRun,
		WindowsPath:  in.windowsPath,
		AssetsDir:    assetsDir,
	}, nil
}

func loadWindows(path string) (*timeline.WindowSet, error) {
	path, err := config.ExpandPath(path)
	if err != nil {
		return nil, services.Wrap(services.KindValidation, "load", "windows", path, err)
	}
	specs, err := windowsrc.Load(path)
	if err != nil {
		return nil, err
	}
	return timeline.ParseWindowSet(specs)
}

// parseDurationFlag accepts a timestamp ("01:30", "00:01:30.5") or a Go
// duration ("90s"). Empty means unknown.
func parseDurationFlag(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	if d, err := timeline.ParseTimestamp(value); err == nil {
		return d, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%q is neither a timestamp nor a duration", value)
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s must be positive", d)
	}
	return d, nil
}
