package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/devdash-mcp/internal/capture"
	"github.com/1broseidon/devdash-mcp/internal/config"
	"github.com/1broseidon/devdash-mcp/internal/explorer"
	"github.com/1broseidon/devdash-mcp/internal/fault"
	"github.com/1broseidon/devdash-mcp/internal/mcp"
	"github.com/1broseidon/devdash-mcp/internal/windows"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func runWindows(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	all := fs.Bool("all", false, "List every window, not only DevDash-related ones")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: devdash-mcp windows [--all] [--json]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()
	deps, err := mcp.BuildDeps(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	list := deps.Windows.List(context.Background())
	if !*all {
		list = windows.FilterByKeywords(list, cfg.Windows.Keywords)
	}
	if *asJSON {
		return printJSON(stdout, list)
	}
	printWindows(stdout, list)
	return 0
}

func printWindows(w io.Writer, list []windows.Info) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No windows found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSIZE\tTITLE")
	for _, win := range list {
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\n", win.ID, win.Width, win.Height, win.Title)
	}
	tw.Flush()
}

// captureFlags holds the parsed capture options. Negative values mean
// "not given".
type captureFlags struct {
	window     string
	out        string
	scale      float64
	cropLeft   float64
	cropCenter float64
	preview    bool
}

func parseCaptureFlags(args []string) (*captureFlags, error) {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	f := &captureFlags{}
	fs.StringVar(&f.window, "window", "", "Window name (exact title, then substring; case-insensitive)")
	fs.StringVar(&f.out, "out", "", "Output PNG file")
	fs.Float64Var(&f.scale, "scale", 1.0, "Scale factor 0.3-1.0")
	fs.Float64Var(&f.cropLeft, "crop-left", -1, "Keep the leftmost fraction 0.1-1.0 of the width")
	fs.Float64Var(&f.cropCenter, "crop-center", -1, "Keep the central fraction 0.1-1.0")
	fs.BoolVar(&f.preview, "preview", false, "Use the gauge preview preset (left 60%, center 80%, scale 50%)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: devdash-mcp capture --window NAME --out FILE [--scale F] [--crop-left F] [--crop-center F] [--preview]")
		fmt.Fprintln(os.Stderr, "")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.window == "" && f.preview {
		f.window = "explorer"
	}
	if f.window == "" {
		return nil, errors.New("--window is required")
	}
	if f.out == "" {
		return nil, errors.New("--out is required")
	}
	return f, nil
}

func (f *captureFlags) options() capture.Options {
	if f.preview {
		return capture.PreviewOptions()
	}
	opts := capture.Options{Scale: capture.Clamp(f.scale, 0.3, 1.0)}
	if f.cropLeft >= 0 {
		opts.CropLeft = capture.Float(capture.Clamp(f.cropLeft, 0.1, 1.0))
	}
	if f.cropCenter >= 0 {
		opts.CropCenter = capture.Float(capture.Clamp(f.cropCenter, 0.1, 1.0))
	}
	return opts
}

func runCapture(args []string, stdout io.Writer) int {
	f, err := parseCaptureFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()
	deps, err := mcp.BuildDeps(cfg, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ctx := context.Background()
	res, err := deps.Capture.CaptureWindow(ctx, capture.Request{Window: f.window, Options: f.options()})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", fault.KindOf(err), err)
		if fault.Is(err, fault.NotFound) {
			titles := windows.Titles(windows.FilterByKeywords(deps.Windows.List(ctx), cfg.Windows.Keywords))
			if len(titles) > 0 {
				fmt.Fprintln(os.Stderr, "Available windows:")
				for _, t := range titles {
					fmt.Fprintf(os.Stderr, "  %s\n", t)
				}
			}
		}
		return 1
	}
	if err := os.WriteFile(f.out, res.PNG, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", f.out, err)
		return 1
	}
	fmt.Fprintf(stdout, "Captured %q (%s) via %s: %d bytes -> %s\n", res.Title, res.WindowID, res.Strategy, len(res.PNG), f.out)
	return 0
}

func runExplorerStatus(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("explorer-status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: devdash-mcp explorer-status")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer logger.Sync()

	st := explorer.New(cfg.Explorer, explorer.WithLogger(logger)).Status(context.Background())
	if code := printJSON(stdout, st); code != 0 {
		return code
	}
	if !st.Running {
		return 1
	}
	return 0
}

func runConfig(args []string, stdout io.Writer) int {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: devdash-mcp config")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Print the effective configuration and the files it was loaded from.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	res, err := config.LoadWithSources()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		return 1
	}
	for _, f := range res.Files {
		fmt.Fprintf(stdout, "# loaded: %s\n", f)
	}
	enc := yaml.NewEncoder(stdout)
	enc.SetIndent(2)
	if err := enc.Encode(res.Config); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode config: %v\n", err)
		return 1
	}
	enc.Close()
	return 0
}

func printJSON(w io.Writer, v any) int {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode output: %v\n", err)
		return 1
	}
	return 0
}
