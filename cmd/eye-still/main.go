// eye-still runs one still image through the electrode pipeline and writes
// every stage plus the final output to disk. It needs no OpenCV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/bionic-eye/internal/config"
	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/capture"
	"github.com/teslashibe/bionic-eye/pkg/debug"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/simulator"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

// Options holds the command line configuration.
type Options struct {
	Input  string
	OutDir string
	Preset string

	// Overrides applied on top of the preset, as accepted by tuning.Manager.UpdateConfig
	Overrides map[string]interface{}
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Init(config.LogLevel())

	snap, err := run(context.Background(), opts)
	if err != nil {
		log.Error("❌ Failed", "error", err)
		os.Exit(1)
	}
	for _, f := range snap.Files {
		fmt.Println(f)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags(args []string) (Options, error) {
	fs := flag.NewFlagSet("eye-still", flag.ContinueOnError)

	var opts Options
	fs.StringVar(&opts.Input, "in", "", "Input image (required)")
	fs.StringVar(&opts.OutDir, "out", config.SnapshotDir(), "Output directory (BIONIC_SNAPSHOT_DIR)")
	fs.StringVar(&opts.Preset, "preset", tuning.PresetDefault, "Tuning preset")
	ew := fs.Int("ew", 0, "Electrode grid width override")
	eh := fs.Int("eh", 0, "Electrode grid height override")
	angle := fs.Int("angle", -1, "Crop angle percent override")
	aspect := fs.Float64("aspect", 0, "Aspect scale override")
	zoom := fs.Int("zoom", 0, "Zoom override")
	skipGray := fs.Bool("skip-gray", false, "Skip grayscale (shows the quantizer rejection path)")
	debugStages := fs.Bool("debug-stages", false, "Trace every pipeline stage")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.Input == "" {
		return opts, fmt.Errorf("-in is required")
	}
	debug.Stages = *debugStages

	opts.Overrides = make(map[string]interface{})
	if *ew > 0 {
		opts.Overrides["electrode_width"] = *ew
	}
	if *eh > 0 {
		opts.Overrides["electrode_height"] = *eh
	}
	if *angle >= 0 {
		opts.Overrides["crop_angle_percent"] = *angle
	}
	if *aspect > 0 {
		opts.Overrides["aspect_scale"] = *aspect
	}
	if *zoom > 0 {
		opts.Overrides["zoom"] = *zoom
	}
	if *skipGray {
		opts.Overrides["skip_grayscale"] = true
	}
	return opts, nil
}

// run processes opts.Input once and saves the stages and the output.
func run(ctx context.Context, opts Options) (*snapshot.Snapshot, error) {
	src, err := capture.OpenImage(opts.Input)
	if err != nil {
		return nil, err
	}

	m := tuning.NewManager()
	if err := m.ApplyPreset(opts.Preset); err != nil {
		return nil, err
	}
	if len(opts.Overrides) > 0 {
		if err := m.UpdateConfig(opts.Overrides); err != nil {
			return nil, err
		}
	}

	writer, err := snapshot.NewWriter(opts.OutDir)
	if err != nil {
		return nil, err
	}

	var saved *snapshot.Snapshot
	app, err := simulator.New(src, simulator.Config{},
		simulator.WithTuning(m),
		simulator.WithSnapshots(writer),
		simulator.OnResult(func(_ *eye.Result, s *snapshot.Snapshot) { saved = s }),
	)
	if err != nil {
		return nil, err
	}
	defer app.Close()

	id := app.RequestSnapshot()
	if err := app.Step(ctx); err != nil {
		return nil, err
	}
	if saved == nil {
		return nil, fmt.Errorf("snapshot %s was not written", id)
	}

	out := filepath.Join(opts.OutDir, id+"_output.png")
	if err := imaging.Save(app.Latest().Output.ToImage(), out); err != nil {
		return saved, fmt.Errorf("failed to save output: %w", err)
	}
	saved.Files = append(saved.Files, out)

	log.Info("processed", "input", opts.Input, "config", fmt.Sprintf("%+v", m.GetConfig()), "files", len(saved.Files))
	return saved, nil
}
