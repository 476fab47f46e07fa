// Bionic Eye - prosthetic vision simulator
// Streams a webcam (or a still image) through the electrode pipeline and shows
// what an implant wearer would see, with live tuning from trackbars or the dashboard.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/bionic-eye/internal/config"
	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/camera"
	"github.com/teslashibe/bionic-eye/pkg/capture"
	"github.com/teslashibe/bionic-eye/pkg/debug"
	"github.com/teslashibe/bionic-eye/pkg/display"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/feed/zmqfeed"
	"github.com/teslashibe/bionic-eye/pkg/simulator"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
	"github.com/teslashibe/bionic-eye/pkg/web"
)

// Options holds the command line configuration.
type Options struct {
	Camera      camera.Config
	ImagePath   string
	Preset      string
	WebPort     string
	SnapshotDir string
	FeedAddr    string
	FeedHWM     int
	Headless    bool
	Interval    time.Duration
	LogLevel    string
	Debug       bool
	DebugStages bool
}

func main() {
	opts := parseFlags()

	log.Init(opts.LogLevel)
	debug.Enabled = opts.Debug
	debug.Stages = opts.DebugStages

	src, err := openSource(opts)
	if err != nil {
		fatal("❌ Failed to open source", err)
	}

	m := tuning.NewManager()
	if opts.Preset != "" {
		if err := m.ApplyPreset(opts.Preset); err != nil {
			fatal("❌ Configuration error", err)
		}
	}

	writer, err := snapshot.NewWriter(opts.SnapshotDir)
	if err != nil {
		fatal("❌ Snapshot directory", err)
	}

	var server *web.Server
	appOpts := []simulator.Option{
		simulator.WithTuning(m),
		simulator.WithSnapshots(writer),
		simulator.OnResult(func(r *eye.Result, s *snapshot.Snapshot) {
			if server != nil {
				server.PublishResult(r, s)
			}
		}),
	}

	if opts.FeedAddr != "" {
		pub, err := zmqfeed.Bind(opts.FeedAddr, opts.FeedHWM)
		if err != nil {
			fatal("❌ Grid feed", err)
		}
		appOpts = append(appOpts, simulator.WithSink(pub))
	}

	if !opts.Headless {
		appOpts = append(appOpts, simulator.WithDisplay(display.Open(display.DefaultTitle, m, 1)))
	}

	app, err := simulator.New(src, simulator.Config{FrameInterval: opts.Interval}, appOpts...)
	if err != nil {
		fatal("❌ Initialization failed", err)
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.WebPort != "" {
		server = web.NewServer(opts.WebPort, app)
		m.OnConfigChange = server.NotifyConfig
		server.StartAsync(ctx)
		defer server.Shutdown()
	}

	log.Info("👁️  Bionic Eye running", "source", src.Name(), "preset", m.Preset(), "headless", opts.Headless)
	if err := app.Run(ctx); err != nil {
		fatal("❌ Runtime error", err)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() Options {
	opts := Options{Camera: camera.DefaultConfig()}

	device := flag.Int("camera", config.CameraDevice(opts.Camera.Device), "Webcam device index (BIONIC_CAMERA)")
	flag.IntVar(&opts.Camera.Width, "width", opts.Camera.Width, "Requested capture width")
	flag.IntVar(&opts.Camera.Height, "height", opts.Camera.Height, "Requested capture height")
	flag.IntVar(&opts.Camera.Framerate, "fps", opts.Camera.Framerate, "Requested capture frame rate")
	flag.StringVar(&opts.ImagePath, "image", "", "Replay a still image instead of the webcam")
	flag.StringVar(&opts.Preset, "preset", "", "Initial tuning preset: "+presetList())
	flag.StringVar(&opts.WebPort, "web", config.WebPort(), "Dashboard port, empty to disable (BIONIC_WEB_PORT)")
	flag.StringVar(&opts.SnapshotDir, "snapshots", config.SnapshotDir(), "Snapshot output directory (BIONIC_SNAPSHOT_DIR)")
	flag.StringVar(&opts.FeedAddr, "feed", config.FeedEndpoint(), "ZMQ PUB endpoint for electrode grids, e.g. tcp://*:5556 (BIONIC_FEED_ENDPOINT)")
	flag.IntVar(&opts.FeedHWM, "feed-hwm", 8, "ZMQ send high water mark")
	flag.BoolVar(&opts.Headless, "headless", false, "Run without a window")
	flag.DurationVar(&opts.Interval, "interval", 0, "Minimum time between passes, 0 for source rate")
	flag.StringVar(&opts.LogLevel, "log-level", config.LogLevel(), "Log level: debug, info, warn, error (BIONIC_LOG_LEVEL)")
	flag.BoolVar(&opts.Debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&opts.DebugStages, "debug-stages", false, "Trace every pipeline stage (very verbose)")
	flag.Parse()

	opts.Camera.Device = *device
	if opts.ImagePath != "" && opts.Interval == 0 {
		// A still image would otherwise spin the loop
		opts.Interval = 33 * time.Millisecond
	}
	return opts
}

func openSource(opts Options) (capture.Source, error) {
	if opts.ImagePath != "" {
		return capture.OpenImage(opts.ImagePath)
	}
	return camera.Open(opts.Camera)
}

func presetList() string {
	return strings.Join(tuning.PresetNames(), ", ")
}

func fatal(msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
