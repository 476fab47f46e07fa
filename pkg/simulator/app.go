// Package simulator drives the vision pipeline from a frame source.
// Each pass reads one frame, runs it through the pipeline with the current
// tuning snapshot, shows the result, publishes the electrode grid and
// handles keyboard commands.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/capture"
	"github.com/teslashibe/bionic-eye/pkg/debug"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/feed"
	"github.com/teslashibe/bionic-eye/pkg/frame"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

// Key codes understood by the loop.
const (
	KeyNone     = -1
	KeyEscape   = 27
	KeyQuit     = 'q'
	KeySnapshot = 's'
	KeyBypass   = 'a'
	KeyGray     = 'g'
)

// ErrQuit is returned by Step when the viewer asked to exit.
var ErrQuit = errors.New("simulator: quit requested")

// Display shows frames and reports the key pressed while showing, or KeyNone.
type Display interface {
	Show(f frame.Frame) int
	Close() error
}

// ControlSyncer is implemented by displays whose controls mirror the tuning
// config. SyncControls is called whenever the config changes elsewhere.
type ControlSyncer interface {
	SyncControls(cfg eye.Config)
}

// Config holds loop settings.
type Config struct {
	// FrameInterval paces the loop. Zero runs as fast as the source delivers.
	FrameInterval time.Duration
}

// Stats summarizes the passes run so far.
type Stats struct {
	Source             string            `json:"source"`
	Frames             uint64            `json:"frames"`
	LastDuration       time.Duration     `json:"last_duration_ns"`
	CropOutcomes       map[string]uint64 `json:"crop_outcomes"`
	QuantizeRejections uint64            `json:"quantize_rejections"`
	Published          uint64            `json:"published"`
	PublishErrors      uint64            `json:"publish_errors"`
	Snapshots          uint64            `json:"snapshots"`
	LastSnapshot       string            `json:"last_snapshot,omitempty"`
	Bypass             bool              `json:"bypass"`
}

// Option configures an App.
type Option func(*App)

// WithDisplay shows every pass on d.
func WithDisplay(d Display) Option {
	return func(a *App) {
		a.display = d
	}
}

// WithSnapshots saves requested snapshots through w.
func WithSnapshots(w *snapshot.Writer) Option {
	return func(a *App) {
		a.snapshots = w
	}
}

// WithSink publishes every electrode grid to s.
func WithSink(s feed.Sink) Option {
	return func(a *App) {
		a.sink = s
	}
}

// WithTuning uses m instead of a fresh default manager.
func WithTuning(m *tuning.Manager) Option {
	return func(a *App) {
		a.tuning = m
	}
}

// OnResult registers a callback run after every pass.
func OnResult(fn func(r *eye.Result, s *snapshot.Snapshot)) Option {
	return func(a *App) {
		a.onResult = fn
	}
}

// App runs the capture loop.
type App struct {
	config   Config
	source   capture.Source
	pipeline *eye.Pipeline
	tuning   *tuning.Manager

	display   Display
	snapshots *snapshot.Writer
	sink      feed.Sink
	onResult  func(r *eye.Result, s *snapshot.Snapshot)

	mu         sync.Mutex
	stats      Stats
	bypass     bool
	pendingIDs []string
	lastSynced eye.Config
	seq        uint64
	latest     *eye.Result
}

// New creates an App reading from src.
func New(src capture.Source, cfg Config, opts ...Option) (*App, error) {
	if src == nil {
		return nil, errors.New("simulator: source is required")
	}
	if cfg.FrameInterval < 0 {
		return nil, fmt.Errorf("simulator: negative frame interval %v", cfg.FrameInterval)
	}

	a := &App{
		config:   cfg,
		source:   src,
		pipeline: eye.New(),
		sink:     feed.Discard{},
		stats: Stats{
			Source:       src.Name(),
			CropOutcomes: make(map[string]uint64),
		},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.tuning == nil {
		a.tuning = tuning.NewManager()
	}

	a.pipeline.OnStageError = func(err error) {
		if eye.IsInvalidChannelCount(err) {
			a.mu.Lock()
			a.stats.QuantizeRejections++
			a.mu.Unlock()
		}
		log.Warn("stage failed", "error", err)
	}

	return a, nil
}

// Tuning returns the config manager the loop reads from.
func (a *App) Tuning() *tuning.Manager {
	return a.tuning
}

// Run loops until ctx is done, the source closes or the viewer quits.
func (a *App) Run(ctx context.Context) error {
	log.Info("simulator started", "source", a.source.Name())
	defer log.Info("simulator stopped", "frames", a.Stats().Frames)

	var ticker *time.Ticker
	if a.config.FrameInterval > 0 {
		ticker = time.NewTicker(a.config.FrameInterval)
		defer ticker.Stop()
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		err := a.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrQuit), errors.Is(err, capture.ErrClosed):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case errors.Is(err, capture.ErrNoFrame):
			debug.Log("⚠️  no frame from %s\n", a.source.Name())
		default:
			return err
		}

		if ticker != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	}
}

// Step runs one pass: read, process, display, publish and snapshot.
func (a *App) Step(ctx context.Context) error {
	src, err := a.source.Read(ctx)
	if err != nil {
		return err
	}

	cfg := a.tuning.GetConfig()
	r, err := a.pipeline.Process(src, cfg)
	if err != nil {
		return fmt.Errorf("simulator: process: %w", err)
	}

	a.mu.Lock()
	a.stats.Frames++
	a.stats.LastDuration = r.Duration
	a.stats.CropOutcomes[r.CropOutcome.String()]++
	bypass := a.bypass
	a.latest = r
	a.mu.Unlock()

	a.publish(r)
	snap := a.saveSnapshot(r)

	if a.display != nil {
		a.syncControls(cfg)
		view := r.Output
		if bypass {
			view = r.Initial
		}
		if key := a.display.Show(view); key != KeyNone {
			if err := a.HandleKey(key); err != nil {
				return err
			}
		}
	}

	if a.onResult != nil {
		a.onResult(r, snap)
	}
	return nil
}

// HandleKey applies a keyboard command.
func (a *App) HandleKey(key int) error {
	switch key {
	case KeyEscape, KeyQuit:
		return ErrQuit
	case KeySnapshot:
		id := a.RequestSnapshot()
		log.Info("snapshot requested", "id", id)
	case KeyBypass:
		on := a.ToggleBypass()
		log.Info("bypass toggled", "enabled", on)
	case KeyGray:
		cfg := a.tuning.GetConfig()
		cfg.SkipGrayscale = !cfg.SkipGrayscale
		if err := a.tuning.SetConfig(cfg); err != nil {
			log.Warn("failed to toggle grayscale", "error", err)
		}
	}
	return nil
}

// RequestSnapshot schedules a snapshot of the next pass and returns its id.
func (a *App) RequestSnapshot() string {
	id := snapshot.NewID()
	a.mu.Lock()
	a.pendingIDs = append(a.pendingIDs, id)
	a.mu.Unlock()
	return id
}

// ToggleBypass switches the display between raw input and processed output.
func (a *App) ToggleBypass() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bypass = !a.bypass
	a.stats.Bypass = a.bypass
	return a.bypass
}

// Latest returns the most recent pass, or nil before the first one.
func (a *App) Latest() *eye.Result {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.latest
}

// Stats returns a copy of the loop counters.
func (a *App) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.stats
	s.CropOutcomes = make(map[string]uint64, len(a.stats.CropOutcomes))
	for k, v := range a.stats.CropOutcomes {
		s.CropOutcomes[k] = v
	}
	return s
}

// Close releases the source, display and sink.
func (a *App) Close() error {
	var errs []error
	if err := a.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.display != nil {
		if err := a.display.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := a.sink.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) publish(r *eye.Result) {
	if r.Quantized.Kind() != frame.Gray {
		return
	}

	a.mu.Lock()
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	msg, err := feed.NewGridMessage(seq, time.Now(), r.Quantized, r.Config)
	if err == nil {
		err = a.sink.Publish(msg)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.stats.PublishErrors++
		debug.Log("⚠️  publish failed: %v\n", err)
		return
	}
	a.stats.Published++
}

func (a *App) saveSnapshot(r *eye.Result) *snapshot.Snapshot {
	a.mu.Lock()
	if len(a.pendingIDs) == 0 || a.snapshots == nil {
		a.pendingIDs = nil
		a.mu.Unlock()
		return nil
	}
	id := a.pendingIDs[0]
	a.pendingIDs = a.pendingIDs[1:]
	a.mu.Unlock()

	snap, err := a.snapshots.Save(id, r)
	if err != nil {
		log.Error("snapshot failed", "id", id, "error", err)
		return nil
	}

	a.mu.Lock()
	a.stats.Snapshots++
	a.stats.LastSnapshot = snap.ID
	a.mu.Unlock()
	log.Info("snapshot saved", "id", snap.ID, "dir", snap.Dir, "files", len(snap.Files))
	return snap
}

func (a *App) syncControls(cfg eye.Config) {
	syncer, ok := a.display.(ControlSyncer)
	if !ok {
		return
	}
	a.mu.Lock()
	changed := a.lastSynced != cfg
	a.lastSynced = cfg
	a.mu.Unlock()
	if changed {
		syncer.SyncControls(cfg)
	}
}
