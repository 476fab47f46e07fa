package simulator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/teslashibe/bionic-eye/pkg/capture"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/feed"
	"github.com/teslashibe/bionic-eye/pkg/frame"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

type fakeDisplay struct {
	mu     sync.Mutex
	keys   []int
	shown  []frame.Frame
	synced []eye.Config
	closed bool
}

func (d *fakeDisplay) Show(f frame.Frame) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shown = append(d.shown, f)
	if len(d.keys) == 0 {
		return KeyNone
	}
	k := d.keys[0]
	d.keys = d.keys[1:]
	return k
}

func (d *fakeDisplay) SyncControls(cfg eye.Config) {
	d.synced = append(d.synced, cfg)
}

func (d *fakeDisplay) Close() error {
	d.closed = true
	return nil
}

type fakeSink struct {
	msgs []feed.GridMessage
	err  error
}

func (s *fakeSink) Publish(m feed.GridMessage) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, m)
	return nil
}

func (s *fakeSink) Close() error { return nil }

// countingSource returns ErrClosed after n frames.
type countingSource struct {
	f    frame.Frame
	left int
}

func (s *countingSource) Read(ctx context.Context) (frame.Frame, error) {
	if s.left <= 0 {
		return frame.Frame{}, capture.ErrClosed
	}
	s.left--
	return s.f.Clone(), nil
}

func (s *countingSource) Name() string { return "counting" }
func (s *countingSource) Close() error { return nil }

func testFrame() frame.Frame {
	f := frame.NewColor(64, 48)
	for i := range f.Pix {
		f.Pix[i] = uint8(i % 251)
	}
	return f
}

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(nil, Config{}); err == nil {
		t.Error("Expected error for nil source")
	}
	if _, err := New(capture.NewStaticSource("x", testFrame()), Config{FrameInterval: -1}); err == nil {
		t.Error("Expected error for negative interval")
	}
}

func TestStep_ShowsOutputAndPublishes(t *testing.T) {
	d := &fakeDisplay{}
	sink := &fakeSink{}
	app, err := New(capture.NewStaticSource("still", testFrame()), Config{},
		WithDisplay(d), WithSink(sink))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := app.Step(context.Background()); err != nil {
			t.Fatalf("Step failed: %v", err)
		}
	}

	cfg := eye.DefaultConfig()
	want := frame.Frame{Width: cfg.ElectrodeWidth * cfg.Zoom, Height: cfg.ElectrodeHeight * cfg.Zoom}
	if len(d.shown) != 2 || d.shown[0].Width != want.Width || d.shown[0].Height != want.Height {
		t.Errorf("Expected two %dx%d frames shown, got %d", want.Width, want.Height, len(d.shown))
	}
	if len(sink.msgs) != 2 {
		t.Fatalf("Expected 2 published grids, got %d", len(sink.msgs))
	}
	if sink.msgs[0].Seq != 1 || sink.msgs[1].Seq != 2 {
		t.Errorf("Expected sequence 1,2, got %d,%d", sink.msgs[0].Seq, sink.msgs[1].Seq)
	}
	if len(d.synced) != 1 {
		t.Errorf("Expected controls synced once, got %d", len(d.synced))
	}

	s := app.Stats()
	if s.Frames != 2 || s.Published != 2 {
		t.Errorf("Expected 2 frames and 2 published, got %+v", s)
	}
	if s.Source != "still" {
		t.Errorf("Expected source name 'still', got %q", s.Source)
	}
}

func TestHandleKey_Bypass(t *testing.T) {
	d := &fakeDisplay{keys: []int{KeyBypass}}
	src := testFrame()
	app, _ := New(capture.NewStaticSource("still", src), Config{}, WithDisplay(d))

	app.Step(context.Background())
	app.Step(context.Background())

	if !frame.Equal(d.shown[1], src) {
		t.Error("Expected raw frame after bypass toggle")
	}
	if !app.Stats().Bypass {
		t.Error("Expected bypass in stats")
	}
}

func TestHandleKey_Quit(t *testing.T) {
	for _, key := range []int{KeyEscape, KeyQuit} {
		d := &fakeDisplay{keys: []int{key}}
		app, _ := New(capture.NewStaticSource("still", testFrame()), Config{}, WithDisplay(d))
		if err := app.Step(context.Background()); !errors.Is(err, ErrQuit) {
			t.Errorf("Key %d: expected ErrQuit, got %v", key, err)
		}
	}
}

func TestHandleKey_SkipGrayscale(t *testing.T) {
	sink := &fakeSink{}
	m := tuning.NewManager()
	app, _ := New(capture.NewStaticSource("still", testFrame()), Config{}, WithTuning(m), WithSink(sink))

	if err := app.HandleKey(KeyGray); err != nil {
		t.Fatalf("HandleKey failed: %v", err)
	}
	if !m.GetConfig().SkipGrayscale {
		t.Fatal("Expected grayscale to be skipped")
	}

	if err := app.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	if app.Stats().QuantizeRejections != 1 {
		t.Errorf("Expected 1 rejection, got %d", app.Stats().QuantizeRejections)
	}
	if len(sink.msgs) != 0 {
		t.Errorf("Expected no grid published for a color pass, got %d", len(sink.msgs))
	}
}

func TestRequestSnapshot_SavedOnNextPass(t *testing.T) {
	dir := t.TempDir()
	w, err := snapshot.NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	var got *snapshot.Snapshot
	app, _ := New(capture.NewStaticSource("still", testFrame()), Config{},
		WithSnapshots(w),
		OnResult(func(r *eye.Result, s *snapshot.Snapshot) {
			if s != nil {
				got = s
			}
		}))

	id := app.RequestSnapshot()
	if err := app.Step(context.Background()); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	if got == nil || got.ID != id {
		t.Fatalf("Expected snapshot %s, got %+v", id, got)
	}
	for ord := snapshot.OrdinalInitial; ord <= snapshot.OrdinalInverted; ord++ {
		if _, err := os.Stat(filepath.Join(dir, snapshot.FileName(id, ord))); err != nil {
			t.Errorf("Expected stage %d file: %v", ord, err)
		}
	}
	if app.Stats().Snapshots != 1 || app.Stats().LastSnapshot != id {
		t.Errorf("Expected snapshot in stats, got %+v", app.Stats())
	}

	// Only one pass is saved per request
	got = nil
	app.Step(context.Background())
	if got != nil {
		t.Error("Expected no snapshot without a request")
	}
}

func TestStep_PublishError(t *testing.T) {
	sink := &fakeSink{err: errors.New("full")}
	app, _ := New(capture.NewStaticSource("still", testFrame()), Config{}, WithSink(sink))
	if err := app.Step(context.Background()); err != nil {
		t.Fatalf("Expected publish errors to be non-fatal, got %v", err)
	}
	if app.Stats().PublishErrors != 1 {
		t.Errorf("Expected 1 publish error, got %d", app.Stats().PublishErrors)
	}
}

func TestRun_StopsWhenSourceCloses(t *testing.T) {
	src := &countingSource{f: testFrame(), left: 3}
	app, _ := New(src, Config{})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	s := app.Stats()
	if s.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", s.Frames)
	}
	if s.CropOutcomes[eye.CropCentered.String()] != 3 {
		t.Errorf("Expected 3 centered crops, got %v", s.CropOutcomes)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	app, _ := New(capture.NewStaticSource("still", testFrame()), Config{FrameInterval: 5 * time.Millisecond})
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected clean stop, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
	if app.Stats().Frames == 0 {
		t.Error("Expected at least one frame")
	}
}

func TestClose_ClosesDisplay(t *testing.T) {
	d := &fakeDisplay{}
	app, _ := New(capture.NewStaticSource("still", testFrame()), Config{}, WithDisplay(d))
	if err := app.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !d.closed {
		t.Error("Expected display to be closed")
	}
}
