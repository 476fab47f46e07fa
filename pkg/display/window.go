// Package display shows pipeline output in a gocv window with trackbars
// bound to the tuning manager.
package display

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/camera"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/frame"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

// DefaultTitle is the window title.
const DefaultTitle = "Bionic Eye"

// Window is a highgui window with one trackbar per tunable parameter.
// All methods must be called from the goroutine that created it.
type Window struct {
	win     *gocv.Window
	bars    map[string]*gocv.Trackbar
	tuning  *tuning.Manager
	delayMs int

	mu   sync.Mutex
	last map[string]int
}

// Open creates the window and its trackbars, positioned from m's current config.
// delayMs is passed to WaitKey on every Show and must be at least 1 for a live feed.
func Open(title string, m *tuning.Manager, delayMs int) *Window {
	if title == "" {
		title = DefaultTitle
	}
	if delayMs < 1 {
		delayMs = 1
	}

	w := &Window{
		win:     gocv.NewWindow(title),
		bars:    make(map[string]*gocv.Trackbar, len(controls)),
		tuning:  m,
		delayMs: delayMs,
	}
	for _, c := range controls {
		tb := w.win.CreateTrackbar(c.name, c.max)
		tb.SetMin(c.min)
		w.bars[c.name] = tb
	}
	w.SyncControls(m.GetConfig())
	return w
}

// Show displays f, polls the keyboard and pushes moved trackbars into the
// tuning manager. It returns the key code or -1.
func (w *Window) Show(f frame.Frame) int {
	mat, err := camera.MatFromFrame(f)
	defer mat.Close()
	if err != nil {
		log.Warn("cannot display frame", "frame", f.String(), "error", err)
		return w.win.WaitKey(w.delayMs)
	}
	w.win.IMShow(mat)

	key := w.win.WaitKey(w.delayMs)
	w.pollTrackbars()
	return key
}

// SyncControls moves the trackbars to cfg without feeding the change back.
func (w *Window) SyncControls(cfg eye.Config) {
	pos := Positions(cfg)
	for name, v := range pos {
		w.bars[name].SetPos(v)
	}
	w.mu.Lock()
	w.last = pos
	w.mu.Unlock()
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func (w *Window) pollTrackbars() {
	cur := make(map[string]int, len(w.bars))
	for name, tb := range w.bars {
		cur[name] = tb.GetPos()
	}

	w.mu.Lock()
	prev := w.last
	w.last = cur
	w.mu.Unlock()

	params := Changes(w.tuning.GetConfig(), prev, cur)
	if len(params) == 0 {
		return
	}
	if err := w.tuning.UpdateConfig(params); err != nil {
		log.Warn("trackbar update rejected", "error", err)
	}
}
