// Package web provides the tuning dashboard: a JSON API over the pipeline
// config and live websocket feeds of the simulated view.
package web

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/hub"
	"github.com/teslashibe/bionic-eye/pkg/simulator"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

// DefaultStatusInterval bounds how often pass status is pushed to /ws/status.
const DefaultStatusInterval = 500 * time.Millisecond

// Controller is the part of the running loop the dashboard drives.
type Controller interface {
	Tuning() *tuning.Manager
	RequestSnapshot() string
	Stats() simulator.Stats
	Latest() *eye.Result
}

// Status is pushed to /ws/status clients.
type Status struct {
	Type     string             `json:"type"`
	Config   eye.Config         `json:"config"`
	Preset   string             `json:"preset"`
	Stats    simulator.Stats    `json:"stats"`
	Snapshot *snapshot.Snapshot `json:"snapshot,omitempty"`
}

// Status message types.
const (
	StatusPass     = "pass"
	StatusConfig   = "config"
	StatusSnapshot = "snapshot"
)

// Server is the dashboard server
type Server struct {
	app  *fiber.App
	port string
	ctrl Controller

	// Hubs for websocket broadcast
	framesHub *hub.Hub
	statusHub *hub.Hub

	statusInterval time.Duration
	lastStatus     time.Time
	statusMu       sync.Mutex
}

// NewServer creates a dashboard server for ctrl
func NewServer(port string, ctrl Controller) *Server {
	s := &Server{
		port:           port,
		ctrl:           ctrl,
		framesHub:      hub.NewRetaining("frames"),
		statusHub:      hub.NewRetaining("status"),
		statusInterval: DefaultStatusInterval,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Bionic Eye Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/config", s.handleGetConfig)
	api.Put("/config", s.handlePutConfig)
	api.Patch("/config", s.handlePatchConfig)
	api.Get("/presets", s.handleListPresets)
	api.Post("/presets/:name", s.handleApplyPreset)
	api.Post("/snapshot", s.handleSnapshot)
	api.Get("/stats", s.handleStats)
	api.Get("/frame.png", s.handleFramePNG)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/frames", websocket.New(s.framesHub.Serve))
	app.Get("/ws/status", websocket.New(s.statusHub.Serve))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs until ctx is done and serves on the configured port.
func (s *Server) Start(ctx context.Context) error {
	log.Info("web dashboard", "url", "http://localhost:"+s.port)
	s.runHubs(ctx)
	return s.app.Listen(":" + s.port)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.runHubs(ctx)
	return s.app.Listener(ln)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			log.Warn("web server error", "error", err)
		}
	}()
}

func (s *Server) runHubs(ctx context.Context) {
	go s.framesHub.Run(ctx)
	go s.statusHub.Run(ctx)
}

// PublishResult pushes one pass to the websocket feeds. It matches the
// simulator's OnResult callback.
func (s *Server) PublishResult(r *eye.Result, snap *snapshot.Snapshot) {
	if s.framesHub.ClientCount() > 0 {
		data, err := snapshot.PNGBytes(r.Output)
		if err != nil {
			log.Warn("failed to encode frame", "error", err)
		} else {
			s.framesHub.BroadcastBinary(data)
		}
	}

	if snap != nil {
		s.broadcastStatus(StatusSnapshot, snap)
		return
	}

	s.statusMu.Lock()
	due := time.Since(s.lastStatus) >= s.statusInterval
	if due {
		s.lastStatus = time.Now()
	}
	s.statusMu.Unlock()
	if due {
		s.broadcastStatus(StatusPass, nil)
	}
}

// NotifyConfig pushes the current config to /ws/status clients. It matches
// tuning.Manager's OnConfigChange callback.
func (s *Server) NotifyConfig(eye.Config) error {
	s.broadcastStatus(StatusConfig, nil)
	return nil
}

func (s *Server) status(kind string, snap *snapshot.Snapshot) Status {
	m := s.ctrl.Tuning()
	return Status{
		Type:     kind,
		Config:   m.GetConfig(),
		Preset:   m.Preset(),
		Stats:    s.ctrl.Stats(),
		Snapshot: snap,
	}
}

func (s *Server) broadcastStatus(kind string, snap *snapshot.Snapshot) {
	if err := s.statusHub.BroadcastJSON(s.status(kind, snap)); err != nil {
		log.Warn("failed to broadcast status", "error", err)
	}
}

// FramesHub returns the frames hub for external use
func (s *Server) FramesHub() *hub.Hub {
	return s.framesHub
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
