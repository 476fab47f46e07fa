package web

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/frame"
	"github.com/teslashibe/bionic-eye/pkg/snapshot"
	"github.com/teslashibe/bionic-eye/pkg/tuning"
)

// ConfigResponse is the body of GET /api/config
type ConfigResponse struct {
	Config eye.Config `json:"config"`
	Preset string     `json:"preset"`
}

func (s *Server) configResponse() ConfigResponse {
	m := s.ctrl.Tuning()
	return ConfigResponse{Config: m.GetConfig(), Preset: m.Preset()}
}

// handleGetConfig returns the current pipeline config
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.configResponse())
}

// handlePutConfig replaces the whole config
func (s *Server) handlePutConfig(c *fiber.Ctx) error {
	var cfg eye.Config
	if err := json.Unmarshal(c.Body(), &cfg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid config: " + err.Error(),
		})
	}

	if err := s.ctrl.Tuning().SetConfig(cfg); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.configResponse())
}

// handlePatchConfig updates individual fields, optionally on top of a preset
func (s *Server) handlePatchConfig(c *fiber.Ctx) error {
	var params map[string]interface{}
	if err := json.Unmarshal(c.Body(), &params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body: " + err.Error(),
		})
	}

	if err := s.ctrl.Tuning().UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.configResponse())
}

// handleListPresets returns all named presets
func (s *Server) handleListPresets(c *fiber.Ctx) error {
	return c.JSON(tuning.Presets())
}

// handleApplyPreset switches to a named preset
func (s *Server) handleApplyPreset(c *fiber.Ctx) error {
	name := c.Params("name")
	if err := s.ctrl.Tuning().ApplyPreset(name); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.configResponse())
}

// handleSnapshot schedules a snapshot of the next pass
func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	id := s.ctrl.RequestSnapshot()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"id": id,
	})
}

// handleStats returns loop counters
func (s *Server) handleStats(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.Stats())
}

// handleFramePNG returns one stage of the latest pass as PNG.
// ?stage= selects initial, grayscale, cropped, quantized, inverted or output (default).
func (s *Server) handleFramePNG(c *fiber.Ctx) error {
	r := s.ctrl.Latest()
	if r == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "no frame processed yet",
		})
	}

	f, ok := stageFrame(r, c.Query("stage", "output"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown stage: " + c.Query("stage"),
		})
	}

	data, err := snapshot.PNGBytes(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(data)
}

func stageFrame(r *eye.Result, stage string) (frame.Frame, bool) {
	switch stage {
	case "initial":
		return r.Initial, true
	case "grayscale":
		return r.Gray, true
	case "cropped":
		return r.Cropped, true
	case "quantized":
		return r.Quantized, true
	case "inverted":
		return r.Inverted, true
	case "output":
		return r.Output, true
	}
	return frame.Frame{}, false
}
