package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/hub"
	"github.com/teslashibe/go-polrov/pkg/pilot"
)

// handleStatus returns the current vehicle state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.State())
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	return c.JSON(s.logs)
}

// handleConfig returns the effective configuration
func (s *Server) handleConfig(c *fiber.Ctx) error {
	if s.config == nil {
		return c.JSON(fiber.Map{})
	}
	return c.JSON(s.config)
}

// handleManual drives one move by hand and pauses automatic control
func (s *Server) handleManual(c *fiber.Ctx) error {
	name := c.Params("move")
	move, ok := decision.ParseMove(name)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unknown move: " + name,
		})
	}
	return s.respond(c, pilot.ManualControl(move, "web"))
}

// handleAction returns a handler that queues a fixed action
func (s *Server) handleAction(action pilot.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return s.respond(c, pilot.Control{Action: action, Source: "web"})
	}
}

func (s *Server) respond(c *fiber.Ctx, ctl pilot.Control) error {
	if !s.submit(ctl) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "control queue unavailable",
		})
	}
	resp := fiber.Map{"queued": string(ctl.Action)}
	if ctl.Action == pilot.ActionManual {
		resp["move"] = ctl.Move.String()
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}

// handleLogsWS sends the log backlog, then streams new entries
func (s *Server) handleLogsWS(c *websocket.Conn) {
	s.logsMu.RLock()
	for _, entry := range s.logs {
		if err := c.WriteJSON(entry); err != nil {
			s.logsMu.RUnlock()
			return
		}
	}
	s.logsMu.RUnlock()

	if client := hub.NewClient(s.logHub, c); client != nil {
		client.Run()
	}
}

// handleHubWS attaches the connection to a broadcast hub
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		if client := hub.NewClient(h, c); client != nil {
			client.Run()
		}
	}
}
