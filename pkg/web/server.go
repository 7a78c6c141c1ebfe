// Package web provides the live vehicle dashboard and its control API.
package web

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/hub"
	"github.com/teslashibe/go-polrov/pkg/pilot"
	"github.com/teslashibe/go-polrov/pkg/protocol"
)

// maxLogs is the size of the log ring kept for new dashboard clients.
const maxLogs = 500

// VehicleState represents the current state of the vehicle for the dashboard
type VehicleState struct {
	Mode             string                     `json:"mode"`
	Command          string                     `json:"command"`
	Reason           string                     `json:"reason"`
	Active           bool                       `json:"active"`
	Manual           bool                       `json:"manual"`
	Screenshots      bool                       `json:"screenshots"`
	Frame            uint64                     `json:"frame"`
	FPS              float64                    `json:"fps"`
	FPSMean          float64                    `json:"fps_mean"`
	Detections       []protocol.DetectionReport `json:"detections"`
	Pulses           map[string]int             `json:"pulses"` // motor_N -> microseconds
	TopsideConnected bool                       `json:"topside_connected"`
}

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, decision, control, error
	Message string `json:"message"`
}

// Controller accepts operator controls for the frame loop.
type Controller interface {
	Submit(pilot.Control) bool
}

// Server is the web dashboard server
type Server struct {
	app  *fiber.App
	addr string
	ctl  Controller

	// Read-only configuration served at /api/config
	config interface{}

	// State
	state   VehicleState
	stateMu sync.RWMutex

	// Log buffer (last maxLogs entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	logHub    *hub.Hub
	cameraHub *hub.Hub
}

// Options configures the dashboard.
type Options struct {
	Addr      string      // listen address, e.g. ":8080"
	StaticDir string      // dashboard assets, empty to disable
	Config    interface{} // value served at /api/config
	AccessLog bool        // log every HTTP request
}

// NewServer creates a new web dashboard server
func NewServer(opts Options, ctl Controller) *Server {
	s := &Server{
		addr:      opts.Addr,
		ctl:       ctl,
		config:    opts.Config,
		logs:      make([]LogEntry, 0, maxLogs),
		statusHub: hub.NewRetained("status"),
		logHub:    hub.New("logs"),
		cameraHub: hub.NewRetained("camera"),
	}
	s.statusHub.OnMessage(s.handleControlMessage)

	app := fiber.New(fiber.Config{
		AppName:               "PolROV Dashboard",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if opts.AccessLog {
		app.Use(logger.New(logger.Config{
			Format: "${time} ${status} ${method} ${path} ${latency}\n",
		}))
	}

	if opts.StaticDir != "" {
		app.Static("/", opts.StaticDir)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/config", s.handleConfig)
	api.Post("/motor/:move", s.handleManual)
	api.Post("/stop", s.handleAction(pilot.ActionStop))
	api.Post("/arm", s.handleAction(pilot.ActionArm))
	api.Post("/pause", s.handleAction(pilot.ActionPause))
	api.Post("/resume", s.handleAction(pilot.ActionResume))
	api.Post("/screenshots", s.handleAction(pilot.ActionScreenshots))

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleHubWS(s.cameraHub)))
	app.Get("/ws/status", websocket.New(s.handleHubWS(s.statusHub)))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and serves until the listener fails.
func (s *Server) Start(ctx context.Context) error {
	fmt.Printf("🌐 Web dashboard: http://localhost%s\n", s.addr)

	go s.statusHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			fmt.Printf("⚠️  Web server error: %v\n", err)
		}
	}()
}

// UpdateState updates the vehicle state and broadcasts it to clients
func (s *Server) UpdateState(update func(*VehicleState)) {
	s.stateMu.Lock()
	update(&s.state)
	state := s.state // Copy for broadcast
	s.stateMu.Unlock()

	s.statusHub.BroadcastJSON(state)
}

// State returns a copy of the current vehicle state.
func (s *Server) State() VehicleState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}

// SendCameraFrame sends a preview JPEG to all connected clients
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// submit forwards a control to the frame loop and mirrors it in the log.
func (s *Server) submit(c pilot.Control) bool {
	if s.ctl == nil || !s.ctl.Submit(c) {
		return false
	}
	msg := string(c.Action)
	if c.Action == pilot.ActionManual {
		msg += " " + c.Move.String()
	}
	s.AddLog("control", msg+" ("+c.Source+")")
	return true
}

// handleControlMessage accepts protocol control messages on /ws/status.
func (s *Server) handleControlMessage(data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypeControl {
		return
	}
	cd, err := msg.GetControlData()
	if err != nil {
		return
	}
	c, err := pilot.ParseControl(cd.Action, cd.Move, "web")
	if err != nil {
		log.Warn("bad dashboard control", "error", err)
		return
	}
	s.submit(c)
}
