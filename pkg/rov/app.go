// Package rov wires the vehicle together: camera, detector, decision
// pipeline, thrusters, dashboard and topside link.
package rov

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/annotate"
	"github.com/teslashibe/go-polrov/pkg/camera"
	"github.com/teslashibe/go-polrov/pkg/debug"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/detection"
	"github.com/teslashibe/go-polrov/pkg/detection/yolo"
	"github.com/teslashibe/go-polrov/pkg/distance"
	"github.com/teslashibe/go-polrov/pkg/motor"
	"github.com/teslashibe/go-polrov/pkg/pilot"
	"github.com/teslashibe/go-polrov/pkg/protocol"
	"github.com/teslashibe/go-polrov/pkg/topside"
	"github.com/teslashibe/go-polrov/pkg/web"
	"gocv.io/x/gocv"
)

// WindowTitle is the name of the local preview window.
const WindowTitle = "PolROV"

// FrameDetector finds objects in a BGR frame.
type FrameDetector interface {
	Detect(img gocv.Mat) ([]detection.Detection, error)
	Close() error
}

// App is the vehicle application.
type App struct {
	config  Config
	session string

	// Control
	driver   *motor.Driver
	pipeline *pilot.Pipeline
	stats    *pilot.FrameStats

	// Vision
	camera   camera.Source
	detector FrameDetector
	saver    *annotate.Saver
	preview  annotate.Preview
	window   *annotate.Window

	// Links
	webServer *web.Server
	topside   *topside.Client

	// Frame loop state
	fps      float64
	lastMode decision.Mode

	shutdownOnce sync.Once
}

// New creates the application with the given configuration.
func New(cfg Config) (*App, error) {
	// Apply environment overrides
	cfg.LoadEnvConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	debug.Enabled = cfg.Debug
	debug.Decisions = cfg.DebugDecisions

	preview := annotate.DefaultPreview()
	if cfg.Camera.Quality > 0 {
		preview.Quality = cfg.Camera.Quality
	}

	return &App{
		config:  cfg,
		session: protocol.NewSessionID(),
		preview: preview,
		stats:   pilot.NewFrameStats(pilot.DefaultStatsWindow),
	}, nil
}

// Init opens the hardware and builds the pipeline.
// Call this after New() and before Run().
func (a *App) Init() error {
	fmt.Println("🤿 PolROV - Autonomous Pool Vehicle")
	fmt.Println("===================================")
	if debug.Enabled {
		fmt.Println("🐛 Debug mode enabled")
	}

	fmt.Printf("⚙️  Thrusters (%s)... ", a.config.Motor.Backend)
	driver, err := motor.NewDriver(a.config.Motor)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("motors: %w", err)
	}
	a.driver = driver
	fmt.Println("✅")

	if err := a.initPipeline(); err != nil {
		return err
	}

	fmt.Printf("🔍 Loading model from %s... ", a.config.Detection.ModelDir)
	det, err := yolo.New(a.config.Detection)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("detector: %w", err)
	}
	a.detector = det
	fmt.Printf("✅ (%d classes)\n", len(det.Metadata().Names))

	fmt.Printf("📷 Opening camera %d... ", a.config.Camera.Index)
	capture, err := camera.Open(a.config.Camera)
	if err != nil {
		fmt.Println("❌")
		return fmt.Errorf("camera: %w", err)
	}
	a.camera = capture
	w, h := capture.Actual()
	fmt.Printf("✅ (%dx%d)\n", w, h)

	if a.config.Window {
		a.window = annotate.NewWindow(WindowTitle)
	}

	if a.config.Web.Enabled {
		a.initWeb()
	}
	if a.config.Topside.URL != "" {
		a.initTopside()
	}
	return nil
}

// initPipeline builds the estimator, engine, pipeline and saver around a.driver.
func (a *App) initPipeline() error {
	table, err := a.config.CalibrationTable()
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}
	est, err := distance.NewEstimator(table)
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	dc, err := a.config.DecisionConfig()
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}
	var chooser decision.Chooser
	if a.config.Decision.Seed != 0 {
		chooser = decision.RandomChooser(a.config.Decision.Seed)
	}
	eng, err := decision.New(dc, chooser)
	if err != nil {
		return fmt.Errorf("decision: %w", err)
	}
	fmt.Printf("🧭 Decision profile: %s (evade %s)\n", dc.Profile, dc.EvadeBand)

	saver, err := annotate.NewSaver(a.config.Screenshots.Dir, a.config.Screenshots.Threshold, a.config.Screenshots.Enabled)
	if err != nil {
		return err
	}
	a.saver = saver

	a.pipeline = pilot.New(a.config.Pilot, est, eng, a.driver)
	a.pipeline.SetToggler(saver)
	a.pipeline.AddObserver(pilot.ObserverFunc(a.onFrame))
	a.lastMode = a.pipeline.State().Mode
	return nil
}

func (a *App) initWeb() {
	a.webServer = web.NewServer(web.Options{
		Addr:      a.config.Web.Addr,
		StaticDir: a.config.Web.StaticDir,
		Config:    a.config,
		AccessLog: a.config.Web.AccessLog,
	}, a.pipeline)
}

func (a *App) initTopside() {
	a.topside = topside.NewClient(a.config.Topside, a.session)
	a.topside.OnControl = func(cd protocol.ControlData) {
		ctl, err := pilot.ParseControl(cd.Action, cd.Move, "topside")
		if err != nil {
			log.Warn("bad topside control", "action", cd.Action, "move", cd.Move, "error", err)
			return
		}
		a.pipeline.Submit(ctl)
	}
}

// Run arms the thrusters and runs the frame loop.
// It returns when ctx is cancelled, q is pressed or the camera fails.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			a.stopMotors("panic")
			err = fmt.Errorf("frame loop panic: %v", r)
		}
	}()

	if a.webServer != nil {
		a.webServer.StartAsync(ctx)
	}
	if a.topside != nil {
		go func() {
			if err := a.topside.Run(ctx); err != nil {
				log.Warn("topside link stopped", "error", err)
			}
		}()
	}

	if err := a.arm(ctx); err != nil {
		return nil
	}

	fmt.Println("\n🌊 Running! (q in the preview window or Ctrl+C to stop)")
	if a.webServer != nil {
		a.webServer.AddLog("info", "vehicle armed, session "+a.session)
	}
	return a.loop(ctx)
}

// arm holds every thruster at minimum so the ESCs can initialise.
func (a *App) arm(ctx context.Context) error {
	fmt.Printf("⏳ Arming ESCs (%s)... ", a.config.ArmDelay)
	if err := a.pipeline.StopAll(); err != nil {
		fmt.Println("❌")
		log.Error("arm stop failed", "error", err)
	}

	timer := time.NewTimer(a.config.ArmDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		fmt.Println("cancelled")
		return ctx.Err()
	case <-timer.C:
	}
	fmt.Println("✅")
	return nil
}

func (a *App) loop(ctx context.Context) error {
	frame := gocv.NewMat()
	defer frame.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if err := a.camera.Read(&frame); err != nil {
			a.stopMotors("capture failed")
			return fmt.Errorf("capture: %w", err)
		}
		a.fps = a.stats.Tick(time.Now())

		dets, err := a.detector.Detect(frame)
		if err != nil {
			// Hold the last command and keep serving controls.
			log.Warn("detect failed", "error", err)
			a.pipeline.Drain()
			continue
		}

		res := a.pipeline.Process(dets)
		if quit := a.present(&frame, res); quit {
			fmt.Println("🛑 Quit requested")
			return nil
		}
	}
}

// present annotates the frame, saves screenshots, feeds the dashboard and
// polls the window. It reports whether the operator asked to quit.
func (a *App) present(frame *gocv.Mat, res pilot.Result) bool {
	items := make([]annotate.Item, 0, len(res.Detections))
	for _, d := range res.Detections {
		items = append(items, annotate.Item{
			Box:        d.Box,
			Label:      d.Label,
			Confidence: d.Confidence,
			Distance:   d.Distance,
		})
	}
	annotate.Draw(frame, items, annotate.HUD{
		FPS:         a.fps,
		Screenshots: a.saver.Enabled(),
		Mode:        res.Outcome.State.Mode.String(),
	})

	paths, err := a.saver.Save(*frame, items)
	if err != nil {
		log.Warn("screenshot failed", "error", err)
	}
	for _, p := range paths {
		debug.Log("📸 Saved %s\n", p)
	}

	toWeb := a.webServer != nil && every(res.Frame, a.config.Web.PreviewEvery)
	toTopside := a.topside != nil && a.topside.Connected() && every(res.Frame, a.config.Topside.FrameEvery)
	if toWeb || toTopside {
		jpeg, err := a.preview.Encode(*frame)
		if err != nil {
			debug.Log("📷 Preview encode error: %v\n", err)
		} else {
			if toWeb {
				a.webServer.SendCameraFrame(jpeg)
			}
			if toTopside {
				a.topside.SendFrame(frame.Cols(), frame.Rows(), jpeg, res.Frame)
			}
		}
	}

	if a.window == nil {
		return false
	}
	switch a.window.Show(*frame) {
	case annotate.KeyQuit:
		return true
	case annotate.KeyScreenshot:
		a.pipeline.Submit(pilot.Control{Action: pilot.ActionScreenshots, Source: "keyboard"})
	}
	return false
}

// onFrame runs on the frame loop after every processed frame.
func (a *App) onFrame(res pilot.Result) {
	if a.topside != nil {
		a.topside.SendTelemetry(pilot.Telemetry(res, a.fps))
	}
	if a.webServer != nil {
		a.publishWeb(res)
	}
	a.lastMode = res.Outcome.State.Mode
}

func (a *App) publishWeb(res pilot.Result) {
	summary := a.stats.Summary()
	pulses := make(map[string]int)
	for m, us := range a.driver.Pulses() {
		pulses[m.String()] = us
	}
	topsideUp := a.topside != nil && a.topside.Connected()

	a.webServer.UpdateState(func(s *web.VehicleState) {
		s.Mode = res.Outcome.State.Mode.String()
		s.Command = res.Outcome.Command.String()
		s.Reason = string(res.Outcome.Reason)
		s.Active = res.Outcome.State.Active
		s.Manual = res.Manual
		s.Screenshots = a.saver.Enabled()
		s.Frame = res.Frame
		s.FPS = a.fps
		s.FPSMean = summary.Mean
		s.Detections = pilot.Reports(res.Detections)
		s.Pulses = pulses
		s.TopsideConnected = topsideUp
	})

	if mode := res.Outcome.State.Mode; mode != a.lastMode {
		a.webServer.AddLog("decision", fmt.Sprintf("%s -> %s: %s (%s)", a.lastMode, mode, res.Outcome.Command, res.Outcome.Reason))
	}
	if res.Err != nil {
		a.webServer.AddLog("error", res.Err.Error())
	}
}

func every(frame uint64, n int) bool {
	return n > 0 && frame%uint64(n) == 0
}

func (a *App) stopMotors(why string) {
	if a.driver == nil {
		return
	}
	if err := a.driver.StopAll(); err != nil && !errors.Is(err, motor.ErrClosed) {
		log.Error("emergency stop failed", "reason", why, "error", err)
		return
	}
	fmt.Printf("🛑 Motors stopped (%s)\n", why)
}

// Shutdown stops the thrusters and releases every component.
// It is safe to call more than once.
func (a *App) Shutdown() {
	a.shutdownOnce.Do(func() {
		fmt.Println("\n👋 Surfacing...")

		if a.driver != nil {
			if err := a.driver.Close(); err != nil {
				log.Error("motor shutdown", "error", err)
			}
			applied, failed := a.driver.Stats()
			fmt.Printf("⚙️  Thrusters stopped (%d commands, %d failed)\n", applied, failed)
		}
		if a.window != nil {
			a.window.Close()
		}
		if a.camera != nil {
			a.camera.Close()
		}
		if a.detector != nil {
			a.detector.Close()
		}
		if a.webServer != nil {
			a.webServer.Shutdown()
		}

		summary := a.stats.Summary()
		if summary.Frames > 0 {
			fmt.Printf("📊 %d frames, %.2f ± %.2f FPS\n", summary.Frames, summary.Mean, summary.StdDev)
		}
	})
}
