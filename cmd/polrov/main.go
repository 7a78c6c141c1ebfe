// PolROV - autonomous pool vehicle
// Detects cylinders and gates with YOLO, estimates their distance and
// drives six thrusters to avoid obstacles and slow down at gates.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"strings"
	"syscall"

	envconfig "github.com/teslashibe/go-polrov/internal/config"
	rovlog "github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/camera"
	"github.com/teslashibe/go-polrov/pkg/motor"
	"github.com/teslashibe/go-polrov/pkg/rov"
)

func main() {
	cfg := parseFlags()
	rovlog.Init(cfg.LogLevel)

	app, err := rov.New(cfg)
	if err != nil {
		log.Fatalf("❌ Configuration error: %v", err)
	}

	if err := app.Init(); err != nil {
		app.Shutdown()
		log.Fatalf("❌ Initialization failed: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err = app.Run(ctx)
	app.Shutdown()
	if err != nil {
		log.Fatalf("❌ Runtime error: %v", err)
	}
}

// parseFlags loads the config file and applies explicitly set flags on top.
func parseFlags() rov.Config {
	configPath := flag.String("config", envconfig.ConfigPath(""), "YAML config file (POLROV_CONFIG)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugDecisions := flag.Bool("debug-decisions", false, "Print every per-frame decision (very verbose)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	profile := flag.String("profile", "close", "Decision profile: close, away, presence")
	seed := flag.Uint64("seed", 0, "Seed for the evasion direction (0 = random)")
	model := flag.String("model", "", "Model directory with model.onnx and metadata.yaml")
	cameraIndex := flag.Int("camera", 0, "Camera device index")
	cameraPreset := flag.String("camera-preset", "", "Capture preset: "+strings.Join(camera.PresetNames(), ", "))
	window := flag.Bool("window", true, "Show the annotated preview window")
	screenshots := flag.Bool("screenshots", true, "Save annotated frames of confident detections")
	dryRun := flag.Bool("dry-run", false, "Log motor commands instead of driving thrusters")
	webEnabled := flag.Bool("web", true, "Serve the dashboard")
	webAddr := flag.String("web-addr", rov.DefaultWebAddr, "Dashboard listen address")
	topsideURL := flag.String("topside", "", "Topside WebSocket URL, e.g. ws://10.0.0.2:9000/ws/vehicle")
	flag.Parse()

	cfg := rov.DefaultConfig()
	if *configPath != "" {
		loaded, err := rov.LoadConfig(*configPath)
		if err != nil {
			log.Fatalf("❌ %v", err)
		}
		cfg = loaded
	}

	if *cameraPreset != "" {
		preset := camera.GetPreset(*cameraPreset)
		if preset == nil {
			log.Fatalf("❌ unknown camera preset %q (have %s)", *cameraPreset, strings.Join(camera.PresetNames(), ", "))
		}
		preset.Index = cfg.Camera.Index
		cfg.Camera = *preset
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "debug":
			cfg.Debug = *debug
		case "debug-decisions":
			cfg.DebugDecisions = *debugDecisions
		case "log-level":
			cfg.LogLevel = *logLevel
		case "profile":
			cfg.Decision.Profile = *profile
		case "seed":
			cfg.Decision.Seed = *seed
		case "model":
			cfg.Detection.ModelDir = *model
		case "camera":
			cfg.Camera.Index = *cameraIndex
		case "window":
			cfg.Window = *window
		case "screenshots":
			cfg.Screenshots.Enabled = *screenshots
		case "dry-run":
			if *dryRun {
				cfg.Motor.Backend = motor.BackendDryRun
			}
		case "web":
			cfg.Web.Enabled = *webEnabled
		case "web-addr":
			cfg.Web.Addr = *webAddr
		case "topside":
			cfg.Topside.URL = *topsideURL
		}
	})
	if cfg.Debug && cfg.LogLevel == "info" {
		cfg.LogLevel = "debug"
	}
	return cfg
}
