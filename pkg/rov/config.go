package rov

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	envconfig "github.com/teslashibe/go-polrov/internal/config"
	"github.com/teslashibe/go-polrov/pkg/annotate"
	"github.com/teslashibe/go-polrov/pkg/camera"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/detection"
	"github.com/teslashibe/go-polrov/pkg/distance"
	"github.com/teslashibe/go-polrov/pkg/motor"
	"github.com/teslashibe/go-polrov/pkg/pilot"
	"github.com/teslashibe/go-polrov/pkg/topside"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultArmDelay = 3 * time.Second
	DefaultWebAddr  = ":8080"
	DefaultShotDir  = "screenshots"

	// DefaultPreviewEvery sends every third frame to the dashboard.
	DefaultPreviewEvery = 3
)

// DecisionConfig selects a decision profile and optional overrides.
type DecisionConfig struct {
	Profile string `yaml:"profile"` // close, away or presence

	// Confidence thresholds keyed by class name. Missing keys keep the profile value.
	Thresholds map[string]float64 `yaml:"thresholds"`

	// Overrides for the profile's behaviour flags.
	DiveOnEvade      *bool `yaml:"dive_on_evade"`
	DescendOnForward *bool `yaml:"descend_on_forward"`
	DisarmAfterEvade *bool `yaml:"disarm_after_evade"`

	// Band replaces the profile's evasion band when set.
	Band *BandConfig `yaml:"band"`

	// Seed pins the evasion direction sequence. Zero seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// BandConfig describes an evasion band in centimetres.
// Kind is at_most, within_tolerance or presence.
type BandConfig struct {
	Kind      string  `yaml:"kind"`
	Threshold float64 `yaml:"threshold"`
	Target    float64 `yaml:"target"`
	Tolerance float64 `yaml:"tolerance"`
}

// Band converts the block into a decision band.
func (b BandConfig) Band() (decision.Band, error) {
	kind, err := decision.ParseBandKind(b.Kind)
	if err != nil {
		return decision.Band{}, err
	}
	switch kind {
	case decision.BandWithinTolerance:
		return decision.WithinTolerance(b.Target, b.Tolerance), nil
	case decision.BandPresence:
		return decision.Presence(), nil
	}
	return decision.AtMost(b.Threshold), nil
}

// ScreenshotConfig controls annotated frame capture.
type ScreenshotConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Dir       string  `yaml:"dir"`
	Threshold float64 `yaml:"threshold"`
}

// WebConfig controls the dashboard.
type WebConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Addr         string `yaml:"addr"`
	StaticDir    string `yaml:"static_dir"`
	PreviewEvery int    `yaml:"preview_every"`
	AccessLog    bool   `yaml:"access_log"`
}

// Config holds all configuration for the vehicle.
// Flag parsing is done in cmd/polrov/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug"`

	// DebugDecisions prints every per-frame decision.
	DebugDecisions bool `yaml:"debug_decisions"`

	// LogLevel is the slog level: debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	Camera    camera.Config    `yaml:"camera"`
	Detection detection.Config `yaml:"detection"`

	// Calibration is keyed by class name (Cylinder, Gate).
	Calibration map[string]distance.Calibration `yaml:"calibration"`

	Decision DecisionConfig `yaml:"decision"`
	Motor    motor.Config   `yaml:"motor"`
	Pilot    pilot.Config   `yaml:"pilot"`

	// ArmDelay is how long the motors stay at minimum before the loop starts.
	ArmDelay time.Duration `yaml:"arm_delay"`

	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Web         WebConfig        `yaml:"web"`
	Topside     topside.Config   `yaml:"topside"`

	// Window shows the annotated frames in a local OpenCV window.
	Window bool `yaml:"window"`
}

// DefaultConfig returns the configuration used in the test pool.
func DefaultConfig() Config {
	calib := make(map[string]distance.Calibration)
	for class, c := range distance.DefaultTable() {
		calib[class.String()] = c
	}
	return Config{
		LogLevel:    "info",
		Camera:      camera.DefaultConfig(),
		Detection:   detection.DefaultConfig(),
		Calibration: calib,
		Decision:    DecisionConfig{Profile: "close"},
		Motor:       motor.DefaultConfig(),
		Pilot:       pilot.DefaultConfig(),
		ArmDelay:    DefaultArmDelay,
		Screenshots: ScreenshotConfig{
			Enabled:   true,
			Dir:       DefaultShotDir,
			Threshold: annotate.DefaultSaveThreshold,
		},
		Web: WebConfig{
			Enabled:      true,
			Addr:         DefaultWebAddr,
			PreviewEvery: DefaultPreviewEvery,
		},
		Topside: topside.DefaultConfig(),
		Window:  true,
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default values; unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadEnvConfig applies environment overrides.
// Call this after flag parsing.
func (c *Config) LoadEnvConfig() {
	c.Camera.Index = envconfig.CameraIndex(c.Camera.Index)
	c.Detection.ModelDir = envconfig.ModelDir(c.Detection.ModelDir)
	c.Motor.I2CBus = envconfig.I2CBus(c.Motor.I2CBus)
	if dev := envconfig.MotorSerial(""); dev != "" {
		c.Motor.Backend = motor.BackendSerial
		c.Motor.SerialPort = dev
	}
	c.Topside.URL = envconfig.TopsideURL(c.Topside.URL)
}

// Validate checks the configuration before any hardware is opened.
func (c *Config) Validate() error {
	if errs := c.Camera.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "camera", Err: errors.New(strings.Join(errs, "; "))}
	}
	if c.Detection.ModelDir == "" {
		return &ConfigError{Field: "detection.model_dir", Err: errors.New("model directory is required")}
	}
	if !inUnit(c.Detection.ConfidenceThresh) {
		return &ConfigError{Field: "detection.confidence", Err: fmt.Errorf("%v not in [0,1]", c.Detection.ConfidenceThresh)}
	}
	if !inUnit(c.Detection.NMSThresh) {
		return &ConfigError{Field: "detection.iou", Err: fmt.Errorf("%v not in [0,1]", c.Detection.NMSThresh)}
	}
	if _, err := c.CalibrationTable(); err != nil {
		return &ConfigError{Field: "calibration", Err: err}
	}
	if _, err := c.DecisionConfig(); err != nil {
		return &ConfigError{Field: "decision", Err: err}
	}
	if err := c.Motor.Validate(); err != nil {
		return &ConfigError{Field: "motor", Err: err}
	}
	if c.ArmDelay < 0 {
		return &ConfigError{Field: "arm_delay", Err: fmt.Errorf("must not be negative, got %s", c.ArmDelay)}
	}
	if !inUnit(c.Screenshots.Threshold) {
		return &ConfigError{Field: "screenshots.threshold", Err: fmt.Errorf("%v not in [0,1]", c.Screenshots.Threshold)}
	}
	if c.Screenshots.Enabled && c.Screenshots.Dir == "" {
		return &ConfigError{Field: "screenshots.dir", Err: errors.New("directory is required when enabled")}
	}
	if c.Web.Enabled && c.Web.Addr == "" {
		return &ConfigError{Field: "web.addr", Err: errors.New("address is required when enabled")}
	}
	return nil
}

// CalibrationTable converts the named calibration map into a validated table.
func (c *Config) CalibrationTable() (distance.Table, error) {
	table := make(distance.Table, len(c.Calibration))
	for name, cal := range c.Calibration {
		class := distance.ParseClass(name)
		if class == distance.ClassUnknown {
			return nil, fmt.Errorf("unknown class %q", name)
		}
		table[class] = cal
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// DecisionConfig resolves the profile and applies the overrides.
func (c *Config) DecisionConfig() (decision.Config, error) {
	dc, err := decision.ProfileConfig(c.Decision.Profile)
	if err != nil {
		return dc, err
	}
	for name, t := range c.Decision.Thresholds {
		class := distance.ParseClass(name)
		if class == distance.ClassUnknown {
			return dc, fmt.Errorf("threshold for unknown class %q", name)
		}
		dc.Thresholds[class] = t
	}
	if v := c.Decision.DiveOnEvade; v != nil {
		dc.DiveOnEvade = *v
	}
	if v := c.Decision.DescendOnForward; v != nil {
		dc.DescendOnForward = *v
	}
	if v := c.Decision.DisarmAfterEvade; v != nil {
		dc.DisarmAfterEvade = *v
	}
	if c.Decision.Band != nil {
		band, err := c.Decision.Band.Band()
		if err != nil {
			return dc, err
		}
		dc.EvadeBand = band
	}
	if err := dc.Validate(); err != nil {
		return dc, err
	}
	return dc, nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
