package motor

import (
	"errors"
	"fmt"
	"strings"
)

// Backend names accepted by NewDriver.
const (
	BackendPCA9685 = "pca9685"
	BackendSerial  = "serial"
	BackendDryRun  = "dryrun"
)

// ErrUnknownBackend is returned for an unrecognised backend name.
var ErrUnknownBackend = errors.New("motor: unknown backend")

// Config selects and parameterises the PWM backend.
type Config struct {
	Backend    string `yaml:"backend"`     // pca9685, serial or dryrun
	I2CBus     string `yaml:"i2c_bus"`     // periph bus name, empty for the first bus
	I2CAddr    uint16 `yaml:"i2c_addr"`    // PCA9685 address
	SerialPort string `yaml:"serial_port"` // Bridge device, e.g. /dev/ttyACM0
	Baud       int    `yaml:"baud"`        // Bridge baud rate
	Layout     Layout `yaml:"channels"`    // Motor number to channel
	Levels     Levels `yaml:"levels"`
}

// DefaultConfig returns the PCA9685 wiring used on the vehicle.
func DefaultConfig() Config {
	return Config{
		Backend: BackendPCA9685,
		I2CAddr: DefaultI2CAddr,
		Baud:    DefaultBaud,
		Layout:  DefaultLayout(),
		Levels:  DefaultLevels(),
	}
}

// Validate checks backend-specific fields, layout and levels.
func (c Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendPCA9685:
		if c.I2CAddr == 0 || c.I2CAddr > 0x7f {
			return fmt.Errorf("i2c_addr 0x%x out of range", c.I2CAddr)
		}
	case BackendSerial:
		if c.SerialPort == "" {
			return errors.New("serial_port is required for the serial backend")
		}
		if c.Baud <= 0 {
			return fmt.Errorf("baud must be positive, got %d", c.Baud)
		}
	case BackendDryRun:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	return c.Levels.Validate()
}

// NewDriver opens the configured backend and wraps it in a Driver.
// The returned driver has not written anything yet.
func NewDriver(cfg Config) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	planner, err := NewPlanner(cfg.Layout, cfg.Levels)
	if err != nil {
		return nil, err
	}

	var pwm PWM
	switch strings.ToLower(cfg.Backend) {
	case BackendPCA9685:
		pwm, err = OpenPCA9685(cfg.I2CBus, cfg.I2CAddr)
	case BackendSerial:
		pwm, err = OpenSerialBridge(cfg.SerialPort, cfg.Baud)
	case BackendDryRun:
		pwm = NewDryRun()
	}
	if err != nil {
		return nil, err
	}
	return NewDriverWith(pwm, planner), nil
}
