package motor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/pca9685"
	"periph.io/x/host/v3"
)

// DefaultI2CAddr is the PCA9685 factory address.
const DefaultI2CAddr = pca9685.I2CAddr

// PCA9685 drives the thrusters through a 16-channel PCA9685 board.
type PCA9685 struct {
	bus i2c.BusCloser
	dev *pca9685.Dev
	mu  sync.Mutex
}

// OpenPCA9685 initialises the host, opens the I2C bus and sets 50 Hz.
// An empty busName selects the first bus.
func OpenPCA9685(busName string, addr uint16) (*PCA9685, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := pca9685.NewI2C(bus, addr)
	if err != nil {
		bus.Close()
		return nil, fmt.Errorf("pca9685 at 0x%02x: %w", addr, err)
	}

	if err := dev.SetPwmFreq(FrequencyHz * physic.Hertz); err != nil {
		bus.Close()
		return nil, fmt.Errorf("set pwm frequency: %w", err)
	}

	return &PCA9685{bus: bus, dev: dev}, nil
}

// SetChannel writes the 12-bit off count for pulseUS.
func (p *PCA9685) SetChannel(channel, pulseUS int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dev.SetPwm(channel, 0, gpio.Duty(Ticks(pulseUS)))
}

// Close releases the I2C bus.
func (p *PCA9685) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bus.Close()
}
