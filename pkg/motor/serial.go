package motor

import (
	"fmt"
	"io"
	"sync"

	serial "go.bug.st/serial"
)

// DefaultBaud is the bridge firmware's baud rate.
const DefaultBaud = 115200

// SerialBridge drives the thrusters through a microcontroller that accepts
// one line per update: "PWM <channel> <pulse_us>\n".
type SerialBridge struct {
	port io.WriteCloser
	mu   sync.Mutex
}

// OpenSerialBridge opens the serial device at the given baud rate.
func OpenSerialBridge(dev string, baud int) (*SerialBridge, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial %s: %w", dev, err)
	}
	return NewSerialBridge(p), nil
}

// NewSerialBridge wraps an already open port.
func NewSerialBridge(port io.WriteCloser) *SerialBridge {
	return &SerialBridge{port: port}
}

// SetChannel sends one PWM line.
func (s *SerialBridge) SetChannel(channel, pulseUS int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return ErrClosed
	}
	_, err := fmt.Fprintf(s.port, "PWM %d %d\n", channel, pulseUS)
	return err
}

// Close closes the underlying serial port.
func (s *SerialBridge) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
