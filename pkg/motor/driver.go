package motor

import (
	"errors"
	"fmt"
	"sync"

	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/decision"
)

// ErrClosed is returned by Apply after Close.
var ErrClosed = errors.New("motor: driver closed")

// Driver plans commands and writes them to a PWM backend.
type Driver struct {
	pwm     PWM
	planner *Planner

	mu     sync.Mutex
	pulses map[Motor]int
	closed bool

	// Diagnostics
	applied    uint64
	errorCount uint64
}

// NewDriverWith wraps an already opened backend.
func NewDriverWith(pwm PWM, planner *Planner) *Driver {
	return &Driver{
		pwm:     pwm,
		planner: planner,
		pulses:  make(map[Motor]int),
	}
}

// Apply writes every setting for cmd. All channels are attempted even if
// one fails; the errors are joined.
func (d *Driver) Apply(cmd decision.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.apply(cmd)
}

func (d *Driver) apply(cmd decision.Command) error {
	var errs []error
	for _, s := range d.planner.Plan(cmd) {
		if err := d.pwm.SetChannel(s.Channel, s.PulseUS); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s, err))
			continue
		}
		d.pulses[s.Motor] = s.PulseUS
	}
	d.applied++
	if len(errs) > 0 {
		d.errorCount++
		return errors.Join(errs...)
	}
	return nil
}

// StopAll drives every thruster to the minimum level.
func (d *Driver) StopAll() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	return d.apply(decision.StopAll())
}

// Close stops all motors and releases the backend. It is safe to call twice.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	stopErr := d.apply(decision.StopAll())
	if stopErr != nil {
		log.Error("stop on close failed", "error", stopErr)
	}
	return errors.Join(stopErr, d.pwm.Close())
}

// Pulses returns the last pulse width written to each thruster.
func (d *Driver) Pulses() map[Motor]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[Motor]int, len(d.pulses))
	for m, us := range d.pulses {
		out[m] = us
	}
	return out
}

// Stats returns the number of applied commands and failed applies.
func (d *Driver) Stats() (applied, failed uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applied, d.errorCount
}
