// Package motor drives the six thrusters of the vehicle.
//
// Abstract decision commands are planned into per-channel pulse widths by a
// Planner and written through a PWM backend. Backends are small so that
// tests and dry runs can stand in for the real board.
package motor

import "github.com/teslashibe/go-polrov/pkg/decision"

// PWM sets one output channel to a pulse width in microseconds.
type PWM interface {
	SetChannel(channel, pulseUS int) error
	Close() error
}

// Actuator applies decision commands to the thrusters.
// Close must leave every motor stopped.
type Actuator interface {
	Apply(cmd decision.Command) error
	StopAll() error
	Close() error
}

// Ensure Driver implements Actuator
var _ Actuator = (*Driver)(nil)
