package motor

import (
	"fmt"

	"github.com/teslashibe/go-polrov/pkg/decision"
)

// FramePeriodUS is the servo frame length at 50 Hz.
const FramePeriodUS = 20000

// FrequencyHz is the PWM frequency the ESCs expect.
const FrequencyHz = 50

// Motor identifies one thruster, M1 through M6.
type Motor int

// Thrusters. M1/M2 push backward, M5/M6 push forward, M3/M4 are vertical.
const (
	M1 Motor = iota + 1
	M2
	M3
	M4
	M5
	M6
)

// AllMotors lists every thruster in order.
var AllMotors = []Motor{M1, M2, M3, M4, M5, M6}

func (m Motor) String() string {
	return fmt.Sprintf("motor_%d", int(m))
}

// Layout maps each thruster to its controller channel.
type Layout map[Motor]int

// DefaultLayout is the wiring on the vehicle's PWM board.
func DefaultLayout() Layout {
	return Layout{M1: 1, M2: 14, M3: 3, M4: 12, M5: 5, M6: 10}
}

// Validate checks that all six thrusters have distinct channels in 0..15.
func (l Layout) Validate() error {
	seen := make(map[int]Motor)
	for _, m := range AllMotors {
		ch, ok := l[m]
		if !ok {
			return fmt.Errorf("layout: %s has no channel", m)
		}
		if ch < 0 || ch > 15 {
			return fmt.Errorf("layout: %s channel %d out of range", m, ch)
		}
		if other, dup := seen[ch]; dup {
			return fmt.Errorf("layout: %s and %s share channel %d", other, m, ch)
		}
		seen[ch] = m
	}
	return nil
}

// Levels are the pulse widths, in microseconds, for each throttle step.
type Levels struct {
	Min    int `yaml:"min"`    // Neutral / stopped
	Slow   int `yaml:"slow"`   // Creep speed near gates
	Medium int `yaml:"medium"` // Cruise and descent
	Max    int `yaml:"max"`    // Full throttle
}

// DefaultLevels returns the ESC calibration used on the vehicle.
func DefaultLevels() Levels {
	return Levels{Min: 700, Slow: 1000, Medium: 1300, Max: 2000}
}

// Validate checks that levels are ordered and fit inside one frame.
func (lv Levels) Validate() error {
	if lv.Min <= 0 || lv.Min > lv.Slow || lv.Slow > lv.Medium || lv.Medium > lv.Max {
		return fmt.Errorf("levels must satisfy 0 < min <= slow <= medium <= max, got %+v", lv)
	}
	if lv.Max >= FramePeriodUS {
		return fmt.Errorf("max level %dus exceeds frame period", lv.Max)
	}
	return nil
}

// Setting is one channel driven at one pulse width.
type Setting struct {
	Motor   Motor
	Channel int
	PulseUS int
}

func (s Setting) String() string {
	return fmt.Sprintf("%s(ch%d)=%dus", s.Motor, s.Channel, s.PulseUS)
}

// Duty16 converts a pulse width to a 16-bit duty cycle at 50 Hz.
func Duty16(pulseUS int) int {
	return int(float64(pulseUS) / FramePeriodUS * 65535)
}

// Ticks converts a pulse width to the 12-bit off count of a PCA9685.
func Ticks(pulseUS int) int {
	return Duty16(pulseUS) >> 4
}

// Planner turns abstract commands into channel settings.
type Planner struct {
	Layout Layout
	Levels Levels
}

// NewPlanner validates the layout and levels.
func NewPlanner(layout Layout, levels Levels) (*Planner, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := levels.Validate(); err != nil {
		return nil, err
	}
	return &Planner{Layout: layout, Levels: levels}, nil
}

// Plan returns a full frame of settings for cmd, one per thruster in
// AllMotors order. Thrusters the command does not drive are set to Min.
func (p *Planner) Plan(cmd decision.Command) []Setting {
	levels := make(map[Motor]int, len(AllMotors))
	if cmd.Kind() != decision.KindStopAll {
		for _, st := range cmd.Steps() {
			for _, s := range p.step(st) {
				levels[s.Motor] = s.PulseUS
			}
		}
	}

	out := make([]Setting, 0, len(AllMotors))
	for _, m := range AllMotors {
		level, ok := levels[m]
		if !ok {
			level = p.Levels.Min
		}
		out = append(out, p.setting(m, level))
	}
	return out
}

func (p *Planner) step(st decision.Step) []Setting {
	level := p.Levels.Medium
	if st.Speed == decision.SpeedSlow {
		level = p.Levels.Slow
	}

	switch st.Move {
	case decision.MoveForward:
		return p.pair(M5, M6, level)
	case decision.MoveBackward:
		return p.pair(M1, M2, level)
	case decision.MoveLeft:
		return p.pair(M1, M5, level)
	case decision.MoveRight:
		return p.pair(M2, M6, level)
	case decision.MoveUp:
		return p.pair(M3, M4, p.Levels.Min)
	case decision.MoveDown:
		return p.pair(M3, M4, level)
	}
	return nil
}

func (p *Planner) pair(a, b Motor, level int) []Setting {
	return []Setting{p.setting(a, level), p.setting(b, level)}
}

func (p *Planner) setting(m Motor, level int) Setting {
	return Setting{Motor: m, Channel: p.Layout[m], PulseUS: level}
}
