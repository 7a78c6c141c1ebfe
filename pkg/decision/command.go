// Package decision turns one frame of detections into a single motion
// command for the vehicle, applying class priorities, confidence gates
// and distance bands.
package decision

import "strings"

// Move is a primitive direction understood by the actuation layer.
type Move int

const (
	MoveForward Move = iota
	MoveBackward
	MoveLeft
	MoveRight
	MoveUp
	MoveDown
)

var moveNames = [...]string{"forward", "backward", "left", "right", "up", "down"}

// String returns the lower-case move name.
func (m Move) String() string {
	if m < 0 || int(m) >= len(moveNames) {
		return "invalid"
	}
	return moveNames[m]
}

// ParseMove resolves a move name. The second result is false for unknown names.
func ParseMove(name string) (Move, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range moveNames {
		if n == name {
			return Move(i), true
		}
	}
	return 0, false
}

// Speed selects the throttle level used for a move.
type Speed int

const (
	SpeedCruise Speed = iota
	SpeedSlow
)

// String returns "cruise" or "slow".
func (s Speed) String() string {
	if s == SpeedSlow {
		return "slow"
	}
	return "cruise"
}

// Step is one primitive move at a speed.
type Step struct {
	Move  Move  `json:"move"`
	Speed Speed `json:"speed"`
}

// Kind classifies a Command.
type Kind int

const (
	KindForward Kind = iota
	KindBackward
	KindLeft
	KindRight
	KindUp
	KindDown
	KindStopAll
	KindCombined
)

var kindNames = [...]string{"forward", "backward", "left", "right", "up", "down", "stop_all", "combined"}

// String returns the kind name.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// Command is the directive handed to the actuation layer for one frame.
// Commands are values; the step list is never shared with callers.
type Command struct {
	kind  Kind
	steps []Step
}

// StopAll returns the command that idles every motor.
func StopAll() Command {
	return Command{kind: KindStopAll}
}

// Single returns a command for one primitive move.
func Single(m Move, s Speed) Command {
	return Command{kind: Kind(m), steps: []Step{{Move: m, Speed: s}}}
}

// Forward returns a forward command at the given speed.
func Forward(s Speed) Command {
	return Single(MoveForward, s)
}

// Combined returns a command that applies several moves together, in order.
// A single step collapses to the primitive kind; no steps collapses to StopAll.
func Combined(steps ...Step) Command {
	switch len(steps) {
	case 0:
		return StopAll()
	case 1:
		return Single(steps[0].Move, steps[0].Speed)
	}
	cp := make([]Step, len(steps))
	copy(cp, steps)
	return Command{kind: KindCombined, steps: cp}
}

// Kind returns the command kind.
func (c Command) Kind() Kind {
	return c.kind
}

// Steps returns a copy of the primitive moves in the command.
func (c Command) Steps() []Step {
	if len(c.steps) == 0 {
		return nil
	}
	cp := make([]Step, len(c.steps))
	copy(cp, c.steps)
	return cp
}

// Lateral returns the left/right move carried by the command, if any.
func (c Command) Lateral() (Move, bool) {
	for _, s := range c.steps {
		if s.Move == MoveLeft || s.Move == MoveRight {
			return s.Move, true
		}
	}
	return 0, false
}

// Equal reports whether two commands direct the same moves.
func (c Command) Equal(o Command) bool {
	if c.kind != o.kind || len(c.steps) != len(o.steps) {
		return false
	}
	for i := range c.steps {
		if c.steps[i] != o.steps[i] {
			return false
		}
	}
	return true
}

// String renders e.g. "left", "forward(slow)" or "combined[down+left]".
func (c Command) String() string {
	switch c.kind {
	case KindStopAll:
		return "stop_all"
	case KindCombined:
		parts := make([]string, len(c.steps))
		for i, s := range c.steps {
			parts[i] = stepString(s)
		}
		return "combined[" + strings.Join(parts, "+") + "]"
	default:
		if len(c.steps) == 1 {
			return stepString(c.steps[0])
		}
		return c.kind.String()
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func stepString(s Step) string {
	if s.Speed == SpeedSlow {
		return s.Move.String() + "(slow)"
	}
	return s.Move.String()
}
