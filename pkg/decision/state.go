package decision

// Mode is the motion state latched after each frame.
type Mode int

const (
	ModeIdle Mode = iota
	ModeMovingForward
	ModeEvading
	ModeSlowed
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeMovingForward:
		return "moving_forward"
	case ModeEvading:
		return "evading"
	case ModeSlowed:
		return "slowed"
	default:
		return "idle"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// State is the only decision data that lives across frames.
// Active is the "proceed when clear" flag: while it is set, a frame with
// nothing to react to produces a forward command.
type State struct {
	Mode        Mode
	LastCommand Command
	Active      bool
}

// InitialState is the state at power-on: idle, motors stopped, armed.
func InitialState() State {
	return State{Mode: ModeIdle, LastCommand: StopAll(), Active: true}
}

// Stop applies an explicit stop. The engine stays idle until Arm.
func Stop(State) State {
	return State{Mode: ModeIdle, LastCommand: StopAll(), Active: false}
}

// Arm re-enables forward motion without changing the latched mode.
func Arm(s State) State {
	s.Active = true
	return s
}
