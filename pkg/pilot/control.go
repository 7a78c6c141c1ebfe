package pilot

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-polrov/pkg/decision"
)

// Action is an operator request applied between frames.
type Action string

const (
	ActionStop        Action = "stop"        // stop all motors and disarm
	ActionArm         Action = "arm"         // re-enable forward motion
	ActionPause       Action = "pause"       // hold motors, ignore automatic decisions
	ActionResume      Action = "resume"      // leave manual mode and re-arm
	ActionManual      Action = "manual"      // drive one move by hand; implies pause
	ActionScreenshots Action = "screenshots" // toggle screenshot saving
)

var actions = []Action{ActionStop, ActionArm, ActionPause, ActionResume, ActionManual, ActionScreenshots}

// ParseAction resolves an action name.
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, a := range actions {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown action %q", name)
}

// Control is one queued operator request.
type Control struct {
	Action Action
	Move   decision.Move // only for ActionManual
	Source string        // "web", "topside", "keyboard"
}

// ManualControl builds a manual move request.
func ManualControl(move decision.Move, source string) Control {
	return Control{Action: ActionManual, Move: move, Source: source}
}

// ParseControl builds a Control from wire strings. Manual requests need a
// valid move.
func ParseControl(action, move, source string) (Control, error) {
	a, err := ParseAction(action)
	if err != nil {
		return Control{}, err
	}
	c := Control{Action: a, Source: source}
	if a == ActionManual {
		m, ok := decision.ParseMove(move)
		if !ok {
			return Control{}, fmt.Errorf("unknown move %q", move)
		}
		c.Move = m
	}
	return c, nil
}
