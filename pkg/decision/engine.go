package decision

import (
	"math"
	"time"

	"github.com/teslashibe/go-polrov/pkg/distance"
)

// Observation is one detection as seen by the engine.
type Observation struct {
	Class      distance.Class
	Confidence float64
	Distance   distance.Estimate
}

// Reason explains which rule produced a command.
type Reason string

const (
	ReasonObstacle Reason = "cylinder in band"
	ReasonGate     Reason = "gate ahead"
	ReasonClear    Reason = "clear"
	ReasonDisarmed Reason = "disarmed"
)

// Outcome is the full result of evaluating one frame.
type Outcome struct {
	Command Command
	State   State
	Reason  Reason

	// Best observation per class after max-confidence selection, if any.
	Cylinder *Observation
	Gate     *Observation
}

// Engine applies a Config to frames of observations.
// It holds no per-frame state; callers own the State between frames.
type Engine struct {
	cfg    Config
	choose Chooser
}

// New creates an engine. A nil chooser uses RandomChooser seeded from the clock.
func New(cfg Config, choose Chooser) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if choose == nil {
		choose = RandomChooser(uint64(time.Now().UnixNano()))
	}
	return &Engine{cfg: cfg.Clone(), choose: choose}, nil
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg.Clone()
}

// Decide returns the command for this frame and the state to carry forward.
func (e *Engine) Decide(obs []Observation, prior State) (Command, State) {
	out := e.Evaluate(obs, prior)
	return out.Command, out.State
}

// Evaluate is Decide with the reasoning attached.
//
// Priority is strict: an in-band Cylinder beats a Gate, which beats
// cruising forward. Each class is judged on its highest-confidence
// observation only.
func (e *Engine) Evaluate(obs []Observation, prior State) Outcome {
	best := BestPerClass(obs)
	out := Outcome{}
	if o, ok := best[distance.ClassCylinder]; ok {
		out.Cylinder = &o
	}
	if o, ok := best[distance.ClassGate]; ok {
		out.Gate = &o
	}

	next := State{Active: prior.Active}

	switch {
	case e.present(out.Cylinder) && e.cfg.EvadeBand.Matches(out.Cylinder.Distance.Distance()):
		out.Command = e.evade()
		out.Reason = ReasonObstacle
		next.Mode = ModeEvading
		next.Active = !e.cfg.DisarmAfterEvade

	case e.present(out.Gate):
		out.Command = Forward(SpeedSlow)
		out.Reason = ReasonGate
		next.Mode = ModeSlowed

	case prior.Active:
		out.Command = e.cruise()
		out.Reason = ReasonClear
		next.Mode = ModeMovingForward

	default:
		out.Command = StopAll()
		out.Reason = ReasonDisarmed
		next.Mode = ModeIdle
	}

	next.LastCommand = out.Command
	out.State = next
	return out
}

func (e *Engine) present(o *Observation) bool {
	if o == nil {
		return false
	}
	t, ok := e.cfg.Threshold(o.Class)
	return ok && o.Confidence >= t
}

func (e *Engine) evade() Command {
	side := e.choose()
	if side != MoveLeft && side != MoveRight {
		side = MoveLeft
	}
	if e.cfg.DiveOnEvade {
		return Combined(Step{Move: MoveDown}, Step{Move: side})
	}
	return Single(side, SpeedCruise)
}

func (e *Engine) cruise() Command {
	if e.cfg.DescendOnForward {
		return Combined(Step{Move: MoveForward}, Step{Move: MoveDown})
	}
	return Forward(SpeedCruise)
}

// BestPerClass keeps the highest-confidence observation of each known class.
// Unknown classes and NaN confidences are dropped. Ties keep the earliest observation.
func BestPerClass(obs []Observation) map[distance.Class]Observation {
	best := make(map[distance.Class]Observation, 2)
	for _, o := range obs {
		if o.Class == distance.ClassUnknown || math.IsNaN(o.Confidence) {
			continue
		}
		if cur, ok := best[o.Class]; !ok || o.Confidence > cur.Confidence {
			best[o.Class] = o
		}
	}
	return best
}
