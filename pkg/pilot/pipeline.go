// Package pilot runs the per-frame perception-to-actuation pipeline:
// estimate distances, decide, actuate and notify observers.
//
// The pipeline is owned by one goroutine (the frame loop). Other goroutines
// talk to it only through Submit, which queues a Control that is applied at
// the start of the next frame.
package pilot

import (
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-polrov/internal/log"
	"github.com/teslashibe/go-polrov/pkg/debug"
	"github.com/teslashibe/go-polrov/pkg/decision"
	"github.com/teslashibe/go-polrov/pkg/detection"
	"github.com/teslashibe/go-polrov/pkg/distance"
	"github.com/teslashibe/go-polrov/pkg/motor"
)

// ReasonManual marks frames where automatic decisions were suppressed.
const ReasonManual decision.Reason = "manual"

// DefaultControlQueue is the number of controls buffered between frames.
const DefaultControlQueue = 16

// Config tunes the pipeline.
type Config struct {
	// RepeatCommands writes the command every frame instead of only on change.
	RepeatCommands bool `yaml:"repeat_commands"`

	// ControlQueue is the control buffer size.
	ControlQueue int `yaml:"control_queue"`
}

// DefaultConfig writes only on change.
func DefaultConfig() Config {
	return Config{ControlQueue: DefaultControlQueue}
}

// Tracked is a detection with its distance estimate.
type Tracked struct {
	detection.Detection
	Distance distance.Estimate `json:"distance"`
}

// Result describes one processed frame.
type Result struct {
	Frame      uint64
	Time       time.Time
	Detections []Tracked
	Outcome    decision.Outcome
	Manual     bool
	Applied    bool  // the actuator was written this frame
	Err        error // actuation error, if any
}

// Observer is notified after every frame, on the frame loop goroutine.
// Implementations must not block.
type Observer interface {
	OnFrame(Result)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Result)

// OnFrame calls f(r).
func (f ObserverFunc) OnFrame(r Result) { f(r) }

// Toggler flips a boolean setting, e.g. screenshot saving.
type Toggler interface {
	Toggle() bool
}

// Status is a thread-safe snapshot for dashboards.
type Status struct {
	Mode        decision.Mode    `json:"mode"`
	Active      bool             `json:"active"`
	Manual      bool             `json:"manual"`
	LastCommand decision.Command `json:"last_command"`
	Frame       uint64           `json:"frame"`
}

// Pipeline turns detections into motor commands.
type Pipeline struct {
	cfg       Config
	estimator *distance.Estimator
	engine    *decision.Engine
	act       motor.Actuator
	toggler   Toggler

	controls  chan Control
	observers []Observer

	// Owned by the frame loop
	state      decision.State
	manual     bool
	last       decision.Command
	hasApplied bool
	frame      uint64

	mu     sync.RWMutex
	status Status
}

// New creates a pipeline in the initial state (idle, armed).
func New(cfg Config, est *distance.Estimator, eng *decision.Engine, act motor.Actuator) *Pipeline {
	if cfg.ControlQueue <= 0 {
		cfg.ControlQueue = DefaultControlQueue
	}
	p := &Pipeline{
		cfg:       cfg,
		estimator: est,
		engine:    eng,
		act:       act,
		controls:  make(chan Control, cfg.ControlQueue),
		state:     decision.InitialState(),
	}
	p.publish()
	return p
}

// SetToggler sets the target of ActionScreenshots.
func (p *Pipeline) SetToggler(t Toggler) {
	p.toggler = t
}

// AddObserver registers an observer. Call before the loop starts.
func (p *Pipeline) AddObserver(o Observer) {
	p.observers = append(p.observers, o)
}

// Submit queues a control for the next frame. It never blocks and reports
// false when the queue is full.
func (p *Pipeline) Submit(c Control) bool {
	select {
	case p.controls <- c:
		return true
	default:
		log.Warn("control queue full, dropping", "action", c.Action, "source", c.Source)
		return false
	}
}

// State returns the decision state. Frame loop only.
func (p *Pipeline) State() decision.State {
	return p.state
}

// Status returns a snapshot safe to read from any goroutine.
func (p *Pipeline) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

// Drain applies every queued control. Process calls it; the loop may also
// call it while no frame is available.
func (p *Pipeline) Drain() {
	for {
		select {
		case c := <-p.controls:
			p.handle(c)
		default:
			p.publish()
			return
		}
	}
}

func (p *Pipeline) handle(c Control) {
	log.Info("control", "action", c.Action, "source", c.Source, "move", c.Move)

	switch c.Action {
	case ActionStop:
		p.state = decision.Stop(p.state)
		p.manual = false
		p.actuate(decision.StopAll(), true)
		fmt.Printf("🛑 Stop requested (%s), motors idle until armed\n", c.Source)

	case ActionArm:
		p.state = decision.Arm(p.state)
		p.manual = false

	case ActionPause:
		p.manual = true
		p.actuate(decision.StopAll(), true)

	case ActionResume:
		p.manual = false
		p.state = decision.Arm(p.state)

	case ActionManual:
		p.manual = true
		p.actuate(decision.Single(c.Move, decision.SpeedCruise), true)

	case ActionScreenshots:
		if p.toggler != nil {
			on := p.toggler.Toggle()
			fmt.Printf("📸 Screenshots %s\n", onOff(on))
		}
	}
}

// Process runs one frame. It applies queued controls first.
func (p *Pipeline) Process(dets []detection.Detection) Result {
	p.Drain()
	p.frame++

	res := Result{Frame: p.frame, Time: time.Now(), Manual: p.manual}

	res.Detections = make([]Tracked, len(dets))
	obs := make([]decision.Observation, len(dets))
	for i, d := range dets {
		est := p.estimator.Estimate(d.Label, d.PixelWidth())
		res.Detections[i] = Tracked{Detection: d, Distance: est}
		obs[i] = decision.Observation{Class: est.Class, Confidence: d.Confidence, Distance: est}
	}

	if p.manual {
		res.Outcome = decision.Outcome{Command: p.last, State: p.state, Reason: ReasonManual}
	} else {
		prev := p.state.Mode
		res.Outcome = p.engine.Evaluate(obs, p.state)
		p.state = res.Outcome.State
		res.Applied, res.Err = p.actuate(res.Outcome.Command, p.cfg.RepeatCommands)

		if p.state.Mode != prev {
			logTransition(prev, res.Outcome)
		}
	}

	debug.DecisionLog("🧭 frame=%d dets=%d mode=%s cmd=%s reason=%q\n",
		res.Frame, len(dets), res.Outcome.State.Mode, res.Outcome.Command, res.Outcome.Reason)

	p.publish()
	for _, o := range p.observers {
		o.OnFrame(res)
	}
	return res
}

// actuate writes cmd unless it repeats the last applied command.
// Failed writes are retried on the next frame.
func (p *Pipeline) actuate(cmd decision.Command, force bool) (bool, error) {
	if !force && p.hasApplied && cmd.Equal(p.last) {
		return false, nil
	}
	if err := p.act.Apply(cmd); err != nil {
		log.Warn("actuation failed", "command", cmd.String(), "error", err)
		p.hasApplied = false
		return false, err
	}
	p.last = cmd
	p.hasApplied = true
	return true, nil
}

// StopAll stops the motors immediately, bypassing the queue. Frame loop only.
func (p *Pipeline) StopAll() error {
	p.hasApplied = false
	return p.act.StopAll()
}

func (p *Pipeline) publish() {
	last := p.state.LastCommand
	if p.manual {
		last = p.last
	}
	p.mu.Lock()
	p.status = Status{
		Mode:        p.state.Mode,
		Active:      p.state.Active,
		Manual:      p.manual,
		LastCommand: last,
		Frame:       p.frame,
	}
	p.mu.Unlock()
}

func logTransition(from decision.Mode, out decision.Outcome) {
	switch out.State.Mode {
	case decision.ModeEvading:
		d := "?"
		if out.Cylinder != nil {
			d = out.Cylinder.Distance.String()
		}
		fmt.Printf("⚠️  Cylinder at %s, evading %s\n", d, out.Command)
	case decision.ModeSlowed:
		fmt.Printf("🚧 Gate ahead, slowing down\n")
	case decision.ModeMovingForward:
		fmt.Printf("➡️  Path clear, moving forward\n")
	case decision.ModeIdle:
		fmt.Printf("⏸️  Idle (was %s)\n", from)
	}
}

func onOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}
